package foodapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalorio/kalorio/internal/moderation"
	"github.com/kalorio/kalorio/internal/webserver"
	"github.com/kalorio/kalorio/pkg/common"
)

func registerSubmissionRoutes() {
	webserver.ApiPOST("/food/submissions", createSubmission)
}

// createSubmission accepts a user-submitted product into the pending queue.
func createSubmission(c echo.Context) error {
	var input moderation.SubmissionInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST",
			"Unable to parse submission", nil)
	}

	submitter := common.IfEmptyStr(webserver.OprID(c), webserver.OprName(c))
	row, err := srv.Gate.Submit(c.Request().Context(), input, submitter)
	if err != nil {
		var verr *moderation.ValidationError
		if errors.As(err, &verr) {
			return fail(c, http.StatusBadRequest, "INVALID_SUBMISSION", verr.Message, nil)
		}
		var cerr *moderation.ConflictError
		if errors.As(err, &cerr) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"code":                "DUPLICATE_PRODUCT",
				"error":               cerr.Message,
				"existing_candidates": cerr.Candidates,
			})
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR",
			"Failed to store submission", nil)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"product": row,
	})
}
