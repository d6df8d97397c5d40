package foodapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalorio/kalorio/internal/moderation"
	"github.com/kalorio/kalorio/internal/webserver"
)

func registerModerationRoutes() {
	webserver.ModGET("/food/moderation/queue", moderationQueue)
	webserver.ModPATCH("/food/moderation/:id", moderationDecide)
	webserver.ModGET("/food/moderation/export", moderationExport)
}

func moderationQueue(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "all"
	}
	rows, stats, err := srv.Workflow.Queue(c.Request().Context(), status)
	if err != nil {
		var verr *moderation.ValidationError
		if errors.As(err, &verr) {
			return fail(c, http.StatusBadRequest, "INVALID_STATUS", verr.Message, nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR",
			"Failed to load moderation queue", nil)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"products":   rows,
		"statistics": stats,
	})
}

func moderationDecide(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var action moderation.Action
	if err := c.Bind(&action); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST",
			"Unable to parse moderation action", nil)
	}

	opr, err := lookupOperator(webserver.OprName(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR",
			"Failed to resolve operator", nil)
	}
	if opr == nil {
		return fail(c, http.StatusForbidden, "UNKNOWN_OPERATOR",
			"Operator is not registered or disabled", nil)
	}

	moderator := opr.Username
	row, err := srv.Workflow.Decide(c.Request().Context(), id, action, moderator)
	if err != nil {
		var verr *moderation.ValidationError
		if errors.As(err, &verr) {
			return fail(c, http.StatusBadRequest, "INVALID_ACTION", verr.Message, nil)
		}
		if errors.Is(err, moderation.ErrNotFound) {
			return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
		}
		var cerr *moderation.ConflictError
		if errors.As(err, &cerr) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"code":                "ALREADY_DECIDED",
				"error":               cerr.Message,
				"existing_candidates": cerr.Candidates,
			})
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR",
			"Failed to apply moderation action", nil)
	}

	oprLog(c, moderator, "moderation",
		fmt.Sprintf("product %d set to %s", id, action.Status))
	return c.JSON(http.StatusOK, row)
}

func moderationExport(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "all"
	}
	buf, err := srv.Workflow.ExportQueue(c.Request().Context(), status)
	if err != nil {
		var verr *moderation.ValidationError
		if errors.As(err, &verr) {
			return fail(c, http.StatusBadRequest, "INVALID_STATUS", verr.Message, nil)
		}
		return fail(c, http.StatusInternalServerError, "EXPORT_FAILED",
			"Failed to export moderation queue", nil)
	}

	filename := fmt.Sprintf("moderation-%s-%s.xlsx", status, time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
