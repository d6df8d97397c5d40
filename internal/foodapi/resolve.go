package foodapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalorio/kalorio/internal/resolve"
	"github.com/kalorio/kalorio/internal/webserver"
)

func registerResolveRoutes() {
	webserver.PubGET("/food/resolve", resolveBarcode)
}

// resolveBarcode runs the lookup cascade for a scanned barcode.
func resolveBarcode(c echo.Context) error {
	code := strings.TrimSpace(c.QueryParam("barcode"))

	result, notFound, err := srv.Cascade.Resolve(c.Request().Context(), code)
	switch {
	case errors.Is(err, resolve.ErrInvalidBarcode):
		return fail(c, http.StatusBadRequest, "INVALID_BARCODE",
			"Barcode must be 8 or 13 digits", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "RESOLVE_FAILED",
			"Product resolution failed", nil)
	case notFound != nil:
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"success":     false,
			"message":     "No product found for barcode " + notFound.Barcode,
			"suggestions": notFound.Suggestions,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"product": result.Product,
		"source":  result.Source,
	})
}
