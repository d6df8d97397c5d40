package foodapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kalorio/kalorio/internal/catalog"
	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/internal/webserver"
)

func registerSearchRoutes() {
	webserver.PubGET("/food/search", searchProducts)
}

// searchProducts ranks the curated catalog against the query and appends
// matching approved community rows behind it.
func searchProducts(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"products": []*domain.Product{},
			"total":    0,
		})
	}

	products := srv.Catalog.Search(query)
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		seen[p.Barcode] = true
	}

	rows, err := srv.Store.SearchVisible(c.Request().Context(), query, 50)
	if err != nil {
		// community search is an enrichment; curated results still serve
		zap.L().Warn("community search failed", zap.Error(err))
	} else {
		candidates := make([]*domain.Product, 0, len(rows))
		for i := range rows {
			p := rows[i].ToProduct()
			if p.Barcode != "" && seen[p.Barcode] {
				continue
			}
			candidates = append(candidates, p)
		}
		products = append(products, catalog.SearchAmong(candidates, query)...)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    len(products),
	})
}
