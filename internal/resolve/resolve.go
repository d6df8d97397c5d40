package resolve

import (
	"context"
	"regexp"

	"github.com/pkg/errors"

	"github.com/kalorio/kalorio/internal/domain"
)

// Caller-visible sources of a resolved product.
const (
	SourceCurated   = "curated"
	SourceCommunity = "community"
	SourceExternal  = "external"
)

// ErrInvalidBarcode rejects anything that is not an EAN-8 or EAN-13 number.
// No tier is queried for an invalid code.
var ErrInvalidBarcode = errors.New("resolve: barcode must be 8 or 13 digits")

var barcodePattern = regexp.MustCompile(`^\d{8}$|^\d{13}$`)

// ValidBarcode reports whether code is a well-formed EAN-8/EAN-13.
func ValidBarcode(code string) bool {
	return barcodePattern.MatchString(code)
}

// Result is a successful resolution.
type Result struct {
	Product *domain.Product `json:"product"`
	Source  string          `json:"source"`
}

// NotFound is the structured all-tiers-missed outcome. It is a result, not
// an error.
type NotFound struct {
	Barcode     string   `json:"barcode"`
	Suggestions []string `json:"suggestions"`
}

// Tier is one lookup strategy in the cascade. A miss is (nil, nil); errors
// are absorbed by the cascade as a miss for that tier only.
type Tier interface {
	Name() string
	Lookup(ctx context.Context, code string) (*domain.Product, error)
}

// Importer receives write-backs of external hits.
type Importer interface {
	InsertImported(ctx context.Context, p *domain.Product) (bool, error)
}

// Suggester supplies human readable hints for a missed barcode.
type Suggester interface {
	Suggestions(code string, limit int) []string
}
