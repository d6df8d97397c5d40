package catalog

import (
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/kalorio/kalorio/internal/domain"
)

// curatedRow mirrors one line of the embedded dataset. List columns use a
// semicolon separator so the file stays free of CSV quoting.
type curatedRow struct {
	Barcode   string  `csv:"barcode"`
	Name      string  `csv:"name"`
	Brand     string  `csv:"brand"`
	Category  string  `csv:"category"`
	Calories  float64 `csv:"calories"`
	Protein   float64 `csv:"protein"`
	Carbs     float64 `csv:"carbs"`
	Fat       float64 `csv:"fat"`
	Fiber     float64 `csv:"fiber"`
	Sugar     float64 `csv:"sugar"`
	Salt      float64 `csv:"salt"`
	Allergens string  `csv:"allergens"`
	Stores    string  `csv:"stores"`
	Keywords  string  `csv:"keywords"`
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ";")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			items = append(items, v)
		}
	}
	return items
}

// Catalog is the curated product dataset, loaded once at startup and never
// mutated afterwards, so it is safe for unlimited concurrent readers.
type Catalog struct {
	products  []*domain.Product
	byBarcode map[string]*domain.Product
	keywords  map[string][]int
}

// Load parses the curated CSV dataset and builds the barcode map and the
// inverted keyword index.
func Load(data []byte) (*Catalog, error) {
	var rows []*curatedRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, errors.Wrap(err, "curated dataset parse failed")
	}

	c := &Catalog{
		products:  make([]*domain.Product, 0, len(rows)),
		byBarcode: make(map[string]*domain.Product, len(rows)),
		keywords:  make(map[string][]int),
	}
	for _, row := range rows {
		barcode := strings.TrimSpace(row.Barcode)
		if barcode == "" {
			continue
		}
		if _, dup := c.byBarcode[barcode]; dup {
			return nil, errors.Errorf("curated dataset: duplicate barcode %s", barcode)
		}
		p := &domain.Product{
			Barcode:  barcode,
			Name:     strings.TrimSpace(row.Name),
			Brand:    strings.TrimSpace(row.Brand),
			Category: strings.TrimSpace(row.Category),
			Nutrition: domain.Nutrition{
				Calories: row.Calories,
				Protein:  row.Protein,
				Carbs:    row.Carbs,
				Fat:      row.Fat,
				Fiber:    row.Fiber,
				Sugar:    row.Sugar,
				Salt:     row.Salt,
			},
			Allergens: splitList(row.Allergens),
			Stores:    splitList(row.Stores),
			Keywords:  splitList(row.Keywords),
			Source:    domain.SourceCurated,
		}
		idx := len(c.products)
		c.products = append(c.products, p)
		c.byBarcode[barcode] = p
		for _, kw := range p.Keywords {
			kw = strings.ToLower(kw)
			c.keywords[kw] = append(c.keywords[kw], idx)
		}
	}
	return c, nil
}

// LookupByBarcode returns the curated product for an exact barcode, or nil.
func (c *Catalog) LookupByBarcode(code string) *domain.Product {
	return c.byBarcode[code]
}

// Products returns the dataset in insertion order. Callers must treat the
// slice as read-only.
func (c *Catalog) Products() []*domain.Product {
	return c.products
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// HasBarcode reports whether a barcode exists in the curated dataset.
func (c *Catalog) HasBarcode(code string) bool {
	_, ok := c.byBarcode[code]
	return ok
}

// Suggestions returns human readable product hints for a missed barcode,
// preferring products that share the GS1 country prefix.
func (c *Catalog) Suggestions(code string, limit int) []string {
	if limit <= 0 {
		limit = 5
	}
	out := make([]string, 0, limit)
	if len(code) >= 3 {
		prefix := code[:3]
		for _, p := range c.products {
			if strings.HasPrefix(p.Barcode, prefix) {
				out = append(out, p.Name+" ("+p.Brand+")")
				if len(out) == limit {
					return out
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	for _, p := range c.products {
		if len(out) == limit {
			break
		}
		out = append(out, p.Name+" ("+p.Brand+")")
	}
	return out
}
