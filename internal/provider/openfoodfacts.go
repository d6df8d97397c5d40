package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"golang.org/x/sync/singleflight"

	"github.com/kalorio/kalorio/config"
	"github.com/kalorio/kalorio/internal/domain"
)

// ErrUpstream covers transport failures, timeouts and unexpected status
// codes from the nutrition provider. The resolution cascade absorbs it as a
// tier miss.
var ErrUpstream = errors.New("provider: upstream request failed")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// offEnvelope is the provider's barcode lookup response.
// status is 1 when the product exists, 0 otherwise.
type offEnvelope struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

// offProduct carries the subset of upstream fields we normalize. Nutriment
// values arrive as numbers or strings depending on the product, hence the
// untyped map.
type offProduct struct {
	ProductName   string                 `json:"product_name"`
	Brands        string                 `json:"brands"`
	CategoryTags  []string               `json:"categories_tags"`
	ImageURL      string                 `json:"image_url"`
	Nutriments    map[string]interface{} `json:"nutriments"`
	AllergensTags []string               `json:"allergens_tags"`
	Stores        string                 `json:"stores"`
}

// Client adapts the third-party nutrition API into the canonical product
// shape. Concurrent fetches for the same barcode are collapsed into one
// upstream call.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	group     singleflight.Group
}

func NewClient(cfg config.ProviderConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		timeout:   timeout,
	}
}

// FetchByBarcode queries the provider and normalizes the payload. A missing
// upstream record is a miss (nil, nil), not an error.
func (c *Client) FetchByBarcode(ctx context.Context, code string) (*domain.Product, error) {
	v, err, _ := c.group.Do(code, func() (interface{}, error) {
		return c.fetch(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*domain.Product), nil
}

func (c *Client) fetch(ctx context.Context, code string) (*domain.Product, error) {
	var (
		status int
		raw    []byte
	)
	err := gout.GET(fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, code)).
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(gout.H{"User-Agent": c.userAgent}).
		Code(&status).
		BindBody(&raw).
		Do()
	if err != nil {
		return nil, errors.Wrapf(ErrUpstream, "fetch %s: %v", code, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(ErrUpstream, "fetch %s: status %d", code, status)
	}

	var envelope offEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrapf(ErrUpstream, "fetch %s: decode: %v", code, err)
	}
	if envelope.Status != 1 {
		return nil, nil
	}
	return normalize(code, envelope.Product), nil
}

// normalize maps the upstream schema onto the canonical shape. Absent
// numeric fields become 0, absent collections become empty, never nil.
func normalize(code string, up offProduct) *domain.Product {
	name := strings.TrimSpace(up.ProductName)
	if name == "" {
		name = "Unbekanntes Produkt " + code
	}
	return &domain.Product{
		Barcode:  code,
		Name:     name,
		Brand:    firstListItem(up.Brands),
		Category: mapCategory(up.CategoryTags),
		ImageURL: up.ImageURL,
		Nutrition: domain.Nutrition{
			Calories: nutriment(up.Nutriments, "energy-kcal_100g"),
			Protein:  nutriment(up.Nutriments, "proteins_100g"),
			Carbs:    nutriment(up.Nutriments, "carbohydrates_100g"),
			Fat:      nutriment(up.Nutriments, "fat_100g"),
			Fiber:    nutriment(up.Nutriments, "fiber_100g"),
			Sugar:    nutriment(up.Nutriments, "sugars_100g"),
			Salt:     nutriment(up.Nutriments, "salt_100g"),
		},
		Allergens: stripTagPrefixes(up.AllergensTags),
		Stores:    splitStores(up.Stores),
		Source:    domain.SourceExternalImport,
	}
}

func nutriment(m map[string]interface{}, key string) float64 {
	if m == nil {
		return 0
	}
	v, ok := m[key]
	if !ok {
		return 0
	}
	f := cast.ToFloat64(v)
	if f < 0 {
		return 0
	}
	return f
}

func firstListItem(s string) string {
	parts := strings.SplitN(s, ",", 2)
	return strings.TrimSpace(parts[0])
}

func splitStores(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(strings.ToLower(p)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// stripTagPrefixes turns upstream tags like "en:milk" into "milk".
func stripTagPrefixes(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if i := strings.Index(t, ":"); i >= 0 {
			t = t[i+1:]
		}
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// categoryHints maps upstream category tag fragments onto the closed
// category enum. First hit wins, unmatched products land in "other".
var categoryHints = []struct {
	fragment string
	category string
}{
	{"dairies", "dairy"}, {"milk", "dairy"}, {"cheese", "dairy"}, {"yogurt", "dairy"},
	{"bread", "bakery"}, {"bakery", "bakery"}, {"pastr", "bakery"},
	{"beverage", "beverages"}, {"drink", "beverages"}, {"water", "beverages"}, {"juice", "beverages"},
	{"snack", "snacks"}, {"chips", "snacks"}, {"nuts", "snacks"},
	{"sweet", "sweets"}, {"chocolate", "sweets"}, {"candy", "sweets"}, {"spread", "sweets"},
	{"fruit", "fruits"},
	{"vegetable", "vegetables"}, {"legume", "vegetables"},
	{"meat", "meat"}, {"poultry", "meat"}, {"sausage", "meat"},
	{"fish", "fish"}, {"seafood", "fish"},
	{"cereal", "grains"}, {"pasta", "grains"}, {"rice", "grains"},
	{"frozen", "frozen"},
	{"sauce", "condiments"}, {"condiment", "condiments"}, {"spice", "condiments"},
}

func mapCategory(tags []string) string {
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		for _, hint := range categoryHints {
			if strings.Contains(tag, hint.fragment) {
				return hint.category
			}
		}
	}
	return "other"
}
