package domain

import (
	"time"

	"github.com/kalorio/kalorio/pkg/common"
)

// Product sources
const (
	SourceCurated        = "curated"
	SourceCommunity      = "community"
	SourceExternalImport = "external-import"
)

// Verification states for community and imported rows. Curated products
// never enter this state machine.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// CreatedBySystemImport marks rows written back from the external provider.
const CreatedBySystemImport = "system-import"

// Categories is the closed set of food categories.
var Categories = []string{
	"dairy", "bakery", "beverages", "snacks", "sweets", "fruits",
	"vegetables", "meat", "fish", "grains", "frozen", "condiments", "other",
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Nutrition holds per-100g values. Calories/protein/carbs/fat are mandatory
// on every product; fiber/sugar/salt default to zero.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Salt     float64 `json:"salt"`
}

// Product is the canonical shape shared by the curated catalog, the
// community store and the external provider adapter.
type Product struct {
	Barcode   string    `json:"barcode"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url,omitempty"`
	Nutrition Nutrition `json:"nutrition"`
	Allergens []string  `json:"allergens"`
	Stores    []string  `json:"stores"`
	Keywords  []string  `json:"keywords,omitempty"`
	Source    string    `json:"source"`
}

// FoodProduct is the persisted community store row.
type FoodProduct struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string" form:"id"`
	Barcode            string    `gorm:"size:13;uniqueIndex:uk_food_products_barcode,where:barcode <> ''" json:"barcode"`
	Name               string    `gorm:"size:200;index" json:"name"`
	Brand              string    `gorm:"size:200;index" json:"brand"`
	Category           string    `gorm:"size:32;index" json:"category"`
	ImageURL           string    `gorm:"size:1024" json:"image_url,omitempty"`
	Calories           float64   `json:"calories"`
	Protein            float64   `json:"protein"`
	Carbs              float64   `json:"carbs"`
	Fat                float64   `json:"fat"`
	Fiber              float64   `json:"fiber"`
	Sugar              float64   `json:"sugar"`
	Salt               float64   `json:"salt"`
	Allergens          string    `gorm:"size:512" json:"-"`
	Stores             string    `gorm:"size:512" json:"-"`
	Source             string    `gorm:"size:20;index" json:"source"`
	VerificationStatus string    `gorm:"size:12;index" json:"verification_status"`
	ModeratorNotes     string    `gorm:"size:1024" json:"moderator_notes,omitempty"`
	IsVerified         bool      `json:"is_verified"`
	CreatedBy          string    `gorm:"size:64;index" json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName Specify table name
func (FoodProduct) TableName() string {
	return "food_products"
}

// Visible reports whether the row may be served to ordinary lookup/search.
func (p *FoodProduct) Visible() bool {
	return p.VerificationStatus == StatusApproved || p.Source == SourceExternalImport
}

// ToProduct converts a stored row into the canonical shape.
func (p *FoodProduct) ToProduct() *Product {
	return &Product{
		Barcode:  p.Barcode,
		Name:     p.Name,
		Brand:    p.Brand,
		Category: p.Category,
		ImageURL: p.ImageURL,
		Nutrition: Nutrition{
			Calories: p.Calories,
			Protein:  p.Protein,
			Carbs:    p.Carbs,
			Fat:      p.Fat,
			Fiber:    p.Fiber,
			Sugar:    p.Sugar,
			Salt:     p.Salt,
		},
		Allergens: common.SplitAndTrim(p.Allergens),
		Stores:    common.SplitAndTrim(p.Stores),
		Source:    p.Source,
	}
}

// NewFoodProduct builds a row from the canonical shape. Moderation fields
// are left to the caller.
func NewFoodProduct(p *Product) *FoodProduct {
	return &FoodProduct{
		ID:        common.UUIDint64(),
		Barcode:   p.Barcode,
		Name:      p.Name,
		Brand:     p.Brand,
		Category:  p.Category,
		ImageURL:  p.ImageURL,
		Calories:  p.Nutrition.Calories,
		Protein:   p.Nutrition.Protein,
		Carbs:     p.Nutrition.Carbs,
		Fat:       p.Nutrition.Fat,
		Fiber:     p.Nutrition.Fiber,
		Sugar:     p.Nutrition.Sugar,
		Salt:      p.Nutrition.Salt,
		Allergens: common.JoinTrimmed(p.Allergens),
		Stores:    common.JoinTrimmed(p.Stores),
		Source:    p.Source,
	}
}
