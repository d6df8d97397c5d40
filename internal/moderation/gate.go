package moderation

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/kalorio/kalorio/internal/catalog"
	"github.com/kalorio/kalorio/internal/community"
	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/internal/resolve"
	"github.com/kalorio/kalorio/pkg/metrics"
)

// NutritionInput requires the four macros explicitly; fiber/sugar/salt
// default to 0 when absent.
type NutritionInput struct {
	Calories *float64 `json:"calories" validate:"required,gte=0"`
	Protein  *float64 `json:"protein" validate:"required,gte=0"`
	Carbs    *float64 `json:"carbs" validate:"required,gte=0"`
	Fat      *float64 `json:"fat" validate:"required,gte=0"`
	Fiber    *float64 `json:"fiber" validate:"omitempty,gte=0"`
	Sugar    *float64 `json:"sugar" validate:"omitempty,gte=0"`
	Salt     *float64 `json:"salt" validate:"omitempty,gte=0"`
}

type SubmissionInput struct {
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name" validate:"required,min=2,max=200"`
	Brand     string          `json:"brand" validate:"required,min=1,max=200"`
	Category  string          `json:"category" validate:"required"`
	Nutrition *NutritionInput `json:"nutrition" validate:"required"`
	ImageURL  string          `json:"image_url" validate:"omitempty,max=1024"`
	Allergens []string        `json:"allergens"`
	Stores    []string        `json:"stores"`
}

// Gate validates and deduplicates user submissions before they become
// pending community rows. Every manual submission starts pending; only the
// cascade's automatic import path is auto-approved.
type Gate struct {
	store    *community.Store
	catalog  *catalog.Catalog
	validate *validator.Validate
}

func NewGate(store *community.Store, cat *catalog.Catalog) *Gate {
	return &Gate{
		store:    store,
		catalog:  cat,
		validate: validator.New(),
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Submit runs validation and both duplicate checks, then inserts a pending
// row. The pre-checks exist only to produce candidate lists; the unique
// index remains the authoritative race boundary.
func (g *Gate) Submit(ctx context.Context, input SubmissionInput, submitterID string) (*domain.FoodProduct, error) {
	if err := g.validate.Struct(input); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if !domain.ValidCategory(input.Category) {
		return nil, &ValidationError{Message: "unknown category: " + input.Category}
	}
	barcode := strings.TrimSpace(input.Barcode)
	if barcode != "" && !resolve.ValidBarcode(barcode) {
		return nil, &ValidationError{Message: "barcode must be 8 or 13 digits"}
	}

	if barcode != "" {
		if curated := g.catalog.LookupByBarcode(barcode); curated != nil {
			metrics.Inc(metrics.SubmissionConflict)
			return nil, &ConflictError{
				Message:    "barcode already exists in the curated catalog",
				Candidates: []*domain.Product{curated},
			}
		}
		existing, err := g.store.FindByBarcode(ctx, barcode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			metrics.Inc(metrics.SubmissionConflict)
			return nil, &ConflictError{
				Message:    "barcode already submitted",
				Candidates: []*domain.Product{existing.ToProduct()},
			}
		}
	}

	pairs, err := g.store.FindByNameBrand(ctx, input.Name, input.Brand)
	if err != nil {
		return nil, err
	}
	if len(pairs) > 0 {
		metrics.Inc(metrics.SubmissionConflict)
		candidates := make([]*domain.Product, 0, len(pairs))
		for i := range pairs {
			candidates = append(candidates, pairs[i].ToProduct())
		}
		return nil, &ConflictError{
			Message:    "a product with this name and brand already exists",
			Candidates: candidates,
		}
	}

	product := &domain.Product{
		Barcode:  barcode,
		Name:     strings.TrimSpace(input.Name),
		Brand:    strings.TrimSpace(input.Brand),
		Category: input.Category,
		ImageURL: strings.TrimSpace(input.ImageURL),
		Nutrition: domain.Nutrition{
			Calories: deref(input.Nutrition.Calories),
			Protein:  deref(input.Nutrition.Protein),
			Carbs:    deref(input.Nutrition.Carbs),
			Fat:      deref(input.Nutrition.Fat),
			Fiber:    deref(input.Nutrition.Fiber),
			Sugar:    deref(input.Nutrition.Sugar),
			Salt:     deref(input.Nutrition.Salt),
		},
		Allergens: input.Allergens,
		Stores:    input.Stores,
	}

	row, err := g.store.InsertSubmission(ctx, product, submitterID)
	if errors.Is(err, community.ErrDuplicateBarcode) {
		// lost the insert race; surface whoever won as the candidate
		metrics.Inc(metrics.SubmissionConflict)
		winner, ferr := g.store.FindByBarcode(ctx, barcode)
		conflict := &ConflictError{Message: "barcode already submitted", Candidates: []*domain.Product{}}
		if ferr == nil && winner != nil {
			conflict.Candidates = append(conflict.Candidates, winner.ToProduct())
		}
		return nil, conflict
	}
	if err != nil {
		return nil, err
	}
	metrics.Inc(metrics.SubmissionCreated)
	return row, nil
}
