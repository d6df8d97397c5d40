package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kalorio/kalorio/internal/catalog"
	"github.com/kalorio/kalorio/internal/community"
	"github.com/kalorio/kalorio/internal/domain"
)

const curatedRows = `barcode,name,brand,category,calories,protein,carbs,fat,fiber,sugar,salt,allergens,stores,keywords
3017620422003,Nutella,Ferrero,sweets,539,6.3,57.5,30.9,0,56.3,0.107,milk;hazelnuts;soy,rewe;edeka,schokocreme;brotaufstrich
40084015,Hanuta,Ferrero,sweets,551,7.6,53.3,33.7,2.1,44.5,0.27,milk;hazelnuts;gluten,rewe;kaufland,waffel
`

func newTestStore(t *testing.T) *community.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.FoodProduct{}))
	return community.NewStore(db)
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load([]byte(curatedRows))
	require.NoError(t, err)
	return cat
}

func validInput(barcode, name, brand string) SubmissionInput {
	macro := func(v float64) *float64 { return &v }
	return SubmissionInput{
		Barcode:  barcode,
		Name:     name,
		Brand:    brand,
		Category: "snacks",
		Nutrition: &NutritionInput{
			Calories: macro(480),
			Protein:  macro(7.5),
			Carbs:    macro(60),
			Fat:      macro(22),
		},
		Allergens: []string{"gluten"},
		Stores:    []string{"rewe"},
	}
}

func TestSubmitCreatesPendingRow(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	row, err := gate.Submit(context.Background(), validInput("4066600204404", "Leibniz Butterkeks", "Bahlsen"), "user-17")
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, domain.StatusPending, row.VerificationStatus)
	assert.Equal(t, domain.SourceCommunity, row.Source)
	assert.False(t, row.IsVerified)
	assert.Equal(t, "user-17", row.CreatedBy)
	assert.NotZero(t, row.ID)
}

func TestSubmitWithoutBarcodeIsAllowed(t *testing.T) {
	store := newTestStore(t)
	gate := NewGate(store, newTestCatalog(t))

	first, err := gate.Submit(context.Background(), validInput("", "Omas Apfelkuchen", "Hausgemacht"), "user-1")
	require.NoError(t, err)
	assert.Empty(t, first.Barcode)

	// a second barcode-less product must not trip the barcode uniqueness
	second, err := gate.Submit(context.Background(), validInput("", "Omas Pflaumenkuchen", "Hausgemacht"), "user-2")
	require.NoError(t, err)
	assert.Empty(t, second.Barcode)
}

func TestSubmitRejectsMissingMacros(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	input := validInput("4066600204404", "Leibniz Butterkeks", "Bahlsen")
	input.Nutrition.Fat = nil
	_, err := gate.Submit(context.Background(), input, "user-1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmitRejectsNegativeCalories(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	bad := -5.0
	input := validInput("4066600204404", "Leibniz Butterkeks", "Bahlsen")
	input.Nutrition.Calories = &bad
	_, err := gate.Submit(context.Background(), input, "user-1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmitRejectsUnknownCategory(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	input := validInput("4066600204404", "Leibniz Butterkeks", "Bahlsen")
	input.Category = "electronics"
	_, err := gate.Submit(context.Background(), input, "user-1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "electronics")
}

func TestSubmitRejectsMalformedBarcode(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	_, err := gate.Submit(context.Background(), validInput("12345", "Leibniz Butterkeks", "Bahlsen"), "user-1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmitConflictsWithCuratedCatalog(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	_, err := gate.Submit(context.Background(), validInput("3017620422003", "Meine Schokocreme", "Eigenmarke"), "user-1")

	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Candidates, 1)
	assert.Equal(t, "Nutella", cerr.Candidates[0].Name)
}

func TestSubmitConflictsWithExistingSubmission(t *testing.T) {
	store := newTestStore(t)
	gate := NewGate(store, newTestCatalog(t))

	_, err := gate.Submit(context.Background(), validInput("4066600204404", "Leibniz Butterkeks", "Bahlsen"), "user-1")
	require.NoError(t, err)

	_, err = gate.Submit(context.Background(), validInput("4066600204404", "Butterkeks Kopie", "Irgendwer"), "user-2")

	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Candidates, 1)
	assert.Equal(t, "Leibniz Butterkeks", cerr.Candidates[0].Name)

	// the losing submission must not have created a row
	stats, err := store.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
}

func TestSubmitConflictsOnNameBrandPair(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	_, err := gate.Submit(context.Background(), validInput("4066600204404", "Leibniz Butterkeks", "Bahlsen"), "user-1")
	require.NoError(t, err)

	// same pair, different casing, no barcode
	_, err = gate.Submit(context.Background(), validInput("", "LEIBNIZ BUTTERKEKS", "bahlsen"), "user-2")

	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Candidates, 1)
	assert.Equal(t, "4066600204404", cerr.Candidates[0].Barcode)
}

func TestSubmitDifferentBrandSameNameIsAccepted(t *testing.T) {
	gate := NewGate(newTestStore(t), newTestCatalog(t))

	_, err := gate.Submit(context.Background(), validInput("4066600204404", "Butterkeks", "Bahlsen"), "user-1")
	require.NoError(t, err)

	_, err = gate.Submit(context.Background(), validInput("4066600204411", "Butterkeks", "Griesson"), "user-2")
	require.NoError(t, err)
}
