package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalorio/kalorio/internal/community"
	"github.com/kalorio/kalorio/internal/domain"
)

func submitPending(t *testing.T, store *community.Store, barcode, name string) *domain.FoodProduct {
	t.Helper()
	row, err := store.InsertSubmission(context.Background(), &domain.Product{
		Barcode:  barcode,
		Name:     name,
		Brand:    "Testmarke",
		Category: "snacks",
		Nutrition: domain.Nutrition{
			Calories: 300, Protein: 5, Carbs: 40, Fat: 12,
		},
	}, "user-1")
	require.NoError(t, err)
	return row
}

func TestDecideApproveMakesRowVisible(t *testing.T) {
	store := newTestStore(t)
	w := NewWorkflow(store, nil)
	pending := submitPending(t, store, "4008400301019", "Kinder Riegel")

	row, err := w.Decide(context.Background(), pending.ID, Action{
		Status:         domain.StatusApproved,
		ModeratorNotes: "looks good",
		IsVerified:     true,
	}, "admin")
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, domain.StatusApproved, row.VerificationStatus)
	assert.True(t, row.IsVerified)
	assert.Equal(t, "looks good", row.ModeratorNotes)

	visible, err := store.ApprovedByBarcode(context.Background(), "4008400301019")
	require.NoError(t, err)
	require.NotNil(t, visible)
	assert.Equal(t, pending.ID, visible.ID)
}

func TestDecideRejectKeepsRowHidden(t *testing.T) {
	store := newTestStore(t)
	w := NewWorkflow(store, nil)
	pending := submitPending(t, store, "4008400301019", "Kinder Riegel")

	row, err := w.Decide(context.Background(), pending.ID, Action{
		Status:         domain.StatusRejected,
		ModeratorNotes: "duplicate of curated entry",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, row.VerificationStatus)
	assert.False(t, row.IsVerified)

	visible, err := store.ApprovedByBarcode(context.Background(), "4008400301019")
	require.NoError(t, err)
	assert.Nil(t, visible)
}

func TestDecideRejectsInvalidStatus(t *testing.T) {
	w := NewWorkflow(newTestStore(t), nil)

	_, err := w.Decide(context.Background(), 1, Action{Status: "maybe"}, "admin")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDecideVerifiedRequiresApproval(t *testing.T) {
	w := NewWorkflow(newTestStore(t), nil)

	_, err := w.Decide(context.Background(), 1, Action{Status: domain.StatusRejected, IsVerified: true}, "admin")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDecideUnknownIDIsNotFound(t *testing.T) {
	w := NewWorkflow(newTestStore(t), nil)

	_, err := w.Decide(context.Background(), 999999, Action{Status: domain.StatusApproved}, "admin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSecondDecisionConflicts(t *testing.T) {
	store := newTestStore(t)
	w := NewWorkflow(store, nil)
	pending := submitPending(t, store, "4008400301019", "Kinder Riegel")

	_, err := w.Decide(context.Background(), pending.ID, Action{Status: domain.StatusApproved}, "admin")
	require.NoError(t, err)

	_, err = w.Decide(context.Background(), pending.ID, Action{Status: domain.StatusRejected}, "second-admin")
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, domain.StatusApproved)
	require.Len(t, cerr.Candidates, 1)
}

func TestDecidePublishesEvent(t *testing.T) {
	store := newTestStore(t)
	bus := EventBus.New()
	w := NewWorkflow(store, bus)
	pending := submitPending(t, store, "4008400301019", "Kinder Riegel")

	got := make(chan DecisionEvent, 1)
	require.NoError(t, bus.Subscribe(TopicDecision, func(ev DecisionEvent) {
		got <- ev
	}))

	_, err := w.Decide(context.Background(), pending.ID, Action{Status: domain.StatusApproved}, "admin")
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, pending.ID, ev.Product.ID)
		assert.Equal(t, "admin", ev.Moderator)
		assert.Equal(t, domain.StatusApproved, ev.Product.VerificationStatus)
	case <-time.After(time.Second):
		t.Fatal("decision event never arrived")
	}
}

func TestQueueFiltersAndCounts(t *testing.T) {
	store := newTestStore(t)
	w := NewWorkflow(store, nil)

	a := submitPending(t, store, "4008400301019", "Kinder Riegel")
	submitPending(t, store, "4025500001230", "Frische Vollmilch")
	submitPending(t, store, "", "Omas Apfelkuchen")

	_, err := w.Decide(context.Background(), a.ID, Action{Status: domain.StatusApproved}, "admin")
	require.NoError(t, err)

	pending, stats, err := w.Queue(context.Background(), domain.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Pending)
	assert.EqualValues(t, 1, stats.Approved)
	assert.EqualValues(t, 0, stats.Rejected)

	all, _, err := w.Queue(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, _, err = w.Queue(context.Background(), "bogus")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestExportQueueProducesWorkbook(t *testing.T) {
	store := newTestStore(t)
	w := NewWorkflow(store, nil)
	submitPending(t, store, "4008400301019", "Kinder Riegel")

	buf, err := w.ExportQueue(context.Background(), "all")
	require.NoError(t, err)
	require.NotNil(t, buf)
	assert.Greater(t, buf.Len(), 0)
	// xlsx is a zip container
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}

func TestCellName(t *testing.T) {
	assert.Equal(t, "A1", cellName(0, 1))
	assert.Equal(t, "O2", cellName(14, 2))
	assert.Equal(t, "AA3", cellName(26, 3))
}
