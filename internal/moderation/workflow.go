package moderation

import (
	"context"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/kalorio/kalorio/internal/community"
	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/pkg/metrics"
)

// TopicDecision is published on every accepted moderation decision.
const TopicDecision = "moderation:decided"

// DecisionEvent is the payload of TopicDecision.
type DecisionEvent struct {
	Product   domain.FoodProduct
	Moderator string
}

// Action is one moderator decision. Approved and rejected are both terminal;
// is_verified is only meaningful together with approved.
type Action struct {
	Status         string `json:"status"`
	ModeratorNotes string `json:"moderator_notes"`
	IsVerified     bool   `json:"is_verified"`
}

// Workflow drives the pending -> approved/rejected state machine.
type Workflow struct {
	store *community.Store
	bus   EventBus.Bus
}

func NewWorkflow(store *community.Store, bus EventBus.Bus) *Workflow {
	return &Workflow{store: store, bus: bus}
}

// Decide applies a single moderator action. A decision against an already
// decided row is a conflict, never a silent overwrite: the status guard sits
// in the UPDATE itself, so two racing moderators cannot both win.
func (w *Workflow) Decide(ctx context.Context, id int64, action Action, moderator string) (*domain.FoodProduct, error) {
	if action.Status != domain.StatusApproved && action.Status != domain.StatusRejected {
		return nil, &ValidationError{Message: "status must be approved or rejected"}
	}
	if action.IsVerified && action.Status != domain.StatusApproved {
		return nil, &ValidationError{Message: "is_verified requires status approved"}
	}

	affected, err := w.store.UpdateModeration(ctx, id, action.Status, action.ModeratorNotes, action.IsVerified)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		row, gerr := w.store.GetByID(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if row == nil {
			return nil, ErrNotFound
		}
		return nil, &ConflictError{
			Message:    "product already " + row.VerificationStatus,
			Candidates: []*domain.Product{row.ToProduct()},
		}
	}

	row, err := w.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch action.Status {
	case domain.StatusApproved:
		metrics.Inc(metrics.ModerationApproved)
	case domain.StatusRejected:
		metrics.Inc(metrics.ModerationRejected)
	}
	if w.bus != nil && row != nil {
		w.bus.Publish(TopicDecision, DecisionEvent{Product: *row, Moderator: moderator})
	}
	zap.L().Info("moderation decision applied",
		zap.Int64("product_id", id),
		zap.String("status", action.Status),
		zap.String("moderator", moderator))
	return row, nil
}

// Queue lists rows for the moderation view plus queue statistics.
// Status may be pending, approved, rejected or all.
func (w *Workflow) Queue(ctx context.Context, status string) ([]domain.FoodProduct, community.Stats, error) {
	switch status {
	case "", "all", domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		return nil, community.Stats{}, &ValidationError{Message: "unknown status filter: " + status}
	}
	rows, err := w.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, community.Stats{}, err
	}
	stats, err := w.store.CountByStatus(ctx)
	if err != nil {
		return nil, community.Stats{}, err
	}
	return rows, stats, nil
}
