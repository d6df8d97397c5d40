package community

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kalorio/kalorio/internal/domain"
)

// ErrDuplicateBarcode signals a unique-index violation on insert. The index
// is the authoritative de-dup boundary; callers may pre-check for better
// error payloads but must handle this regardless.
var ErrDuplicateBarcode = errors.New("community: barcode already exists")

// Stats summarizes the moderation queue.
type Stats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// Store is the access layer over persisted community and imported products.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ApprovedByBarcode returns the row only when it is visible to ordinary
// lookups: approved, or an auto-approved external import. A miss is
// (nil, nil).
func (s *Store) ApprovedByBarcode(ctx context.Context, code string) (*domain.FoodProduct, error) {
	var row domain.FoodProduct
	err := s.db.WithContext(ctx).
		Where("barcode = ?", code).
		Where("verification_status = ? OR source = ?", domain.StatusApproved, domain.SourceExternalImport).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "community lookup failed")
	}
	return &row, nil
}

// FindByBarcode returns the row regardless of moderation status.
func (s *Store) FindByBarcode(ctx context.Context, code string) (*domain.FoodProduct, error) {
	var row domain.FoodProduct
	err := s.db.WithContext(ctx).Where("barcode = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "community lookup failed")
	}
	return &row, nil
}

// FindByNameBrand returns rows matching the (name, brand) pair case
// insensitively.
func (s *Store) FindByNameBrand(ctx context.Context, name, brand string) ([]domain.FoodProduct, error) {
	var rows []domain.FoodProduct
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = ? AND LOWER(brand) = ?",
			strings.ToLower(strings.TrimSpace(name)),
			strings.ToLower(strings.TrimSpace(brand))).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "community lookup failed")
	}
	return rows, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.FoodProduct, error) {
	var row domain.FoodProduct
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "community lookup failed")
	}
	return &row, nil
}

// InsertSubmission creates a pending community row. A barcode collision
// anywhere in the table surfaces as ErrDuplicateBarcode.
func (s *Store) InsertSubmission(ctx context.Context, p *domain.Product, submitterID string) (*domain.FoodProduct, error) {
	row := domain.NewFoodProduct(p)
	row.Source = domain.SourceCommunity
	row.VerificationStatus = domain.StatusPending
	row.CreatedBy = submitterID

	err := s.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateBarcode
	}
	if err != nil {
		return nil, errors.Wrap(err, "community insert failed")
	}
	return row, nil
}

// InsertImported persists a normalized external hit as an auto-approved
// import. Idempotent under concurrent duplicate calls: the conflicting
// insert is silently ignored. Returns whether a new row was created.
func (s *Store) InsertImported(ctx context.Context, p *domain.Product) (bool, error) {
	row := domain.NewFoodProduct(p)
	row.Source = domain.SourceExternalImport
	row.VerificationStatus = domain.StatusApproved
	row.CreatedBy = domain.CreatedBySystemImport

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "barcode"}},
			// the unique index on barcode is partial, so the conflict
			// target must repeat its predicate to be inferred
			TargetWhere: clause.Where{Exprs: []clause.Expression{gorm.Expr("barcode <> ''")}},
			DoNothing:   true,
		}).
		Create(row)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "import insert failed")
	}
	return res.RowsAffected > 0, nil
}

// ListByStatus returns rows for the moderation queue, newest first.
// Status "all" (or empty) lists everything.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]domain.FoodProduct, error) {
	q := s.db.WithContext(ctx).Model(&domain.FoodProduct{})
	if status != "" && status != "all" {
		q = q.Where("verification_status = ?", status)
	}
	var rows []domain.FoodProduct
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "community list failed")
	}
	return rows, nil
}

func (s *Store) CountByStatus(ctx context.Context) (Stats, error) {
	var stats Stats
	type bucket struct {
		VerificationStatus string
		N                  int64
	}
	var buckets []bucket
	err := s.db.WithContext(ctx).Model(&domain.FoodProduct{}).
		Select("verification_status, count(*) as n").
		Group("verification_status").
		Scan(&buckets).Error
	if err != nil {
		return stats, errors.Wrap(err, "community count failed")
	}
	for _, b := range buckets {
		stats.Total += b.N
		switch b.VerificationStatus {
		case domain.StatusPending:
			stats.Pending = b.N
		case domain.StatusApproved:
			stats.Approved = b.N
		case domain.StatusRejected:
			stats.Rejected = b.N
		}
	}
	return stats, nil
}

// UpdateModeration applies a moderation decision to a still-pending row.
// The status guard in the WHERE clause makes a second decision against an
// already-decided row a no-op; callers treat zero affected rows as a
// conflict.
func (s *Store) UpdateModeration(ctx context.Context, id int64, status, notes string, verified bool) (int64, error) {
	res := s.db.WithContext(ctx).Model(&domain.FoodProduct{}).
		Where("id = ? AND verification_status = ?", id, domain.StatusPending).
		Updates(map[string]interface{}{
			"verification_status": status,
			"moderator_notes":     notes,
			"is_verified":         verified,
		})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "moderation update failed")
	}
	return res.RowsAffected, nil
}

// SearchVisible returns approved/imported rows whose name or brand contains
// the query, for merging behind the curated search ranking.
func (s *Store) SearchVisible(ctx context.Context, query string, limit int) ([]domain.FoodProduct, error) {
	q := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	if limit <= 0 {
		limit = 50
	}
	var rows []domain.FoodProduct
	err := s.db.WithContext(ctx).
		Where("verification_status = ? OR source = ?", domain.StatusApproved, domain.SourceExternalImport).
		Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", q, q).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "community search failed")
	}
	return rows, nil
}
