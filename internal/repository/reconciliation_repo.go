package repository

import (
	"context"
	"fmt"

	"equity-lab/internal/model"
	"equity-lab/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReconciliationRepository is the append-only store of reviewed trades, keyed
// by fingerprint. Records are never updated or deleted.
type ReconciliationRepository interface {
	Contains(ctx context.Context, fingerprint string) (bool, error)
	Append(ctx context.Context, record *model.Reconciliation, opts ...utils.DBOption) error
	List(ctx context.Context, limit int) ([]model.Reconciliation, error)
}

type reconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Contains(ctx context.Context, fingerprint string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reconciliation{}).
		Where("fingerprint = ?", fingerprint).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return count > 0, nil
}

// Append inserts the record, silently keeping the existing row when another
// run already wrote the same fingerprint.
func (r *reconciliationRepository) Append(ctx context.Context, record *model.Reconciliation, opts ...utils.DBOption) error {
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoNothing: true,
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to append reconciliation record: %w", err)
	}
	return nil
}

func (r *reconciliationRepository) List(ctx context.Context, limit int) ([]model.Reconciliation, error) {
	var records []model.Reconciliation
	q := r.db.WithContext(ctx).Order("executed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list reconciliation records: %w", err)
	}
	return records, nil
}
