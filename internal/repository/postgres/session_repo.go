package postgres

import (
	"context"
	"time"

	"github.com/dom/members-only/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Find(ctx context.Context, token string) (*domain.SessionRecord, error) {
	var record domain.SessionRecord
	err := r.db.WithContext(ctx).First(&record, "token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *sessionRepository) Commit(ctx context.Context, record *domain.SessionRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "expiry"}),
		}).
		Create(record).Error
}

func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&domain.SessionRecord{}, "token = ?", token).Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.SessionRecord{}, "expiry <= ?", now)
	return res.RowsAffected, res.Error
}
