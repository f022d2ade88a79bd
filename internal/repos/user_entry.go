package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/types"
)

type UserEntryRepo interface {
	GetByRollNumber(ctx context.Context, tx *gorm.DB, rollNumber string) (*types.UserEntry, error)
	Create(ctx context.Context, tx *gorm.DB, entry *types.UserEntry) error
	Save(ctx context.Context, tx *gorm.DB, entry *types.UserEntry) error
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.UserEntry, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type userEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserEntryRepo(db *gorm.DB, baseLog *logger.Logger) UserEntryRepo {
	return &userEntryRepo{db: db, log: baseLog.With("repo", "UserEntryRepo")}
}

func (r *userEntryRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetByRollNumber returns the first entry for a roll number. Roll numbers
// are not unique; the earliest row is the canonical calibration record.
func (r *userEntryRepo) GetByRollNumber(ctx context.Context, tx *gorm.DB, rollNumber string) (*types.UserEntry, error) {
	var entry types.UserEntry
	err := r.conn(tx).WithContext(ctx).
		Where("roll_number = ?", rollNumber).
		Order("id").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *userEntryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.UserEntry) error {
	return r.conn(tx).WithContext(ctx).Create(entry).Error
}

func (r *userEntryRepo) Save(ctx context.Context, tx *gorm.DB, entry *types.UserEntry) error {
	return r.conn(tx).WithContext(ctx).Save(entry).Error
}

func (r *userEntryRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.UserEntry, error) {
	results := []*types.UserEntry{}
	if err := r.conn(tx).WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userEntryRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	return r.conn(tx).WithContext(ctx).
		Where("1 = 1").
		Delete(&types.UserEntry{}).Error
}
