package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/types"
)

type MeasuredShaftRepo interface {
	GetByProductID(ctx context.Context, tx *gorm.DB, productID string) (*types.MeasuredShaft, error)
	Create(ctx context.Context, tx *gorm.DB, shaft *types.MeasuredShaft) error
	Save(ctx context.Context, tx *gorm.DB, shaft *types.MeasuredShaft) error
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.MeasuredShaft, error)
	ListByRollNumber(ctx context.Context, tx *gorm.DB, rollNumber string) ([]*types.MeasuredShaft, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type measuredShaftRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasuredShaftRepo(db *gorm.DB, baseLog *logger.Logger) MeasuredShaftRepo {
	return &measuredShaftRepo{db: db, log: baseLog.With("repo", "MeasuredShaftRepo")}
}

func (r *measuredShaftRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *measuredShaftRepo) GetByProductID(ctx context.Context, tx *gorm.DB, productID string) (*types.MeasuredShaft, error) {
	var shaft types.MeasuredShaft
	err := r.conn(tx).WithContext(ctx).
		Where("product_id = ?", productID).
		First(&shaft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shaft, nil
}

func (r *measuredShaftRepo) Create(ctx context.Context, tx *gorm.DB, shaft *types.MeasuredShaft) error {
	return r.conn(tx).WithContext(ctx).Create(shaft).Error
}

func (r *measuredShaftRepo) Save(ctx context.Context, tx *gorm.DB, shaft *types.MeasuredShaft) error {
	return r.conn(tx).WithContext(ctx).Save(shaft).Error
}

func (r *measuredShaftRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.MeasuredShaft, error) {
	results := []*types.MeasuredShaft{}
	if err := r.conn(tx).WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measuredShaftRepo) ListByRollNumber(ctx context.Context, tx *gorm.DB, rollNumber string) ([]*types.MeasuredShaft, error) {
	results := []*types.MeasuredShaft{}
	if err := r.conn(tx).WithContext(ctx).
		Where("roll_number = ?", rollNumber).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measuredShaftRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	return r.conn(tx).WithContext(ctx).
		Where("1 = 1").
		Delete(&types.MeasuredShaft{}).Error
}
