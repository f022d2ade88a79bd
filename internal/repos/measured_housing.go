package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/types"
)

type MeasuredHousingRepo interface {
	GetByProductID(ctx context.Context, tx *gorm.DB, productID string) (*types.MeasuredHousing, error)
	Create(ctx context.Context, tx *gorm.DB, housing *types.MeasuredHousing) error
	Save(ctx context.Context, tx *gorm.DB, housing *types.MeasuredHousing) error
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.MeasuredHousing, error)
	ListByRollNumber(ctx context.Context, tx *gorm.DB, rollNumber string) ([]*types.MeasuredHousing, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type measuredHousingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasuredHousingRepo(db *gorm.DB, baseLog *logger.Logger) MeasuredHousingRepo {
	return &measuredHousingRepo{db: db, log: baseLog.With("repo", "MeasuredHousingRepo")}
}

func (r *measuredHousingRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *measuredHousingRepo) GetByProductID(ctx context.Context, tx *gorm.DB, productID string) (*types.MeasuredHousing, error) {
	var housing types.MeasuredHousing
	err := r.conn(tx).WithContext(ctx).
		Where("product_id = ?", productID).
		First(&housing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &housing, nil
}

func (r *measuredHousingRepo) Create(ctx context.Context, tx *gorm.DB, housing *types.MeasuredHousing) error {
	return r.conn(tx).WithContext(ctx).Create(housing).Error
}

func (r *measuredHousingRepo) Save(ctx context.Context, tx *gorm.DB, housing *types.MeasuredHousing) error {
	return r.conn(tx).WithContext(ctx).Save(housing).Error
}

func (r *measuredHousingRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.MeasuredHousing, error) {
	results := []*types.MeasuredHousing{}
	if err := r.conn(tx).WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measuredHousingRepo) ListByRollNumber(ctx context.Context, tx *gorm.DB, rollNumber string) ([]*types.MeasuredHousing, error) {
	results := []*types.MeasuredHousing{}
	if err := r.conn(tx).WithContext(ctx).
		Where("roll_number = ?", rollNumber).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measuredHousingRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	return r.conn(tx).WithContext(ctx).
		Where("1 = 1").
		Delete(&types.MeasuredHousing{}).Error
}
