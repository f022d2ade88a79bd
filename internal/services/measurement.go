package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/repos"
	"github.com/shopfloor/measure-backend/internal/types"
)

const (
	VariantShaft   = "shaft"
	VariantHousing = "housing"
)

// ShaftMeasurementInput doubles as the POST and PUT body. Pointer fields
// distinguish "absent" from zero so required-field checks and partial
// updates share one shape.
type ShaftMeasurementInput struct {
	ProductID   *string  `json:"product_id"`
	RollNumber  *string  `json:"roll_number"`
	ShaftHeight *float64 `json:"shaft_height"`
	ShaftRadius *float64 `json:"shaft_radius"`
}

type HousingMeasurementInput struct {
	ProductID     *string  `json:"product_id"`
	RollNumber    *string  `json:"roll_number"`
	HousingType   *string  `json:"housing_type"`
	HousingHeight *float64 `json:"housing_height"`
	HousingRadius *float64 `json:"housing_radius"`
	HousingDepth  *float64 `json:"housing_depth"`
}

type MeasurementService interface {
	Exists(ctx context.Context, productID, variant string) (bool, error)
	InsertShaft(ctx context.Context, in ShaftMeasurementInput) (*types.MeasuredShaft, error)
	UpdateShaft(ctx context.Context, in ShaftMeasurementInput) (*types.MeasuredShaft, error)
	ListShafts(ctx context.Context) ([]*types.MeasuredShaft, error)
	ClearShafts(ctx context.Context) error
	InsertHousing(ctx context.Context, in HousingMeasurementInput) (*types.MeasuredHousing, error)
	UpdateHousing(ctx context.Context, in HousingMeasurementInput) (*types.MeasuredHousing, error)
	ListHousings(ctx context.Context) ([]*types.MeasuredHousing, error)
	ClearHousings(ctx context.Context) error
	AggregateByRollNumber(ctx context.Context, rollNumber string) ([]*types.MeasuredShaft, []*types.MeasuredHousing, error)
}

type measurementService struct {
	db          *gorm.DB
	log         *logger.Logger
	shaftRepo   repos.MeasuredShaftRepo
	housingRepo repos.MeasuredHousingRepo
}

func NewMeasurementService(db *gorm.DB, baseLog *logger.Logger, shaftRepo repos.MeasuredShaftRepo, housingRepo repos.MeasuredHousingRepo) MeasurementService {
	return &measurementService{
		db:          db,
		log:         baseLog.With("service", "MeasurementService"),
		shaftRepo:   shaftRepo,
		housingRepo: housingRepo,
	}
}

func (ms *measurementService) Exists(ctx context.Context, productID, variant string) (bool, error) {
	productID = strings.TrimSpace(productID)
	switch variant {
	case VariantShaft:
		shaft, err := ms.shaftRepo.GetByProductID(ctx, nil, productID)
		if err != nil {
			return false, err
		}
		return shaft != nil, nil
	case VariantHousing:
		housing, err := ms.housingRepo.GetByProductID(ctx, nil, productID)
		if err != nil {
			return false, err
		}
		return housing != nil, nil
	default:
		return false, apierr.BadRequest("measurement_type must be 'shaft' or 'housing'")
	}
}

func (ms *measurementService) InsertShaft(ctx context.Context, in ShaftMeasurementInput) (*types.MeasuredShaft, error) {
	if err := requireFields(map[string]bool{
		"product_id":   in.ProductID != nil,
		"roll_number":  in.RollNumber != nil,
		"shaft_height": in.ShaftHeight != nil,
		"shaft_radius": in.ShaftRadius != nil,
	}, "product_id", "roll_number", "shaft_height", "shaft_radius"); err != nil {
		return nil, err
	}

	productID := strings.TrimSpace(*in.ProductID)
	existing, err := ms.shaftRepo.GetByProductID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.Conflict("product_id already exists for shaft measurements")
	}

	shaft := &types.MeasuredShaft{
		ProductID:   productID,
		RollNumber:  *in.RollNumber,
		ShaftHeight: *in.ShaftHeight,
		ShaftRadius: *in.ShaftRadius,
		Timestamp:   time.Now(),
	}
	if err := ms.shaftRepo.Create(ctx, nil, shaft); err != nil {
		// Unique constraint is the backstop for a concurrent duplicate that
		// slips past the existence check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict("product_id already exists for shaft measurements")
		}
		return nil, err
	}
	ms.log.Info("Shaft measurement added", "product_id", productID)
	return shaft, nil
}

func (ms *measurementService) UpdateShaft(ctx context.Context, in ShaftMeasurementInput) (*types.MeasuredShaft, error) {
	if in.ProductID == nil {
		return nil, apierr.BadRequest("Missing field: product_id")
	}

	shaft, err := ms.shaftRepo.GetByProductID(ctx, nil, strings.TrimSpace(*in.ProductID))
	if err != nil {
		return nil, err
	}
	if shaft == nil {
		return nil, apierr.NotFound("Entry not found")
	}

	if in.RollNumber != nil {
		shaft.RollNumber = *in.RollNumber
	}
	if in.ShaftHeight != nil {
		shaft.ShaftHeight = *in.ShaftHeight
	}
	if in.ShaftRadius != nil {
		shaft.ShaftRadius = *in.ShaftRadius
	}
	shaft.Timestamp = time.Now()

	if err := ms.shaftRepo.Save(ctx, nil, shaft); err != nil {
		return nil, err
	}
	return shaft, nil
}

func (ms *measurementService) ListShafts(ctx context.Context) ([]*types.MeasuredShaft, error) {
	return ms.shaftRepo.ListAll(ctx, nil)
}

func (ms *measurementService) ClearShafts(ctx context.Context) error {
	return ms.shaftRepo.DeleteAll(ctx, nil)
}

func (ms *measurementService) InsertHousing(ctx context.Context, in HousingMeasurementInput) (*types.MeasuredHousing, error) {
	if err := requireFields(map[string]bool{
		"product_id":     in.ProductID != nil,
		"roll_number":    in.RollNumber != nil,
		"housing_type":   in.HousingType != nil,
		"housing_height": in.HousingHeight != nil,
		"housing_radius": in.HousingRadius != nil,
	}, "product_id", "roll_number", "housing_type", "housing_height", "housing_radius"); err != nil {
		return nil, err
	}
	if !types.ValidHousingType(*in.HousingType) {
		return nil, apierr.BadRequest("Invalid housing type")
	}

	productID := strings.TrimSpace(*in.ProductID)
	existing, err := ms.housingRepo.GetByProductID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.Conflict("product_id already exists for housing measurements")
	}

	housing := &types.MeasuredHousing{
		ProductID:     productID,
		RollNumber:    *in.RollNumber,
		HousingType:   *in.HousingType,
		HousingHeight: *in.HousingHeight,
		HousingRadius: *in.HousingRadius,
		HousingDepth:  in.HousingDepth,
		Timestamp:     time.Now(),
	}
	if err := ms.housingRepo.Create(ctx, nil, housing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict("product_id already exists for housing measurements")
		}
		return nil, err
	}
	ms.log.Info("Housing measurement added", "product_id", productID)
	return housing, nil
}

func (ms *measurementService) UpdateHousing(ctx context.Context, in HousingMeasurementInput) (*types.MeasuredHousing, error) {
	if in.ProductID == nil {
		return nil, apierr.BadRequest("Missing field: product_id")
	}
	if in.HousingType != nil && !types.ValidHousingType(*in.HousingType) {
		return nil, apierr.BadRequest("Invalid housing type")
	}

	housing, err := ms.housingRepo.GetByProductID(ctx, nil, strings.TrimSpace(*in.ProductID))
	if err != nil {
		return nil, err
	}
	if housing == nil {
		return nil, apierr.NotFound("Entry not found")
	}

	if in.RollNumber != nil {
		housing.RollNumber = *in.RollNumber
	}
	if in.HousingType != nil {
		housing.HousingType = *in.HousingType
	}
	if in.HousingHeight != nil {
		housing.HousingHeight = *in.HousingHeight
	}
	if in.HousingRadius != nil {
		housing.HousingRadius = *in.HousingRadius
	}
	if in.HousingDepth != nil {
		housing.HousingDepth = in.HousingDepth
	}
	housing.Timestamp = time.Now()

	if err := ms.housingRepo.Save(ctx, nil, housing); err != nil {
		return nil, err
	}
	return housing, nil
}

func (ms *measurementService) ListHousings(ctx context.Context) ([]*types.MeasuredHousing, error) {
	return ms.housingRepo.ListAll(ctx, nil)
}

func (ms *measurementService) ClearHousings(ctx context.Context) error {
	return ms.housingRepo.DeleteAll(ctx, nil)
}

func (ms *measurementService) AggregateByRollNumber(ctx context.Context, rollNumber string) ([]*types.MeasuredShaft, []*types.MeasuredHousing, error) {
	shafts, err := ms.shaftRepo.ListByRollNumber(ctx, nil, rollNumber)
	if err != nil {
		return nil, nil, err
	}
	housings, err := ms.housingRepo.ListByRollNumber(ctx, nil, rollNumber)
	if err != nil {
		return nil, nil, err
	}
	return shafts, housings, nil
}

// requireFields reports the first missing field in declaration order, so the
// error clients see is stable.
func requireFields(present map[string]bool, order ...string) error {
	for _, field := range order {
		if !present[field] {
			return apierr.BadRequest("Missing field: %s", field)
		}
	}
	return nil
}
