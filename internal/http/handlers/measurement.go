package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfloor/measure-backend/internal/http/response"
	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/services"
)

type MeasurementHandler struct {
	measurementService services.MeasurementService
	debug              bool
}

func NewMeasurementHandler(measurementService services.MeasurementService, debug bool) *MeasurementHandler {
	return &MeasurementHandler{measurementService: measurementService, debug: debug}
}

// GET /shaft_measurement
func (mh *MeasurementHandler) ListShafts(c *gin.Context) {
	shafts, err := mh.measurementService.ListShafts(c.Request.Context())
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": shafts})
}

// POST /shaft_measurement
func (mh *MeasurementHandler) AddShaft(c *gin.Context) {
	var in services.ShaftMeasurementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), mh.debug)
		return
	}
	shaft, err := mh.measurementService.InsertShaft(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "shaft measurement added",
		"product_id": shaft.ProductID,
		"timestamp":  shaft.Timestamp,
	})
}

// PUT /shaft_measurement
func (mh *MeasurementHandler) UpdateShaft(c *gin.Context) {
	var in services.ShaftMeasurementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), mh.debug)
		return
	}
	shaft, err := mh.measurementService.UpdateShaft(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "shaft measurement updated",
		"product_id": shaft.ProductID,
		"timestamp":  shaft.Timestamp,
	})
}

// DELETE /shaft_measurement
func (mh *MeasurementHandler) ClearShafts(c *gin.Context) {
	if err := mh.measurementService.ClearShafts(c.Request.Context()); err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	// Legacy status string; dashboard clients match on it.
	c.JSON(http.StatusOK, gin.H{"status": "measured_shafts CSV deleted"})
}

// GET /housing_measurement
func (mh *MeasurementHandler) ListHousings(c *gin.Context) {
	housings, err := mh.measurementService.ListHousings(c.Request.Context())
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": housings})
}

// POST /housing_measurement
func (mh *MeasurementHandler) AddHousing(c *gin.Context) {
	var in services.HousingMeasurementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), mh.debug)
		return
	}
	housing, err := mh.measurementService.InsertHousing(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "housing measurement added",
		"product_id": housing.ProductID,
		"timestamp":  housing.Timestamp,
	})
}

// PUT /housing_measurement
func (mh *MeasurementHandler) UpdateHousing(c *gin.Context) {
	var in services.HousingMeasurementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), mh.debug)
		return
	}
	housing, err := mh.measurementService.UpdateHousing(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "housing measurement updated",
		"product_id": housing.ProductID,
		"timestamp":  housing.Timestamp,
	})
}

// DELETE /housing_measurement
func (mh *MeasurementHandler) ClearHousings(c *gin.Context) {
	if err := mh.measurementService.ClearHousings(c.Request.Context()); err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "measured_housings CSV deleted"})
}

// GET /product_exists?product_id=&measurement_type=
func (mh *MeasurementHandler) ProductExists(c *gin.Context) {
	productID := c.Query("product_id")
	measurementType := c.Query("measurement_type")
	if productID == "" {
		response.Fail(c, apierr.BadRequest("Missing field: product_id"), mh.debug)
		return
	}
	if measurementType != services.VariantShaft && measurementType != services.VariantHousing {
		response.Fail(c, apierr.BadRequest("measurement_type must be 'shaft' or 'housing'"), mh.debug)
		return
	}
	exists, err := mh.measurementService.Exists(c.Request.Context(), productID, measurementType)
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"measurement_type": measurementType,
		"product_id":       productID,
		"exists":           exists,
	})
}

// GET /measured_units/:roll_number
func (mh *MeasurementHandler) MeasuredUnits(c *gin.Context) {
	rollNumber := c.Param("roll_number")
	shafts, housings, err := mh.measurementService.AggregateByRollNumber(c.Request.Context(), rollNumber)
	if err != nil {
		response.Fail(c, err, mh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":               "success",
		"roll_number":          rollNumber,
		"shaft_measurements":   shafts,
		"housing_measurements": housings,
	})
}
