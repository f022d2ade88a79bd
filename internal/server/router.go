package server

import (
	"github.com/gin-gonic/gin"

	"github.com/shopfloor/measure-backend/internal/http/handlers"
	"github.com/shopfloor/measure-backend/internal/http/middleware"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log                *logger.Logger
	HealthHandler      *handlers.HealthHandler
	MeasurementHandler *handlers.MeasurementHandler
	UserEntryHandler   *handlers.UserEntryHandler
	DBAdminHandler     *handlers.DBAdminHandler
	VideoHandler       *handlers.VideoHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS())

	router.GET("/", cfg.HealthHandler.Root)
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.GET("/housing_types", cfg.VideoHandler.HousingTypes)
	router.GET("/debug/paths", cfg.VideoHandler.DebugPaths)

	// Video
	router.GET("/video/list/:category", cfg.VideoHandler.ListVideos)
	router.GET("/video/housing_types/:housing_type", cfg.VideoHandler.ListHousingTypeVideos)
	router.GET("/video/:category/:filename", cfg.VideoHandler.StreamVideo)
	router.HEAD("/video/:category/:filename", cfg.VideoHandler.StreamVideo)

	// Schema catalog + generic query engine
	db := router.Group("/db")
	{
		db.GET("/schema/tables", cfg.DBAdminHandler.ListTables)
		db.GET("/schema/tables/:table", cfg.DBAdminHandler.DescribeTable)
		db.POST("/query/select", cfg.DBAdminHandler.Select)
		db.POST("/query/update", cfg.DBAdminHandler.Update)
	}

	// Measurements
	router.GET("/shaft_measurement", cfg.MeasurementHandler.ListShafts)
	router.POST("/shaft_measurement", cfg.MeasurementHandler.AddShaft)
	router.PUT("/shaft_measurement", cfg.MeasurementHandler.UpdateShaft)
	router.DELETE("/shaft_measurement", cfg.MeasurementHandler.ClearShafts)
	router.GET("/housing_measurement", cfg.MeasurementHandler.ListHousings)
	router.POST("/housing_measurement", cfg.MeasurementHandler.AddHousing)
	router.PUT("/housing_measurement", cfg.MeasurementHandler.UpdateHousing)
	router.DELETE("/housing_measurement", cfg.MeasurementHandler.ClearHousings)
	router.GET("/product_exists", cfg.MeasurementHandler.ProductExists)
	router.GET("/measured_units/:roll_number", cfg.MeasurementHandler.MeasuredUnits)

	// User entries + calibration sessions
	router.GET("/user_entry", cfg.UserEntryHandler.ListEntries)
	router.POST("/user_entry", cfg.UserEntryHandler.StartEntry)
	router.PUT("/user_entry", cfg.UserEntryHandler.UpdateEntry)
	router.DELETE("/user_entry", cfg.UserEntryHandler.ClearEntries)
	router.GET("/user_entry/should_calibrate", cfg.UserEntryHandler.ShouldCalibrate)
	router.POST("/user_entry/complete_calibration", cfg.UserEntryHandler.CompleteCalibration)
	router.GET("/user_entry/session/:session_id", cfg.UserEntryHandler.SessionStatus)

	return router
}
