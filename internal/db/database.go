package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/shopfloor/measure-backend/internal/platform/envutil"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/types"
)

// DatabaseService owns the GORM handle. DATABASE_URL selects the dialect:
// a postgres:// / postgresql:// DSN opens postgres, anything else is treated
// as a sqlite file path (defaulting to local_test.db for dev setups).
type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDatabaseService(logg *logger.Logger) (*DatabaseService, error) {
	serviceLog := logg.With("service", "DatabaseService")

	databaseURL := envutil.Str("DATABASE_URL", "local_test.db")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	}

	var (
		conn *gorm.DB
		err  error
	)
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		serviceLog.Info("Connecting to postgres")
		conn, err = gorm.Open(postgres.Open(databaseURL), cfg)
	} else {
		serviceLog.Info("Opening sqlite database", "path", databaseURL)
		conn, err = gorm.Open(sqlite.Open(databaseURL), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DatabaseService{db: conn, log: serviceLog}, nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

// AutoMigrateAll creates the measurement tables and applies the idempotent
// additive column changes older deployments may be missing. Migrations never
// drop or rewrite existing columns.
func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating measurement tables")
	if err := s.db.AutoMigrate(
		&types.UserEntry{},
		&types.MeasuredShaft{},
		&types.MeasuredHousing{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}

	migrator := s.db.Migrator()
	additive := []struct {
		model  interface{}
		column string
	}{
		{&types.MeasuredShaft{}, "shaft_height"},
		{&types.MeasuredShaft{}, "shaft_radius"},
		{&types.MeasuredHousing{}, "housing_type"},
		{&types.MeasuredHousing{}, "housing_height"},
		{&types.MeasuredHousing{}, "housing_depth"},
	}
	for _, a := range additive {
		if migrator.HasColumn(a.model, a.column) {
			continue
		}
		s.log.Info("Adding missing column", "column", a.column)
		if err := migrator.AddColumn(a.model, a.column); err != nil {
			return fmt.Errorf("failed to add column %s: %w", a.column, err)
		}
	}
	return nil
}
