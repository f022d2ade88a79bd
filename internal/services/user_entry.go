package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/repos"
	"github.com/shopfloor/measure-backend/internal/sessions"
	"github.com/shopfloor/measure-backend/internal/types"
)

// calibrationWindow is how long a completed calibration stays valid.
const calibrationWindow = 24 * time.Hour

type StartEntryResult struct {
	SessionID       string `json:"session_id"`
	Status          string `json:"status"`
	ShouldCalibrate bool   `json:"should_calibrate"`
	Message         string `json:"message"`
}

type CompleteCalibrationResult struct {
	Status     string `json:"status"`
	RollNumber string `json:"roll_number,omitempty"`
	Name       string `json:"name,omitempty"`
	Message    string `json:"message"`
}

type UserEntryUpdateInput struct {
	RollNumber *string `json:"roll_number"`
	Name       *string `json:"name"`
	Date       *string `json:"date"`
	Time       *string `json:"time"`
	LastLogin  *string `json:"last_login"`
}

type UserEntryService interface {
	StartEntry(ctx context.Context, rollNumber, name string) (*StartEntryResult, error)
	ShouldCalibrate(ctx context.Context, rollNumber string) (bool, error)
	CompleteCalibration(ctx context.Context, sessionID string) (*CompleteCalibrationResult, error)
	SessionStatus(sessionID string) (*sessions.Session, error)
	ListEntries(ctx context.Context) ([]*types.UserEntry, error)
	UpdateEntry(ctx context.Context, in UserEntryUpdateInput) error
	ClearEntries(ctx context.Context) error
}

type userEntryService struct {
	db        *gorm.DB
	log       *logger.Logger
	entryRepo repos.UserEntryRepo
	store     *sessions.Store
}

func NewUserEntryService(db *gorm.DB, baseLog *logger.Logger, entryRepo repos.UserEntryRepo, store *sessions.Store) UserEntryService {
	return &userEntryService{
		db:        db,
		log:       baseLog.With("service", "UserEntryService"),
		entryRepo: entryRepo,
		store:     store,
	}
}

// StartEntry opens a calibration session. The durable user_entry row is not
// touched here; it is written when the session completes.
func (us *userEntryService) StartEntry(ctx context.Context, rollNumber, name string) (*StartEntryResult, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	name = strings.TrimSpace(name)

	shouldCalibrate, err := us.ShouldCalibrate(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	existing, err := us.entryRepo.GetByRollNumber(ctx, nil, rollNumber)
	if err != nil {
		return nil, err
	}
	status := "new_user"
	if existing != nil {
		status = "welcome_back"
	}

	session := us.store.Create(rollNumber, name, shouldCalibrate)
	us.log.Info("Calibration session created", "roll_number", rollNumber, "status", status)

	return &StartEntryResult{
		SessionID:       session.SessionID,
		Status:          status,
		ShouldCalibrate: shouldCalibrate,
		Message:         "Session created. Complete calibration to finalize entry.",
	}, nil
}

// ShouldCalibrate is true when the roll number has no entry, the entry has
// never logged in, or the last login is outside the calibration window.
func (us *userEntryService) ShouldCalibrate(ctx context.Context, rollNumber string) (bool, error) {
	entry, err := us.entryRepo.GetByRollNumber(ctx, nil, strings.TrimSpace(rollNumber))
	if err != nil {
		return false, err
	}
	if entry == nil || entry.LastLogin == nil {
		return true, nil
	}
	return time.Since(*entry.LastLogin) > calibrationWindow, nil
}

func (us *userEntryService) CompleteCalibration(ctx context.Context, sessionID string) (*CompleteCalibrationResult, error) {
	session := us.store.Get(sessionID)
	if session == nil {
		return nil, apierr.NotFound("Session not found or expired")
	}
	if session.Status == sessions.StatusCalibrated {
		return &CompleteCalibrationResult{
			Status:  "already_completed",
			Message: "Calibration already completed",
		}, nil
	}

	now := time.Now()
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := us.entryRepo.GetByRollNumber(ctx, tx, session.RollNumber)
		if err != nil {
			return err
		}
		if entry == nil {
			entry = &types.UserEntry{
				RollNumber: session.RollNumber,
				Name:       session.Name,
			}
		}
		entry.Date = now.Format("2006-01-02")
		entry.Time = now.Format("15:04:05")
		entry.LastLogin = &now
		return us.entryRepo.Save(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	us.store.Complete(session.SessionID)
	us.log.Info("Calibration completed", "roll_number", session.RollNumber)

	return &CompleteCalibrationResult{
		Status:     "calibration_completed",
		RollNumber: session.RollNumber,
		Name:       session.Name,
		Message:    "User entry finalized successfully",
	}, nil
}

func (us *userEntryService) SessionStatus(sessionID string) (*sessions.Session, error) {
	session := us.store.Get(sessionID)
	if session == nil {
		return nil, apierr.NotFound("Session not found or expired")
	}
	return session, nil
}

func (us *userEntryService) ListEntries(ctx context.Context) ([]*types.UserEntry, error) {
	return us.entryRepo.ListAll(ctx, nil)
}

func (us *userEntryService) UpdateEntry(ctx context.Context, in UserEntryUpdateInput) error {
	if in.RollNumber == nil {
		return apierr.BadRequest("Missing field: roll_number")
	}

	entry, err := us.entryRepo.GetByRollNumber(ctx, nil, strings.TrimSpace(*in.RollNumber))
	if err != nil {
		return err
	}
	if entry == nil {
		return apierr.NotFound("Entry with given roll_number not found")
	}

	if in.Name != nil {
		entry.Name = *in.Name
	}
	if in.Date != nil {
		entry.Date = *in.Date
	}
	if in.Time != nil {
		entry.Time = *in.Time
	}
	if in.LastLogin != nil {
		lastLogin, err := parseTimestamp(*in.LastLogin)
		if err != nil {
			return apierr.BadRequest("invalid last_login: %s", *in.LastLogin)
		}
		entry.LastLogin = &lastLogin
	}
	return us.entryRepo.Save(ctx, nil, entry)
}

func (us *userEntryService) ClearEntries(ctx context.Context) error {
	return us.entryRepo.DeleteAll(ctx, nil)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apierr.BadRequest("unparseable timestamp: %s", s)
}
