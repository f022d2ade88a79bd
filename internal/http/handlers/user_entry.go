package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfloor/measure-backend/internal/http/response"
	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/services"
)

type UserEntryHandler struct {
	userEntryService services.UserEntryService
	debug            bool
}

func NewUserEntryHandler(userEntryService services.UserEntryService, debug bool) *UserEntryHandler {
	return &UserEntryHandler{userEntryService: userEntryService, debug: debug}
}

// GET /user_entry
func (uh *UserEntryHandler) ListEntries(c *gin.Context) {
	entries, err := uh.userEntryService.ListEntries(c.Request.Context())
	if err != nil {
		response.Fail(c, err, uh.debug)
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "no records found", "data": entries})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": entries})
}

// POST /user_entry — opens a calibration session, writes nothing durable.
func (uh *UserEntryHandler) StartEntry(c *gin.Context) {
	var req struct {
		RollNumber *string `json:"roll_number"`
		Name       *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), uh.debug)
		return
	}
	if req.RollNumber == nil {
		response.Fail(c, apierr.BadRequest("Missing field: roll_number"), uh.debug)
		return
	}
	if req.Name == nil {
		response.Fail(c, apierr.BadRequest("Missing field: name"), uh.debug)
		return
	}
	result, err := uh.userEntryService.StartEntry(c.Request.Context(), *req.RollNumber, *req.Name)
	if err != nil {
		response.Fail(c, err, uh.debug)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /user_entry/should_calibrate?roll_number=
func (uh *UserEntryHandler) ShouldCalibrate(c *gin.Context) {
	rollNumber := c.Query("roll_number")
	if rollNumber == "" {
		response.Fail(c, apierr.BadRequest("Missing field: roll_number"), uh.debug)
		return
	}
	shouldCalibrate, err := uh.userEntryService.ShouldCalibrate(c.Request.Context(), rollNumber)
	if err != nil {
		response.Fail(c, err, uh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"should_calibrate": shouldCalibrate})
}

// POST /user_entry/complete_calibration
func (uh *UserEntryHandler) CompleteCalibration(c *gin.Context) {
	var req struct {
		SessionID *string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), uh.debug)
		return
	}
	if req.SessionID == nil {
		response.Fail(c, apierr.BadRequest("Missing session_id"), uh.debug)
		return
	}
	result, err := uh.userEntryService.CompleteCalibration(c.Request.Context(), *req.SessionID)
	if err != nil {
		response.Fail(c, err, uh.debug)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /user_entry/session/:session_id
func (uh *UserEntryHandler) SessionStatus(c *gin.Context) {
	session, err := uh.userEntryService.SessionStatus(c.Param("session_id"))
	if err != nil {
		response.Fail(c, err, uh.debug)
		return
	}
	c.JSON(http.StatusOK, session)
}

// PUT /user_entry
func (uh *UserEntryHandler) UpdateEntry(c *gin.Context) {
	var in services.UserEntryUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), uh.debug)
		return
	}
	if err := uh.userEntryService.UpdateEntry(c.Request.Context(), in); err != nil {
		response.Fail(c, err, uh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "entry updated"})
}

// DELETE /user_entry
func (uh *UserEntryHandler) ClearEntries(c *gin.Context) {
	if err := uh.userEntryService.ClearEntries(c.Request.Context()); err != nil {
		response.Fail(c, err, uh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "user_entry CSV deleted"})
}
