package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/velotrack/rides-backend-go/internal/engine"
	"github.com/velotrack/rides-backend-go/internal/location"
	"github.com/velotrack/rides-backend-go/internal/models"
	"github.com/velotrack/rides-backend-go/pkg/response"
)

// RecorderHandler exposes the recording engine's actions and fix ingest
type RecorderHandler struct {
	recorder *engine.Recorder
	source   *location.PushSource
}

// NewRecorderHandler creates a new recorder handler
func NewRecorderHandler(recorder *engine.Recorder, source *location.PushSource) *RecorderHandler {
	return &RecorderHandler{recorder: recorder, source: source}
}

// Start handles POST /api/v1/recorder/start
func (h *RecorderHandler) Start(c *gin.Context) {
	snapshot, err := h.recorder.StartRide(c.Request.Context())
	if err != nil {
		h.actionError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// Pause handles POST /api/v1/recorder/pause
func (h *RecorderHandler) Pause(c *gin.Context) {
	snapshot, err := h.recorder.PauseRide(c.Request.Context())
	if err != nil {
		h.actionError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// Resume handles POST /api/v1/recorder/resume
func (h *RecorderHandler) Resume(c *gin.Context) {
	snapshot, err := h.recorder.ResumeRide(c.Request.Context())
	if err != nil {
		h.actionError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// Stop handles POST /api/v1/recorder/stop. The outcome is a typed result:
// SUCCESS leaves the ride pending save/discard, TOO_SHORT means it was
// auto-discarded, RIDE_NOT_FOUND means storage never knew the ride.
func (h *RecorderHandler) Stop(c *gin.Context) {
	result, err := h.recorder.StopRide(c.Request.Context())
	if err != nil {
		h.actionError(c, err)
		return
	}
	response.Success(c, result)
}

// Save handles POST /api/v1/recorder/save
func (h *RecorderHandler) Save(c *gin.Context) {
	snapshot, err := h.recorder.SaveRide(c.Request.Context())
	if err != nil {
		h.actionError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// Discard handles POST /api/v1/recorder/discard
func (h *RecorderHandler) Discard(c *gin.Context) {
	snapshot, err := h.recorder.DiscardRide(c.Request.Context())
	if err != nil {
		h.actionError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// State handles GET /api/v1/recorder/state
func (h *RecorderHandler) State(c *gin.Context) {
	snapshot, err := h.recorder.Snapshot(c.Request.Context())
	if err != nil {
		h.actionError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// IngestFixes handles POST /api/v1/recorder/fixes: one fix or a batch from
// the device, pushed into the engine's location source.
func (h *RecorderHandler) IngestFixes(c *gin.Context) {
	var fixes []models.LocationFix
	if err := c.ShouldBindBodyWith(&fixes, binding.JSON); err != nil {
		// Allow a single fix object as well as an array.
		var single models.LocationFix
		if err := c.ShouldBindBodyWith(&single, binding.JSON); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid fix payload", err)
			return
		}
		fixes = []models.LocationFix{single}
	}

	accepted := 0
	for _, fix := range fixes {
		if h.source.Publish(fix) {
			accepted++
		}
	}
	response.Success(c, gin.H{"received": len(fixes), "queued": accepted})
}

func (h *RecorderHandler) actionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "Action not valid in current state", err)
	case errors.Is(err, engine.ErrNotRunning):
		response.Error(c, http.StatusServiceUnavailable, "Recorder not running", err)
	default:
		response.Error(c, http.StatusInternalServerError, "Recorder action failed", err)
	}
}
