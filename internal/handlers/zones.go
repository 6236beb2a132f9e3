package handlers

import (
	"errors"
	"net/http"
	"strings"

	"sprinkler_client/internal/models"
	"sprinkler_client/internal/override"
	"sprinkler_client/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusRefreshed = "refreshed"

	errZoneNotReady    = "zone not ready"
	errInternal        = "internal error"
	errLoadSchedule    = "failed to load schedule"
	errInvalidBodyPref = "invalid body: "
	errMissingZoneID   = "missing zone id"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusFor maps service errors to HTTP codes and operator-facing messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, override.ErrInvalidDuration):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrZoneNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrZoneNotReady):
		return http.StatusConflict, errZoneNotReady
	case errors.Is(err, override.ErrRequestInProgress),
		errors.Is(err, override.ErrInvalidTransition),
		errors.Is(err, service.ErrSuperseded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrReadinessCheckFailed):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, service.ErrCommandRejected),
		errors.Is(err, service.ErrSyncFailure):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// writeServiceError answers with the mapped status. Only unexpected errors
// are logged at error level; the rest are routine operator outcomes.
func (h *Handler) writeServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logAndJSONError(c, code, msg, logKey, err, kv...)
		return
	}
	if h.log != nil {
		h.log.Infow(logKey, append([]interface{}{"err", err, "code", code}, kv...)...)
	}
	c.JSON(code, gin.H{"error": msg})
}

func zoneParam(c *gin.Context) (models.ZoneID, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingZoneID})
		return "", false
	}
	return models.ZoneID(id), true
}

// Request DTOs.
type durationRequest struct {
	Minutes *int `json:"minutes" binding:"required"`
}

type overrideRequest struct {
	On *bool `json:"on" binding:"required"`
}

// SetDurationRequest is an exported model for Swagger docs of the duration payload.
type SetDurationRequest struct {
	// Override length in minutes, 1..60. Zero clears the request.
	Minutes int `json:"minutes" example:"10"`
}

// ToggleOverrideRequest is an exported model for Swagger docs of the override payload.
type ToggleOverrideRequest struct {
	// true arms the manual override, false disarms it
	On bool `json:"on" example:"true"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List zones
// @Tags         zones
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, zones"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/zones [get]
// @Security     BearerAuth
func (h *Handler) listZones(c *gin.Context) {
	zones := h.services.Zones.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count": len(zones),
		"zones": zones,
	})
}

// @Summary      Get zone
// @Tags         zones
// @Produce      json
// @Param        id   path      string  true  "Zone ID"
// @Success      200  {object}  models.ZoneSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/zones/{id} [get]
// @Security     BearerAuth
func (h *Handler) getZone(c *gin.Context) {
	id, ok := zoneParam(c)
	if !ok {
		return
	}
	snap, err := h.services.Zones.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "zone_get_failed", err, "zone", id)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Set override duration
// @Description  Only allowed while the zone is idle. 0 clears the request.
// @Tags         zones
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Zone ID"
// @Param        body  body      SetDurationRequest  true  "Duration payload"
// @Success      200   {object}  models.ZoneSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/zones/{id}/duration [put]
// @Security     BearerAuth
func (h *Handler) setDuration(c *gin.Context) {
	id, ok := zoneParam(c)
	if !ok {
		return
	}
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	snap, err := h.services.Override.SetDuration(c.Request.Context(), id, *req.Minutes)
	if err != nil {
		h.writeServiceError(c, "zone_set_duration_failed", err, "zone", id, "minutes", *req.Minutes)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Arm or disarm manual override
// @Description  Arming checks readiness first and sends the start command only when the zone is ready.
// @Tags         zones
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Zone ID"
// @Param        body  body      ToggleOverrideRequest  true  "Override payload"
// @Success      200   {object}  models.ZoneSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/zones/{id}/override [post]
// @Security     BearerAuth
func (h *Handler) toggleOverride(c *gin.Context) {
	id, ok := zoneParam(c)
	if !ok {
		return
	}
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	snap, err := h.services.Override.Toggle(c.Request.Context(), id, *req.On)
	if err != nil {
		h.writeServiceError(c, "zone_toggle_failed", err, "zone", id, "on", *req.On)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Refresh zone status now
// @Tags         zones
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, zones"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/zones/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshZones(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Synchronizer.Refresh(ctx); err != nil {
		h.writeServiceError(c, "zone_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusRefreshed,
		"zones":  h.services.Zones.List(ctx),
	})
}

// @Summary      Upcoming schedule
// @Description  Display only; the schedule never drives overrides.
// @Tags         schedule
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, events"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/schedule [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	events, err := h.services.Schedule.Upcoming(c.Request.Context())
	if err != nil {
		code, _ := statusFor(err)
		h.logAndJSONError(c, code, errLoadSchedule, "schedule_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}
