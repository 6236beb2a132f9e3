package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sprinkler_client/internal/models"
	"sprinkler_client/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid     = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid       = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errRangeInverted   = "'from' must be <= 'to'"
	errOperatorInvalid = "invalid 'operator'; use a positive operator id or 'me'"
	errLoadLogs        = "failed to load logs"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"

	operatorSelf = "me"
)

var queryTimeLayouts = []string{time.RFC3339, layoutDateTime, layoutDate}

// @Summary      List logs
// @Description  Filter the override audit log by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'), type, zone and operator. A date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from      query   string  false  "Start of range"  example(2025-08-01)
// @Param        to        query   string  false  "End of range; date-only means end of day"  example(2025-08-31)
// @Param        type      query   string  false  "Event type"  Enums(ARM_REQUESTED,ARM_CANCELLED,NOT_READY,CHECK_FAILED,START_SENT,START_REJECTED,STOP_SENT,STOP_REJECTED,DURATION_CHANGE,OVERRIDE_COMPLETED,SYNC_FAILED)
// @Param        zone      query   string  false  "Zone ID"
// @Param        operator  query   string  false  "Operator id, or 'me' for the caller"
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	filter, problem := logFilterFromQuery(c)
	if problem != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": problem})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadLogs, "logs_list_failed", err,
			"from", filter.From, "to", filter.To, "type", filter.Type, "zone", filter.Zone, "operator", filter.Operator)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// logFilterFromQuery builds the audit filter from query params. A non-empty
// second result is the 400 message.
func logFilterFromQuery(c *gin.Context) (service.LogFilter, string) {
	f := service.LogFilter{
		Type: strings.ToUpper(strings.TrimSpace(c.Query("type"))),
		Zone: models.ZoneID(strings.TrimSpace(c.Query("zone"))),
	}

	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errFromInvalid
		}
		f.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errToInvalid
		}
		if !strings.ContainsAny(qs, "T ") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errRangeInverted
	}

	switch qs := strings.TrimSpace(c.Query("operator")); qs {
	case "":
	case operatorSelf:
		id, _ := c.Get(operatorCtxKey)
		f.Operator, _ = id.(int)
	default:
		id, err := strconv.Atoi(qs)
		if err != nil || id <= 0 {
			return f, errOperatorInvalid
		}
		f.Operator = id
	}
	return f, ""
}

// parseQueryTime accepts RFC3339, "YYYY-MM-DD HH:MM:SS" or a bare date, in UTC.
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q, expected one of %v", s, queryTimeLayouts)
}
