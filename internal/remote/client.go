// Package remote is the HTTP boundary to the irrigation controller.
// Every response is validated into typed models before it leaves the package;
// anything that does not fit fails closed with ErrMalformedPayload.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
)

var (
	ErrMalformedPayload = errors.New("malformed payload from controller")
	ErrCommandRejected  = errors.New("override command rejected by controller")
)

// Endpoint paths on the controller.
const (
	PathZoneList     = "/zoneList"
	PathZoneStatus   = "/zoneStatus"
	PathZoneReady    = "/zoneReady"
	PathSchedule     = "/schedule"
	PathZoneOverride = "/zoneOverride"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// Config holds the controller connection settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	StatusPath string
}

// Client talks to the controller over plain JSON/HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logger.Logger
	now        func() time.Time
}

// NewClient creates a controller client. A zero timeout means no client-side limit.
func NewClient(config Config, log *logger.Logger) *Client {
	if config.StatusPath == "" {
		config.StatusPath = PathZoneStatus
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        log,
		now:        time.Now,
	}
}

// ListZones fetches the array of known zone IDs.
func (c *Client) ListZones(ctx context.Context) ([]models.ZoneID, error) {
	body, err := c.get(ctx, PathZoneList, nil)
	if err != nil {
		return nil, err
	}
	return decodeZoneList(body)
}

// ZoneStatuses fetches the zoneID → {status, nextEvent} mapping.
func (c *Client) ZoneStatuses(ctx context.Context) (map[models.ZoneID]models.ZoneStatus, error) {
	body, err := c.get(ctx, c.config.StatusPath, nil)
	if err != nil {
		return nil, err
	}
	return decodeZoneStatuses(body, c.now(), c.log)
}

// ZoneReadiness queries readiness for one zone. The controller answers with
// a zoneID → bool mapping that may include other zones as well.
func (c *Client) ZoneReadiness(ctx context.Context, id models.ZoneID) (map[models.ZoneID]bool, error) {
	body, err := c.get(ctx, PathZoneReady, url.Values{"zone": {string(id)}})
	if err != nil {
		return nil, err
	}
	return decodeReadiness(body)
}

// Schedule fetches upcoming watering events.
func (c *Client) Schedule(ctx context.Context) ([]models.ScheduleEvent, error) {
	body, err := c.get(ctx, PathSchedule, nil)
	if err != nil {
		return nil, err
	}
	return decodeSchedule(body)
}

// StartOverride asks the controller to force the zone on for minutes.
func (c *Client) StartOverride(ctx context.Context, id models.ZoneID, minutes int) error {
	return c.sendCommand(ctx, newCommand(id, true, minutes))
}

// StopOverride asks the controller to end a manual override.
func (c *Client) StopOverride(ctx context.Context, id models.ZoneID) error {
	return c.sendCommand(ctx, newCommand(id, false, 0))
}

func (c *Client) sendCommand(ctx context.Context, cmd CommandMessage) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, PathZoneOverride, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// a 2xx with a truncated body is not an acknowledgement
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading command response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w (status %d): %s", ErrCommandRejected, resp.StatusCode, bytes.TrimSpace(body))
	}
	return decodeCommandAck(body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
