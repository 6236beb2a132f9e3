package models

// ScheduleEvent is one entry of the controller's upcoming-events listing.
// It is display data and never influences override decisions.
type ScheduleEvent struct {
	EventID   string `json:"eventID"`
	ZoneID    ZoneID `json:"zoneID"`
	StartTime string `json:"startTime"`
	StopTime  string `json:"stopTime"`
	Duration  int    `json:"duration"` // minutes
	Active    bool   `json:"active"`
}
