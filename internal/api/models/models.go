// Package models defines the request and response shapes of the HTTP
// API.
package models

import "time"

// HealthData is the health check payload.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Health status"`
	Message string `json:"message" example:"API is healthy" doc:"Status detail"`
}

// HealthResponse is the HTTP response for the health check.
type HealthResponse struct {
	Body HealthData
}

// VersionData carries version and build metadata.
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc123" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2026-01-15T10:00:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Build platform"`
}

// VersionResponse is the HTTP response for version information.
type VersionResponse struct {
	Body VersionData
}

// StreamInfo describes one registered stream worker.
type StreamInfo struct {
	Slot  int    `json:"slot" example:"0" doc:"Grid cell index, assigned at registration"`
	URL   string `json:"url" example:"rtsp://192.168.1.50:554/" doc:"Stream source URL"`
	State string `json:"state" example:"playing" doc:"Worker state: stopped, starting, playing, or failed"`
}

// GridInfo describes the compositor layout.
type GridInfo struct {
	Cols     int `json:"cols" example:"2" doc:"Grid columns"`
	Rows     int `json:"rows" example:"2" doc:"Grid rows"`
	Capacity int `json:"capacity" example:"4" doc:"Maximum stream slots"`
}

// SlotStats reports per-slot frame counters.
type SlotStats struct {
	Slot     int    `json:"slot" example:"0" doc:"Grid cell index"`
	Received uint64 `json:"received" example:"1500" doc:"Frames delivered to the slot"`
	Dropped  uint64 `json:"dropped" example:"12" doc:"Frames overwritten before display"`
}

// StreamsData is the stream listing payload.
type StreamsData struct {
	Streams []StreamInfo `json:"streams" doc:"Registered streams in slot order"`
	Slots   []SlotStats  `json:"slots" doc:"Per-slot frame counters"`
	Grid    GridInfo     `json:"grid" doc:"Current grid layout"`
	Count   int          `json:"count" example:"4" doc:"Number of registered streams"`
}

// StreamsResponse is the HTTP response for the stream listing.
type StreamsResponse struct {
	Body StreamsData
}

// DeviceInfo describes one discovered RTSP device.
type DeviceInfo struct {
	IP       string    `json:"ip" example:"192.168.1.50" doc:"Device IPv4 address"`
	URL      string    `json:"url" example:"rtsp://192.168.1.50:554/" doc:"Canonical stream URL"`
	Name     string    `json:"name" example:"RTSP Device (192.168.1.50)" doc:"Display name"`
	LastSeen time.Time `json:"last_seen" doc:"Time of the last successful probe"`
	Active   bool      `json:"active" example:"true" doc:"False once the device passes the staleness window"`
}

// DevicesData is the device listing payload.
type DevicesData struct {
	Devices []DeviceInfo `json:"devices" doc:"Discovered devices, stale entries included unless filtered"`
	Count   int          `json:"count" example:"2" doc:"Number of devices listed"`
}

// DevicesResponse is the HTTP response for the device listing.
type DevicesResponse struct {
	Body DevicesData
}

// LogEntry is one buffered log record.
type LogEntry struct {
	Timestamp  string         `json:"timestamp" example:"2026-01-15T10:00:00Z" doc:"Record time, RFC3339Nano"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"discovery" doc:"Originating module"`
	Message    string         `json:"message" example:"Discovered new RTSP stream" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// LogsData is the log listing payload.
type LogsData struct {
	Entries []LogEntry `json:"entries" doc:"Buffered log records, oldest first"`
	Count   int        `json:"count" example:"120" doc:"Number of records returned"`
}

// LogsResponse is the HTTP response for the log listing.
type LogsResponse struct {
	Body LogsData
}
