// Package discovery scans local subnets for devices answering on the
// RTSP port and keeps a registry of what it has seen. Entries go stale
// but are never removed; the registry is the history of every device the
// scanner ever reached.
package discovery

import "time"

// ProbePort is the well-known RTSP port probed on candidate hosts.
const ProbePort = 554

// Device is one discovered stream source, keyed by IP.
type Device struct {
	IP       string    `json:"ip"`
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	LastSeen time.Time `json:"last_seen"`
	Active   bool      `json:"active"`
}

// DeviceURL derives the canonical stream URL for an address. Callers
// needing a device-specific path append their own.
func DeviceURL(ip string) string {
	return "rtsp://" + ip + ":554/"
}

// DeviceName derives the default display name for an address.
func DeviceName(ip string) string {
	return "RTSP Device (" + ip + ")"
}
