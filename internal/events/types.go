package events

// Event type constants for kelindar/event.
const (
	TypeStreamStateChanged uint32 = iota + 1
	TypeDeviceDiscovered
	TypeDeviceStale
	TypeFrameOverflow
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StreamStateChangedEvent fires on every worker lifecycle transition.
type StreamStateChangedEvent struct {
	Slot      int    `json:"slot" example:"0" doc:"Slot index of the stream"`
	URL       string `json:"url" example:"rtsp://192.168.1.50:554/ch0" doc:"Stream locator"`
	State     string `json:"state" example:"playing" doc:"New worker state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for StreamStateChangedEvent.
func (e StreamStateChangedEvent) Type() uint32 { return TypeStreamStateChanged }

// DeviceDiscoveredEvent fires when the subnet scanner finds a device it
// has not seen before. Re-probes of known devices do not fire again.
type DeviceDiscoveredEvent struct {
	IP        string `json:"ip" example:"192.168.1.50" doc:"Device IP address"`
	URL       string `json:"url" example:"rtsp://192.168.1.50:554/" doc:"Derived stream URL"`
	Name      string `json:"name" example:"RTSP Device (192.168.1.50)" doc:"Display name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Discovery timestamp"`
}

// Type returns the event type identifier for DeviceDiscoveredEvent.
func (e DeviceDiscoveredEvent) Type() uint32 { return TypeDeviceDiscovered }

// DeviceStaleEvent fires when a known device misses the staleness window
// and flips to inactive. The registry entry is kept.
type DeviceStaleEvent struct {
	IP        string `json:"ip" example:"192.168.1.50" doc:"Device IP address"`
	URL       string `json:"url" example:"rtsp://192.168.1.50:554/" doc:"Derived stream URL"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:31:00Z" doc:"Staleness timestamp"`
}

// Type returns the event type identifier for DeviceStaleEvent.
func (e DeviceStaleEvent) Type() uint32 { return TypeDeviceStale }

// FrameOverflowEvent fires when a producer pushes to a slot index beyond
// the compositor's fixed capacity. The frame is dropped.
type FrameOverflowEvent struct {
	Slot      int    `json:"slot" example:"9" doc:"Out-of-range slot index"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Drop timestamp"`
}

// Type returns the event type identifier for FrameOverflowEvent.
func (e FrameOverflowEvent) Type() uint32 { return TypeFrameOverflow }
