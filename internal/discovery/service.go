package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/camgrid/internal/events"
	"github.com/smazurov/camgrid/internal/logging"
	"github.com/smazurov/camgrid/internal/metrics"
)

const (
	defaultProbeTimeout = 2 * time.Second
	defaultScanInterval = 30 * time.Second
	defaultStaleAfter   = 60 * time.Second

	// Stop responsiveness while idle between cycles.
	sleepSlice = 100 * time.Millisecond
)

// ProbeFunc reports whether a host answers on the stream port. The
// default implementation is a bounded TCP connect with no payload; a
// successful connect is taken as "speaks RTSP", which is an
// approximation, not a handshake.
type ProbeFunc func(ip string) bool

// SubnetsFunc enumerates the /24 prefixes (first three octets) to scan.
type SubnetsFunc func() []string

// Options configures a Service. Zero values select defaults.
type Options struct {
	Logger       logging.Logger
	Bus          *events.Bus
	Probe        ProbeFunc
	Subnets      SubnetsFunc
	ProbeTimeout time.Duration
	ScanInterval time.Duration
	StaleAfter   time.Duration
}

// Service owns the scan goroutine and the device registry. One instance
// per process; reads never touch the network.
type Service struct {
	logger       logging.Logger
	bus          *events.Bus
	probe        ProbeFunc
	subnets      SubnetsFunc
	scanInterval time.Duration
	staleAfter   time.Duration

	mu      sync.Mutex // guards devices
	devices []Device

	runMu   sync.Mutex // guards running/stop
	running bool
	stop    chan struct{}
	done    sync.WaitGroup
}

// NewService creates a discovery service.
func NewService(opts Options) *Service {
	s := &Service{
		logger:       opts.Logger,
		bus:          opts.Bus,
		probe:        opts.Probe,
		subnets:      opts.Subnets,
		scanInterval: opts.ScanInterval,
		staleAfter:   opts.StaleAfter,
	}
	if s.logger == nil {
		s.logger = logging.GetLogger("discovery")
	}
	if s.scanInterval <= 0 {
		s.scanInterval = defaultScanInterval
	}
	if s.staleAfter <= 0 {
		s.staleAfter = defaultStaleAfter
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	if s.probe == nil {
		s.probe = func(ip string) bool {
			return tcpProbe(ip, ProbePort, probeTimeout)
		}
	}
	if s.subnets == nil {
		s.subnets = localSubnets
	}
	return s
}

// Start launches the background scan loop. Calling Start on a running
// service is a no-op.
func (s *Service) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		s.logger.Debug("Discovery already running")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done.Add(1)
	go s.run(s.stop)
	s.logger.Info("Started stream discovery service")
}

// Stop requests a cooperative shutdown and waits for the scan goroutine
// to exit. The flag is checked between probes, so Stop returns within
// one probe timeout. Safe to call when not running.
func (s *Service) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.runMu.Unlock()

	s.done.Wait()
	s.logger.Info("Stopped stream discovery service")
}

// run repeats scan cycles until stop closes.
func (s *Service) run(stop <-chan struct{}) {
	defer s.done.Done()

	for {
		s.logger.Info("Scanning for RTSP streams")
		s.scanCycle(stop)
		s.markStale()

		if !sleepInterruptible(s.scanInterval, stop) {
			return
		}
	}
}

// ScanOnce runs a single synchronous scan cycle, honoring ctx between
// probes. Used by the discover subcommand.
func (s *Service) ScanOnce(ctx context.Context) {
	s.scanCycle(ctx.Done())
	s.markStale()
}

// scanCycle probes every candidate host in every local subnet. The stop
// channel is checked between probes only; an in-flight probe finishes
// within its own timeout.
func (s *Service) scanCycle(stop <-chan struct{}) {
	for _, subnet := range s.subnets() {
		for host := 1; host <= 254; host++ {
			select {
			case <-stop:
				return
			default:
			}

			ip := subnet + "." + strconv.Itoa(host)
			metrics.RecordProbe()
			if s.probe(ip) {
				s.record(ip)
			}
		}
	}
}

// record inserts a device or refreshes an existing one in place.
func (s *Service) record(ip string) {
	now := time.Now()

	s.mu.Lock()
	for i := range s.devices {
		if s.devices[i].IP == ip {
			s.devices[i].LastSeen = now
			s.devices[i].Active = true
			active := s.countActiveLocked()
			s.mu.Unlock()
			metrics.SetDevicesActive(active)
			return
		}
	}

	dev := Device{
		IP:       ip,
		URL:      DeviceURL(ip),
		Name:     DeviceName(ip),
		LastSeen: now,
		Active:   true,
	}
	s.devices = append(s.devices, dev)
	active := s.countActiveLocked()
	s.mu.Unlock()

	metrics.RecordDeviceDiscovered()
	metrics.SetDevicesActive(active)
	s.logger.Info("Discovered new RTSP stream", "ip", ip, "url", dev.URL)
	if s.bus != nil {
		s.bus.Publish(events.DeviceDiscoveredEvent{
			IP:        ip,
			URL:       dev.URL,
			Name:      dev.Name,
			Timestamp: now.Format(time.RFC3339),
		})
	}
}

// markStale flips devices inactive after the staleness window. Entries
// refreshed during the current cycle keep their fresh LastSeen and are
// untouched. Nothing is ever deleted.
func (s *Service) markStale() {
	now := time.Now()
	var staled []Device

	s.mu.Lock()
	for i := range s.devices {
		d := &s.devices[i]
		if d.Active && now.Sub(d.LastSeen) > s.staleAfter {
			d.Active = false
			staled = append(staled, *d)
		}
	}
	active := s.countActiveLocked()
	s.mu.Unlock()

	metrics.SetDevicesActive(active)
	for _, d := range staled {
		s.logger.Warn("Stream timeout", "ip", d.IP, "url", d.URL)
		if s.bus != nil {
			s.bus.Publish(events.DeviceStaleEvent{
				IP:        d.IP,
				URL:       d.URL,
				Timestamp: now.Format(time.RFC3339),
			})
		}
	}
}

// ActiveStreams snapshots the currently active devices.
func (s *Service) ActiveStreams() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []Device
	for _, d := range s.devices {
		if d.Active {
			active = append(active, d)
		}
	}
	return active
}

// Devices snapshots the whole registry, active and stale.
func (s *Service) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// String formats the active devices for terminal output.
func (s *Service) String() string {
	devices := s.ActiveStreams()

	var b strings.Builder
	b.WriteString("=== Discovered RTSP Streams ===\n")
	if len(devices) == 0 {
		b.WriteString("No streams discovered yet.\n")
		return b.String()
	}
	now := time.Now()
	for _, d := range devices {
		fmt.Fprintf(&b, "Device: %s\n", d.Name)
		fmt.Fprintf(&b, "  IP: %s\n", d.IP)
		fmt.Fprintf(&b, "  RTSP URL: %s\n", d.URL)
		fmt.Fprintf(&b, "  Last seen: %ds ago\n\n", int(now.Sub(d.LastSeen).Seconds()))
	}
	return b.String()
}

// countActiveLocked counts active entries. Caller holds mu.
func (s *Service) countActiveLocked() int {
	n := 0
	for _, d := range s.devices {
		if d.Active {
			n++
		}
	}
	return n
}

// tcpProbe attempts a bounded TCP connect. No payload is exchanged.
func tcpProbe(ip string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(ip, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// localSubnets derives the /24 prefix of every non-loopback IPv4
// interface address.
func localSubnets() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var subnets []string
	seen := make(map[string]bool)
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			prefix := fmt.Sprintf("%d.%d.%d", ip4[0], ip4[1], ip4[2])
			if !seen[prefix] {
				seen[prefix] = true
				subnets = append(subnets, prefix)
			}
		}
	}
	return subnets
}

// sleepInterruptible waits d in short slices, returning false when stop
// closes first.
func sleepInterruptible(d time.Duration, stop <-chan struct{}) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return false
		case <-time.After(sleepSlice):
		}
	}
	return true
}
