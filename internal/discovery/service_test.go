package discovery

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/camgrid/internal/events"
)

func fixedSubnets(prefixes ...string) SubnetsFunc {
	return func() []string { return prefixes }
}

func respondOnly(ips ...string) ProbeFunc {
	set := make(map[string]bool, len(ips))
	for _, ip := range ips {
		set[ip] = true
	}
	return func(ip string) bool { return set[ip] }
}

func TestScanOnceDiscoversResponder(t *testing.T) {
	s := NewService(Options{
		Subnets: fixedSubnets("192.168.1"),
		Probe:   respondOnly("192.168.1.50"),
	})

	s.ScanOnce(context.Background())

	devices := s.ActiveStreams()
	if len(devices) != 1 {
		t.Fatalf("active devices = %d, want 1", len(devices))
	}
	d := devices[0]
	if d.IP != "192.168.1.50" {
		t.Errorf("ip = %s", d.IP)
	}
	if d.URL != "rtsp://192.168.1.50:554/" {
		t.Errorf("url = %s", d.URL)
	}
	if d.Name != "RTSP Device (192.168.1.50)" {
		t.Errorf("name = %s", d.Name)
	}
	if !d.Active {
		t.Error("device should be active")
	}
}

func TestReprobeUpdatesInPlace(t *testing.T) {
	s := NewService(Options{
		Subnets: fixedSubnets("192.168.1"),
		Probe:   respondOnly("192.168.1.50"),
	})

	s.ScanOnce(context.Background())
	first := s.Devices()[0].LastSeen

	time.Sleep(10 * time.Millisecond)
	s.ScanOnce(context.Background())

	devices := s.Devices()
	if len(devices) != 1 {
		t.Fatalf("registry size = %d after re-probe, want 1", len(devices))
	}
	if !devices[0].LastSeen.After(first) {
		t.Error("LastSeen was not refreshed by re-probe")
	}
	if !devices[0].Active {
		t.Error("re-probed device must stay active")
	}
}

func TestStaleDeviceMarkedInactiveButRetained(t *testing.T) {
	bus := events.New()
	stale := make(chan events.DeviceStaleEvent, 1)
	unsub := bus.Subscribe(func(e events.DeviceStaleEvent) {
		stale <- e
	})
	defer unsub()

	s := NewService(Options{
		Subnets:    fixedSubnets("10.0.0"),
		Probe:      respondOnly("10.0.0.7"),
		StaleAfter: 50 * time.Millisecond,
		Bus:        bus,
	})

	s.ScanOnce(context.Background())

	// Device stops responding; age it past the staleness window.
	s.mu.Lock()
	s.devices[0].LastSeen = time.Now().Add(-time.Second)
	s.mu.Unlock()
	s.markStale()

	devices := s.Devices()
	if len(devices) != 1 {
		t.Fatalf("registry size = %d, want 1 (entries are never deleted)", len(devices))
	}
	if devices[0].Active {
		t.Error("stale device should be inactive")
	}
	if len(s.ActiveStreams()) != 0 {
		t.Error("ActiveStreams should not include stale devices")
	}

	select {
	case e := <-stale:
		if e.IP != "10.0.0.7" {
			t.Errorf("stale event ip = %s", e.IP)
		}
	case <-time.After(time.Second):
		t.Fatal("expected DeviceStaleEvent")
	}
}

func TestFreshDeviceSurvivesMarkStale(t *testing.T) {
	s := NewService(Options{
		Subnets:    fixedSubnets("10.0.0"),
		Probe:      respondOnly("10.0.0.7"),
		StaleAfter: time.Hour,
	})

	s.ScanOnce(context.Background())
	s.markStale()

	if !s.Devices()[0].Active {
		t.Error("freshly probed device must stay active")
	}
}

func TestDiscoveredEventOnlyOnFirstSighting(t *testing.T) {
	bus := events.New()
	var mu sync.Mutex
	var count int
	unsub := bus.Subscribe(func(events.DeviceDiscoveredEvent) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	defer unsub()

	s := NewService(Options{
		Subnets: fixedSubnets("10.0.0"),
		Probe:   respondOnly("10.0.0.7"),
		Bus:     bus,
	})

	s.ScanOnce(context.Background())
	s.ScanOnce(context.Background())
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("discovered events = %d, want 1", count)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	var mu sync.Mutex
	probes := 0

	s := NewService(Options{
		Subnets: fixedSubnets("10.0.0"),
		Probe: func(string) bool {
			mu.Lock()
			probes++
			mu.Unlock()
			return false
		},
		ScanInterval: time.Hour,
	})

	s.Start()
	s.Start() // no-op on a running service

	// Let the first cycle make progress, then stop cooperatively.
	time.Sleep(50 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return; cooperative cancellation broken")
	}

	s.Stop() // idempotent

	mu.Lock()
	defer mu.Unlock()
	if probes == 0 {
		t.Error("scan loop never probed")
	}
}

func TestStringOutput(t *testing.T) {
	s := NewService(Options{
		Subnets: fixedSubnets("192.168.1"),
		Probe:   respondOnly("192.168.1.50"),
	})

	if !strings.Contains(s.String(), "No streams discovered yet") {
		t.Error("empty registry should report no streams")
	}

	s.ScanOnce(context.Background())
	out := s.String()
	if !strings.Contains(out, "192.168.1.50") || !strings.Contains(out, "rtsp://192.168.1.50:554/") {
		t.Errorf("listing missing device details:\n%s", out)
	}
}

func TestScanHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	probes := 0
	s := NewService(Options{
		Subnets: fixedSubnets("10.0.0"),
		Probe: func(string) bool {
			mu.Lock()
			probes++
			if probes == 3 {
				cancel()
			}
			mu.Unlock()
			return false
		},
	})

	s.ScanOnce(ctx)

	mu.Lock()
	defer mu.Unlock()
	if probes > 4 {
		t.Errorf("scan continued after cancel: %d probes", probes)
	}
}
