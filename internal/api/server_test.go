package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smazurov/camgrid/internal/api/models"
	"github.com/smazurov/camgrid/internal/discovery"
	"github.com/smazurov/camgrid/internal/pipeline"
	"github.com/smazurov/camgrid/internal/render"
	"github.com/smazurov/camgrid/internal/streams"
)

func newTestServer(t *testing.T, opts *Options) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(opts).Mux())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var health models.HealthData
	if status := getJSON(t, ts.URL+"/api/health", &health); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if health.Status != "ok" {
		t.Errorf("health status = %q", health.Status)
	}
}

func TestVersionEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var v models.VersionData
	if status := getJSON(t, ts.URL+"/api/version", &v); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if v.Version == "" || v.GoVersion == "" || v.Platform == "" {
		t.Errorf("incomplete version info: %+v", v)
	}
}

func TestStreamsEndpoint(t *testing.T) {
	comp := render.NewCompositor(render.NewSoftwareDevice(640, 480), 2, nil, nil)
	agg := streams.NewAggregator(streams.Options{
		Compositor: comp,
		Backend:    pipeline.KindSynthetic,
	})
	agg.Register("rtsp://192.168.1.50:554/")
	agg.Register("rtsp://192.168.1.51:554/")
	defer agg.StopAll()

	ts := newTestServer(t, &Options{Aggregator: agg, Compositor: comp})

	var data models.StreamsData
	if status := getJSON(t, ts.URL+"/api/streams", &data); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if data.Count != 2 || len(data.Streams) != 2 {
		t.Fatalf("count = %d, streams = %d", data.Count, len(data.Streams))
	}
	if data.Streams[0].Slot != 0 || data.Streams[0].URL != "rtsp://192.168.1.50:554/" {
		t.Errorf("streams[0] = %+v", data.Streams[0])
	}
	if data.Streams[1].State != "playing" {
		t.Errorf("streams[1].State = %q", data.Streams[1].State)
	}
	if data.Grid.Cols != 2 || data.Grid.Rows != 1 || data.Grid.Capacity != 2 {
		t.Errorf("grid = %+v", data.Grid)
	}
	if len(data.Slots) != 2 {
		t.Errorf("slots = %d, want 2", len(data.Slots))
	}
}

func TestDevicesEndpoint(t *testing.T) {
	svc := discovery.NewService(discovery.Options{
		Subnets: func() []string { return []string{"10.0.0"} },
		Probe:   func(ip string) bool { return ip == "10.0.0.7" },
	})
	svc.ScanOnce(context.Background())

	ts := newTestServer(t, &Options{Discovery: svc})

	var data models.DevicesData
	if status := getJSON(t, ts.URL+"/api/devices", &data); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if data.Count != 1 {
		t.Fatalf("count = %d, want 1", data.Count)
	}
	d := data.Devices[0]
	if d.IP != "10.0.0.7" || d.URL != "rtsp://10.0.0.7:554/" || !d.Active {
		t.Errorf("device = %+v", d)
	}
}

func TestDevicesActiveFilter(t *testing.T) {
	svc := discovery.NewService(discovery.Options{
		Subnets: func() []string { return []string{"10.0.0"} },
		Probe:   func(string) bool { return false },
	})

	ts := newTestServer(t, &Options{Discovery: svc})

	var data models.DevicesData
	if status := getJSON(t, ts.URL+"/api/devices?active=true", &data); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if data.Count != 0 {
		t.Errorf("count = %d, want 0", data.Count)
	}
}

func TestLogsEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var data models.LogsData
	if status := getJSON(t, ts.URL+"/api/logs?limit=10", &data); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if data.Count != len(data.Entries) {
		t.Errorf("count = %d, entries = %d", data.Count, len(data.Entries))
	}
}

func TestBasicAuthRequired(t *testing.T) {
	ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})

	// Protected endpoint rejects anonymous requests.
	if status := getJSON(t, ts.URL+"/api/streams", nil); status != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", status)
	}

	// Health carries no security requirement and stays open.
	if status := getJSON(t, ts.URL+"/api/health", nil); status != http.StatusOK {
		t.Errorf("health status = %d, want 200", status)
	}

	// Correct credentials pass.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/streams", nil)
	creds := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	req.Header.Set("Authorization", "Basic "+creds)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}

	// Wrong credentials fail.
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/streams", nil)
	bad := base64.StdEncoding.EncodeToString([]byte("admin:wrong"))
	req.Header.Set("Authorization", "Basic "+bad)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad credentials status = %d, want 401", resp.StatusCode)
	}
}

func TestMetricsHandlerMounted(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metrics ok"))
	})
	ts := newTestServer(t, &Options{
		AuthUsername:      "admin",
		AuthPassword:      "secret",
		PrometheusHandler: handler,
	})

	// Scrapes bypass basic auth.
	if status := getJSON(t, ts.URL+"/metrics", nil); status != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", status)
	}
}
