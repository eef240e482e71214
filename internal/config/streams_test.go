package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStreams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.toml")
	content := `
[[streams]]
url = "rtsp://192.168.1.50:554/"
name = "Front door"

[[streams]]
url = "rtsp://192.168.1.51:554/"

[[streams]]
url = "   "
name = "blank URL is dropped"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	streams, err := LoadStreams(path)
	if err != nil {
		t.Fatalf("LoadStreams failed: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("len(streams) = %d, want 2", len(streams))
	}
	if streams[0].URL != "rtsp://192.168.1.50:554/" || streams[0].Name != "Front door" {
		t.Errorf("streams[0] = %+v", streams[0])
	}
	if streams[1].URL != "rtsp://192.168.1.51:554/" || streams[1].Name != "" {
		t.Errorf("streams[1] = %+v", streams[1])
	}
}

func TestLoadStreamsMissingFile(t *testing.T) {
	streams, err := LoadStreams(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(streams) != 0 {
		t.Errorf("len(streams) = %d, want 0", len(streams))
	}
}

func TestLoadStreamsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.toml")
	if err := os.WriteFile(path, []byte("[[streams]\nbroken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStreams(path); err == nil {
		t.Error("malformed TOML should error")
	}
}

func TestSaveStreamsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "streams.toml")
	in := []StreamEntry{
		{URL: "rtsp://10.0.0.7:554/", Name: "RTSP Device (10.0.0.7)"},
		{URL: "rtsp://10.0.0.8:554/"},
	}

	if err := SaveStreams(path, in); err != nil {
		t.Fatalf("SaveStreams failed: %v", err)
	}

	out, err := LoadStreams(path)
	if err != nil {
		t.Fatalf("LoadStreams failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("entry %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}
