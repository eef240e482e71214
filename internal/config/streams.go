package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// StreamEntry is one stream in the streams file.
type StreamEntry struct {
	URL  string `toml:"url" json:"url"`
	Name string `toml:"name,omitempty" json:"name,omitempty"`
}

// StreamsFile is the on-disk shape of streams.toml.
type StreamsFile struct {
	Streams []StreamEntry `toml:"streams" json:"streams"`
}

// LoadStreams reads the stream list from a TOML file. A missing file is
// an empty list, not an error; the viewer can run on CLI URLs alone.
func LoadStreams(path string) ([]StreamEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read streams file: %w", err)
	}

	var file StreamsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse streams file: %w", err)
	}

	out := make([]StreamEntry, 0, len(file.Streams))
	for _, s := range file.Streams {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// SaveStreams writes the stream list atomically via a temp file rename
// so the fsnotify watcher never observes a half-written file.
func SaveStreams(path string, streams []StreamEntry) error {
	data, err := toml.Marshal(StreamsFile{Streams: streams})
	if err != nil {
		return fmt.Errorf("failed to marshal streams: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".streams-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write streams file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace streams file: %w", err)
	}
	return nil
}
