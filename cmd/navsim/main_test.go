package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.json")
	content := `[{"lat":50.08,"lng":14.40},{"error":"timeout"},{"lat":50.081,"lng":14.40}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	track, err := loadTrack(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(track) != 3 || track[1].Error != "timeout" || track[2].Lat != 50.081 {
		t.Fatalf("track = %+v", track)
	}
}

func TestLoadTrackRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadTrack(path); err == nil {
		t.Fatal("expected error for empty track")
	}
}
