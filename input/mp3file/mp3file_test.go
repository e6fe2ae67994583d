package mp3file

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/noriah/whisker/input"
)

func TestNewSourceRejectsGarbage(t *testing.T) {
	if _, err := NewSource(bytes.NewReader(make([]byte, 64))); err == nil {
		t.Fatal("expected an error for a stream with no frames")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestBackendParseDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	dev, err := Backend{}.ParseDevice(path)
	if err != nil {
		t.Fatal(err)
	}

	if dev.String() != path {
		t.Fatalf("device %q, want %q", dev, path)
	}

	if name, _ := input.FindFileBackend(path); name != "mp3" {
		t.Fatalf("extension resolved to %q", name)
	}
}
