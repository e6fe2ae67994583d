package stdinput

import (
	"bytes"
	"io"
	"testing"

	"github.com/noriah/whisker/input"
)

func TestSourcePassesBytes(t *testing.T) {
	format := input.Format{SampleRate: 48000, ChannelCount: 2, Encoding: input.EncodingPCM16}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	src, err := NewSource(bytes.NewReader(data), format)
	if err != nil {
		t.Fatal(err)
	}

	if src.Format() != format {
		t.Fatalf("format %s, want %s", src.Format(), format)
	}

	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(got, data) {
		t.Fatalf("read %v, want %v", got, data)
	}

	if err := src.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRejectsInvalidFormat(t *testing.T) {
	_, err := NewSource(bytes.NewReader(nil), input.Format{SampleRate: 44100, ChannelCount: 2})
	if err == nil {
		t.Fatal("expected an error for a missing encoding")
	}
}
