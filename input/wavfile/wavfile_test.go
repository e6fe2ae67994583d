package wavfile

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/noriah/whisker/input"
)

func writeWav(t *testing.T, rate, depth, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, depth, channels, wavFormatPCM)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: depth,
	}

	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestSourceDecodes16Bit(t *testing.T) {
	data := []int{0, 1, -1, 32767, -32768, 1234, -4321, 42}
	path := writeWav(t, 22050, 16, 2, data)

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	want := input.Format{SampleRate: 22050, ChannelCount: 2, Encoding: input.EncodingPCM16}
	if src.Format() != want {
		t.Fatalf("format %s, want %s", src.Format(), want)
	}

	raw, err := io.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}

	if len(raw) != len(data)*2 {
		t.Fatalf("read %d bytes, want %d", len(raw), len(data)*2)
	}

	for i, v := range data {
		got := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		if int(got) != v {
			t.Errorf("sample %d: got %d, want %d", i, got, v)
		}
	}
}

func TestSourceSmallReads(t *testing.T) {
	data := make([]int, 2*chunkFrames+6)
	for i := range data {
		data[i] = i % 1000
	}

	path := writeWav(t, 44100, 16, 2, data)

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	var total int
	buf := make([]byte, 3)

	for {
		n, err := src.Read(buf)
		total += n

		if err == io.EOF {
			break
		}

		if err != nil {
			t.Fatal(err)
		}
	}

	if total != len(data)*2 {
		t.Fatalf("read %d bytes, want %d", total, len(data)*2)
	}
}

func TestToPCM16(t *testing.T) {
	tests := []struct {
		depth int
		in    int
		want  int16
	}{
		{8, 128, 0},
		{8, 255, 127 << 8},
		{8, 0, -32768},
		{16, -2, -2},
		{24, 1 << 20, 1 << 12},
		{24, -(1 << 23), -32768},
		{32, 1 << 30, 1 << 14},
	}

	dst := make([]byte, 2)

	for _, test := range tests {
		out := ToPCM16(dst, []int{test.in}, test.depth)

		if got := int16(binary.LittleEndian.Uint16(out)); got != test.want {
			t.Errorf("%d bit %d: got %d, want %d", test.depth, test.in, got, test.want)
		}
	}
}

func TestNewSourceRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not a riff file"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected an error")
	}
}

func TestBackendFindsWav(t *testing.T) {
	name, backend := input.FindFileBackend("/a/b/Track.WAV")
	if backend == nil || name != "wav" {
		t.Fatalf("got backend %q", name)
	}
}
