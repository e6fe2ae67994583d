package input

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

type Backend interface {
	// Init should do nothing if called more than once.
	Init() error
	Close() error

	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	Start(SessionConfig) (Source, error)
}

// DeviceParser is implemented by backends whose devices are named by the
// user rather than listed, such as file paths.
type DeviceParser interface {
	ParseDevice(name string) (Device, error)
}

// FileBackend is implemented by backends that decode files. Extensions are
// lower case and carry the leading dot.
type FileBackend interface {
	Backend
	DeviceParser
	Extensions() []string
}

type NamedBackend struct {
	Name string
	Backend
}

var Backends []NamedBackend

// RegisterBackend registers a backend globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterBackend(name string, b Backend) {
	Backends = append(Backends, NamedBackend{
		Name:    name,
		Backend: b,
	})
}

// Get all installed backend names.
func GetAllBackendNames() []string {
	out := make([]string, len(Backends))
	for i, backend := range Backends {
		out[i] = backend.Name
	}
	return out
}

// DefaultBackend picks a capture backend for the running platform.
func DefaultBackend() string {
	switch runtime.GOOS {
	case "linux":
		if path, _ := exec.LookPath("parec"); path != "" {
			if HasBackend("parec") {
				return "parec"
			}
		}

		if HasBackend("ffmpeg-alsa") {
			return "ffmpeg-alsa"
		}
	}

	if HasBackend("stdin") {
		return "stdin"
	}

	return ""
}

// FindBackend is a helper function that finds a backend. It returns nil if the
// backend is not found.
func FindBackend(name string) Backend {
	for _, backend := range Backends {
		if backend.Name == name {
			return backend.Backend
		}
	}
	return nil
}

func HasBackend(name string) bool {
	return FindBackend(name) != nil
}

// FindFileBackend returns the first registered file backend that claims the
// extension of path.
func FindFileBackend(path string) (string, FileBackend) {
	ext := strings.ToLower(filepath.Ext(path))

	for _, backend := range Backends {
		fb, ok := backend.Backend.(FileBackend)
		if !ok {
			continue
		}

		for _, e := range fb.Extensions() {
			if e == ext {
				return backend.Name, fb
			}
		}
	}

	return "", nil
}

func InitBackend(bknd string) (Backend, error) {
	backend := FindBackend(bknd)
	if backend == nil {
		return nil, fmt.Errorf("backend not found: %q; check list-backends", bknd)
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize input backend")
	}

	return backend, nil
}

func GetDevice(backend Backend, device string) (Device, error) {
	if parser, ok := backend.(DeviceParser); ok && device != "" {
		return parser.ParseDevice(device)
	}

	if device == "" {
		def, err := backend.DefaultDevice()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get default device")
		}
		return def, nil
	}

	devices, err := backend.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get devices")
	}

	for idx := range devices {
		if devices[idx].String() == device {
			return devices[idx], nil
		}
	}

	return nil, errors.Errorf("device %q not found; check list-devices", device)
}

// OpenFile starts a source for path with the file backend registered for its
// extension.
func OpenFile(path string) (Source, error) {
	name, backend := FindFileBackend(path)
	if backend == nil {
		return nil, errors.Errorf("no backend decodes %q", filepath.Ext(path))
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrapf(err, "failed to initialize %s", name)
	}

	dev, err := backend.ParseDevice(path)
	if err != nil {
		return nil, err
	}

	src, err := backend.Start(SessionConfig{Device: dev})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	log.WithField("backend", name).WithFields(src.Format().Fields()).
		Debugf("opened %s", filepath.Base(path))

	return src, nil
}
