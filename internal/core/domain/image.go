package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/distribution/reference"
)

var (
	// ErrSourceMissing is returned when a file to copy is absent from the build context.
	ErrSourceMissing = errors.New("source file missing from build context")
	// ErrBaseImageUnavailable is returned when the base image reference cannot be resolved.
	ErrBaseImageUnavailable = errors.New("base image unavailable")
)

// Default layout of the file server image.
const (
	DefaultBaseImage      = "alpine:3.20"
	ServerDir             = "/opt/server/"
	ServerCacheDir        = "/opt/server/caches/"
	StorageDir            = "/opt/storage/"
	StorageCacheDir       = "/opt/storage/caches/"
	ServerBinary          = "/opt/server/server"
	DefaultServerPort     = 80
	DefaultServerThreads  = 16
	DefaultBinarySource   = "server"
	DefaultExecutableMode = os.FileMode(0o755)
)

// FileCopy places one file from the build context at a fixed path in the image.
type FileCopy struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Mode        os.FileMode `json:"mode"`
}

// Executable reports whether the copied file carries any execute bit.
func (f FileCopy) Executable() bool {
	return f.Mode&0o111 != 0
}

// Port is a documented network port of the image.
type Port struct {
	Number   int    `json:"number"`
	Protocol string `json:"protocol"`
}

func (p Port) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return fmt.Sprintf("%d/%s", p.Number, proto)
}

// ImageDescriptor is the declarative recipe for a container image: a base image,
// the directories to create, the files to copy, the documented ports and the
// process launched when a container starts.
//
// Steps are applied in that order and the rendered recipe is deterministic, so
// building twice from unchanged inputs yields the same layout.
type ImageDescriptor struct {
	BaseImage    string            `json:"base_image"`
	Directories  []string          `json:"directories"`
	Files        []FileCopy        `json:"files"`
	ExposedPorts []Port            `json:"exposed_ports"`
	Entrypoint   []string          `json:"entrypoint"`
	Labels       map[string]string `json:"labels,omitempty"`
}

// DefaultImageDescriptor returns the recipe used to package the file server.
func DefaultImageDescriptor() ImageDescriptor {
	return ImageDescriptor{
		BaseImage:   DefaultBaseImage,
		Directories: []string{ServerCacheDir, StorageCacheDir},
		Files: []FileCopy{{
			Source:      DefaultBinarySource,
			Destination: ServerBinary,
			Mode:        DefaultExecutableMode,
		}},
		ExposedPorts: []Port{{Number: DefaultServerPort, Protocol: "tcp"}},
		Entrypoint: []string{
			ServerBinary,
			fmt.Sprintf("--threads=%d", DefaultServerThreads),
			fmt.Sprintf("%d", DefaultServerPort),
			"--storage=" + StorageDir,
		},
	}
}

// NormalizedBaseImage returns the fully qualified form of BaseImage,
// e.g. "alpine:3.20" becomes "docker.io/library/alpine:3.20".
func (d ImageDescriptor) NormalizedBaseImage() (string, error) {
	named, err := reference.ParseNormalizedNamed(d.BaseImage)
	if err != nil {
		return "", fmt.Errorf("parse base image %q: %w", d.BaseImage, err)
	}
	return reference.TagNameOnly(named).String(), nil
}

// Validate checks the descriptor and reports every problem found.
// Entrypoint arguments are deliberately left unchecked; their meaning belongs
// to the launched process.
func (d ImageDescriptor) Validate() error {
	var errs []error

	if d.BaseImage == "" {
		errs = append(errs, errors.New("base image is required"))
	} else if _, err := d.NormalizedBaseImage(); err != nil {
		errs = append(errs, err)
	}

	for _, dir := range d.Directories {
		if !path.IsAbs(dir) {
			errs = append(errs, fmt.Errorf("directory %q must be absolute", dir))
		}
	}

	dests := make(map[string]FileCopy, len(d.Files))
	for _, f := range d.Files {
		if f.Source == "" {
			errs = append(errs, errors.New("file source is required"))
		} else if !LocalPath(f.Source) {
			errs = append(errs, fmt.Errorf("file source %q must stay inside the build context", f.Source))
		}
		if !path.IsAbs(f.Destination) {
			errs = append(errs, fmt.Errorf("file destination %q must be absolute", f.Destination))
		}
		dests[f.Destination] = f
	}

	for _, p := range d.ExposedPorts {
		if p.Number < 1 || p.Number > 65535 {
			errs = append(errs, fmt.Errorf("port %d out of range", p.Number))
		}
		switch p.Protocol {
		case "", "tcp", "udp", "sctp":
		default:
			errs = append(errs, fmt.Errorf("port %d: unknown protocol %q", p.Number, p.Protocol))
		}
	}

	if len(d.Entrypoint) == 0 {
		errs = append(errs, errors.New("entrypoint is required"))
	} else if f, ok := dests[d.Entrypoint[0]]; ok && !f.Executable() {
		errs = append(errs, fmt.Errorf("entrypoint %q is copied without an execute bit", f.Destination))
	}

	return errors.Join(errs...)
}

// LocalPath reports whether p is a relative slash path that does not escape
// its root once cleaned.
func LocalPath(p string) bool {
	if p == "" || path.IsAbs(p) {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// Render returns the descriptor as a Dockerfile.
func (d ImageDescriptor) Render() (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("invalid image descriptor: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", d.BaseImage)

	if len(d.Labels) > 0 {
		keys := make([]string, 0, len(d.Labels))
		for k := range d.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "LABEL %s=%q\n", k, d.Labels[k])
		}
	}

	if len(d.Directories) > 0 {
		fmt.Fprintf(&b, "RUN mkdir -p %s\n", strings.Join(d.Directories, " "))
	}

	for _, f := range d.Files {
		fmt.Fprintf(&b, "COPY %s %s\n", path.Clean(f.Source), f.Destination)
		if f.Mode != 0 {
			fmt.Fprintf(&b, "RUN chmod %04o %s\n", f.Mode.Perm(), f.Destination)
		}
	}

	for _, p := range d.ExposedPorts {
		fmt.Fprintf(&b, "EXPOSE %s\n", p)
	}

	entrypoint, err := json.Marshal(d.Entrypoint)
	if err != nil {
		return "", fmt.Errorf("encode entrypoint: %w", err)
	}
	fmt.Fprintf(&b, "ENTRYPOINT %s\n", entrypoint)

	return b.String(), nil
}
