// Package descriptor reads image descriptors from YAML or TOML files.
package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

// File is the on-disk shape of an image descriptor. Modes are octal strings
// such as "0755"; ports are written as "80" or "80/tcp".
type File struct {
	BaseImage   string            `yaml:"base_image" toml:"base_image"`
	Directories []string          `yaml:"directories" toml:"directories"`
	Files       []FileEntry       `yaml:"files" toml:"files"`
	Expose      []string          `yaml:"expose" toml:"expose"`
	Entrypoint  []string          `yaml:"entrypoint" toml:"entrypoint"`
	Labels      map[string]string `yaml:"labels,omitempty" toml:"labels,omitempty"`
}

type FileEntry struct {
	Source      string `yaml:"source" toml:"source"`
	Destination string `yaml:"destination" toml:"destination"`
	Mode        string `yaml:"mode" toml:"mode"`
}

// Load reads the descriptor at path. The format follows the extension:
// .toml for TOML, anything else is YAML (which also accepts JSON).
func Load(path string) (domain.ImageDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageDescriptor{}, fmt.Errorf("read descriptor: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return domain.ImageDescriptor{}, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return domain.ImageDescriptor{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	d, err := f.Descriptor()
	if err != nil {
		return domain.ImageDescriptor{}, fmt.Errorf("descriptor %s: %w", path, err)
	}
	return d, nil
}

// Descriptor converts the file form into the domain type.
func (f File) Descriptor() (domain.ImageDescriptor, error) {
	d := domain.ImageDescriptor{
		BaseImage:   f.BaseImage,
		Directories: f.Directories,
		Entrypoint:  f.Entrypoint,
		Labels:      f.Labels,
	}
	for _, e := range f.Files {
		fc := domain.FileCopy{Source: e.Source, Destination: e.Destination}
		if e.Mode != "" {
			mode, err := strconv.ParseUint(e.Mode, 8, 32)
			if err != nil {
				return domain.ImageDescriptor{}, fmt.Errorf("file %s: mode %q is not octal", e.Source, e.Mode)
			}
			fc.Mode = os.FileMode(mode)
		}
		d.Files = append(d.Files, fc)
	}
	for _, spec := range f.Expose {
		p, err := ParsePort(spec)
		if err != nil {
			return domain.ImageDescriptor{}, err
		}
		d.ExposedPorts = append(d.ExposedPorts, p)
	}
	return d, nil
}

// ParsePort reads "80" or "80/udp".
func ParsePort(spec string) (domain.Port, error) {
	num, proto, _ := strings.Cut(spec, "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return domain.Port{}, fmt.Errorf("port %q: %w", spec, err)
	}
	if proto == "" {
		proto = "tcp"
	}
	return domain.Port{Number: n, Protocol: proto}, nil
}

// FromDescriptor converts a domain descriptor back into its file form.
func FromDescriptor(d domain.ImageDescriptor) File {
	f := File{
		BaseImage:   d.BaseImage,
		Directories: d.Directories,
		Entrypoint:  d.Entrypoint,
		Labels:      d.Labels,
	}
	for _, fc := range d.Files {
		e := FileEntry{Source: fc.Source, Destination: fc.Destination}
		if fc.Mode != 0 {
			e.Mode = fmt.Sprintf("%04o", fc.Mode.Perm())
		}
		f.Files = append(f.Files, e)
	}
	for _, p := range d.ExposedPorts {
		f.Expose = append(f.Expose, p.String())
	}
	return f
}

// MarshalYAML renders d in the YAML file form.
func MarshalYAML(d domain.ImageDescriptor) ([]byte, error) {
	return yaml.Marshal(FromDescriptor(d))
}
