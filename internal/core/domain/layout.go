package domain

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// PathStat describes one path inside a built image.
type PathStat struct {
	Path   string
	Exists bool
	Mode   os.FileMode
}

// ImageConfig is the runtime configuration recorded in a built image.
type ImageConfig struct {
	Entrypoint   []string
	Cmd          []string
	ExposedPorts []string
}

// LayoutPaths lists every path a built image must contain.
func (d ImageDescriptor) LayoutPaths() []string {
	paths := make([]string, 0, len(d.Directories)+len(d.Files))
	paths = append(paths, d.Directories...)
	for _, f := range d.Files {
		paths = append(paths, f.Destination)
	}
	return paths
}

// CheckImage compares a built image against the descriptor: the entrypoint must
// match argument for argument, every declared port must be exposed, every
// directory must exist and every copied file must exist with its execute bits.
func (d ImageDescriptor) CheckImage(cfg ImageConfig, stats map[string]PathStat) error {
	var errs []error

	if !slices.Equal(cfg.Entrypoint, d.Entrypoint) {
		errs = append(errs, fmt.Errorf("entrypoint is %q, want %q", cfg.Entrypoint, d.Entrypoint))
	}
	if len(cfg.Cmd) > 0 {
		errs = append(errs, fmt.Errorf("image carries extra arguments %q", cfg.Cmd))
	}

	for _, p := range d.ExposedPorts {
		if !slices.Contains(cfg.ExposedPorts, p.String()) {
			errs = append(errs, fmt.Errorf("port %s is not exposed", p))
		}
	}

	for _, dir := range d.Directories {
		st, ok := stats[dir]
		switch {
		case !ok || !st.Exists:
			errs = append(errs, fmt.Errorf("directory %s is missing", dir))
		case !st.Mode.IsDir():
			errs = append(errs, fmt.Errorf("%s is not a directory", dir))
		case st.Mode.Perm()&0o200 == 0:
			errs = append(errs, fmt.Errorf("directory %s is not writable", dir))
		}
	}

	for _, f := range d.Files {
		st, ok := stats[f.Destination]
		switch {
		case !ok || !st.Exists:
			errs = append(errs, fmt.Errorf("file %s is missing", f.Destination))
		case !st.Mode.IsRegular():
			errs = append(errs, fmt.Errorf("%s is not a regular file", f.Destination))
		case f.Executable() && st.Mode.Perm()&0o111 == 0:
			errs = append(errs, fmt.Errorf("file %s is not executable", f.Destination))
		}
	}

	return errors.Join(errs...)
}
