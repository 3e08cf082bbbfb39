package domain

// Container represents a container started from a built image.
type Container struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Status    string `json:"status"`
	State     string `json:"state"` // running, exited, etc.
	IPAddress string `json:"ip_address,omitempty"`
}

// RunOptions controls how a container is started from an image.
type RunOptions struct {
	Name string
	// Command replaces the image entrypoint arguments when non-empty.
	Command []string
	// PortBindings maps an exposed port ("80/tcp") to a host port.
	PortBindings map[string]string
	// Volumes maps host paths to container paths.
	Volumes map[string]string
	Labels  map[string]string
}
