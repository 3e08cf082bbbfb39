package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

// ManagedLabel marks containers started by this tool.
const ManagedLabel = "io.github.kronenthaler.simple-http-file-server"

// Adapter implements ports.ContainerService and ports.ImageInspector using Docker SDK
type Adapter struct {
	cli *client.Client
}

var (
	_ ports.ContainerService = (*Adapter)(nil)
	_ ports.ImageInspector   = (*Adapter)(nil)
)

// NewAdapter creates a new Docker adapter instance
func NewAdapter(opts ...client.Opt) (*Adapter, error) {
	opts = append([]client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}, opts...)
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// Close releases the client's connections.
func (a *Adapter) Close() error {
	return a.cli.Close()
}

// ListContainers returns the containers started by this tool, optionally
// only those running the given image.
func (a *Adapter) ListContainers(ctx context.Context, image string) ([]domain.Container, error) {
	args := filters.NewArgs(filters.Arg("label", ManagedLabel))
	if image != "" {
		args.Add("ancestor", image)
	}
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]domain.Container, 0, len(containers))
	for _, c := range containers {
		result = append(result, toDomain(c))
	}
	return result, nil
}

func toDomain(c types.Container) domain.Container {
	// Use the first name if available, remove slash
	name := ""
	if len(c.Names) > 0 {
		name = c.Names[0][1:]
	}
	id := c.ID
	if len(id) > 12 {
		id = id[:12] // Short ID
	}
	ip := ""
	if c.NetworkSettings != nil {
		for _, n := range c.NetworkSettings.Networks {
			if n != nil && n.IPAddress != "" {
				ip = n.IPAddress
				break
			}
		}
	}
	return domain.Container{
		ID:        id,
		Name:      name,
		Image:     c.Image,
		Status:    c.Status,
		State:     c.State,
		IPAddress: ip,
	}
}

// containerSpec maps run options onto the Docker create request. The image's
// entrypoint is kept; Command only replaces its arguments.
func containerSpec(image string, opts domain.RunOptions) (*container.Config, *container.HostConfig, error) {
	labels := map[string]string{ManagedLabel: "true"}
	for k, v := range opts.Labels {
		labels[k] = v
	}

	cfg := &container.Config{
		Image:        image,
		Cmd:          opts.Command,
		Labels:       labels,
		ExposedPorts: nat.PortSet{},
	}
	host := &container.HostConfig{PortBindings: nat.PortMap{}}

	for spec, hostPort := range opts.PortBindings {
		proto, port := nat.SplitProtoPort(spec)
		p, err := nat.NewPort(proto, port)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid port %q: %w", spec, err)
		}
		cfg.ExposedPorts[p] = struct{}{}
		host.PortBindings[p] = []nat.PortBinding{{HostPort: hostPort}}
	}
	for hostPath, containerPath := range opts.Volumes {
		host.Binds = append(host.Binds, hostPath+":"+containerPath)
	}
	return cfg, host, nil
}

// StartContainer creates and starts a container from a given image
func (a *Adapter) StartContainer(ctx context.Context, image string, opts domain.RunOptions) (string, error) {
	cfg, host, err := containerSpec(image, opts)
	if err != nil {
		return "", err
	}

	// 1. Create Container (the image is expected to be local, it was just built)
	resp, err := a.cli.ContainerCreate(ctx, cfg, host, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	// 2. Start Container
	if err := a.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	return resp.ID, nil
}

// StopContainer stops a running container
func (a *Adapter) StopContainer(ctx context.Context, id string) error {
	timeout := 10 * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()
	seconds := int(timeout.Seconds())
	if err := a.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &seconds}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// GetContainerLogs returns a stream of container logs
func (a *Adapter) GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     false, // Can be true for streaming
		Timestamps: true,
	}
	return a.cli.ContainerLogs(ctx, id, options)
}
