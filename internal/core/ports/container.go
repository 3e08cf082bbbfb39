package ports

import (
	"context"
	"io"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

// ContainerService defines the core operations for running built images.
// This interface allows us to switch between Docker, Podman, or Kubernetes
// without changing the business logic.
type ContainerService interface {
	ListContainers(ctx context.Context, image string) ([]domain.Container, error)
	StartContainer(ctx context.Context, image string, opts domain.RunOptions) (string, error)
	StopContainer(ctx context.Context, id string) error
	GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error)
}

// ImageInspector reads back what a build produced.
type ImageInspector interface {
	InspectImage(ctx context.Context, image string) (domain.ImageConfig, error)
	StatPaths(ctx context.Context, image string, paths []string) (map[string]domain.PathStat, error)
}
