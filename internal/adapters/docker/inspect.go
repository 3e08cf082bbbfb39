package docker

import (
	"context"
	"fmt"
	"sort"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/google/uuid"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

// InspectImage reads the runtime configuration recorded in an image.
func (a *Adapter) InspectImage(ctx context.Context, image string) (domain.ImageConfig, error) {
	info, _, err := a.cli.ImageInspectWithRaw(ctx, image)
	if err != nil {
		return domain.ImageConfig{}, fmt.Errorf("failed to inspect image %s: %w", image, err)
	}
	return toImageConfig(info.Config), nil
}

func toImageConfig(cfg *container.Config) domain.ImageConfig {
	var out domain.ImageConfig
	if cfg == nil {
		return out
	}
	out.Entrypoint = []string(cfg.Entrypoint)
	out.Cmd = []string(cfg.Cmd)
	for p := range cfg.ExposedPorts {
		out.ExposedPorts = append(out.ExposedPorts, string(p))
	}
	sort.Strings(out.ExposedPorts)
	return out
}

// StatPaths reports the given paths inside an image. It creates a container
// that is never started, stats each path through the archive API and removes
// the container again.
func (a *Adapter) StatPaths(ctx context.Context, image string, paths []string) (map[string]domain.PathStat, error) {
	name := "fileserver-verify-" + uuid.NewString()
	resp, err := a.cli.ContainerCreate(ctx, &container.Config{
		Image:  image,
		Labels: map[string]string{ManagedLabel: "verify"},
	}, nil, nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	defer func() {
		_ = a.cli.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true})
	}()

	stats := make(map[string]domain.PathStat, len(paths))
	for _, p := range paths {
		st, err := a.cli.ContainerStatPath(ctx, resp.ID, p)
		if errdefs.IsNotFound(err) {
			stats[p] = domain.PathStat{Path: p}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		stats[p] = domain.PathStat{Path: p, Exists: true, Mode: st.Mode}
	}
	return stats, nil
}
