package docker

import (
	"slices"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/go-connections/nat"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

func TestContainerSpec(t *testing.T) {
	cfg, host, err := containerSpec("fileserver:latest", domain.RunOptions{
		PortBindings: map[string]string{"80/tcp": "8080"},
		Volumes:      map[string]string{"/srv/cache": "/opt/storage"},
		Labels:       map[string]string{"team": "build"},
	})
	if err != nil {
		t.Fatalf("containerSpec: %v", err)
	}

	if cfg.Image != "fileserver:latest" {
		t.Errorf("Image = %q", cfg.Image)
	}
	if len(cfg.Cmd) != 0 {
		t.Errorf("Cmd = %v, want image default", cfg.Cmd)
	}
	if cfg.Labels[ManagedLabel] != "true" || cfg.Labels["team"] != "build" {
		t.Errorf("Labels = %v", cfg.Labels)
	}
	port := nat.Port("80/tcp")
	if _, ok := cfg.ExposedPorts[port]; !ok {
		t.Errorf("ExposedPorts = %v", cfg.ExposedPorts)
	}
	if b := host.PortBindings[port]; len(b) != 1 || b[0].HostPort != "8080" {
		t.Errorf("PortBindings = %v", host.PortBindings)
	}
	if !slices.Equal(host.Binds, []string{"/srv/cache:/opt/storage"}) {
		t.Errorf("Binds = %v", host.Binds)
	}
}

func TestContainerSpecBadPort(t *testing.T) {
	if _, _, err := containerSpec("img", domain.RunOptions{PortBindings: map[string]string{"http": "80"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestToDomain(t *testing.T) {
	c := toDomain(types.Container{
		ID:     "0123456789abcdef0123",
		Names:  []string{"/fileserver"},
		Image:  "fileserver:latest",
		Status: "Up 2 seconds",
		State:  "running",
		NetworkSettings: &types.SummaryNetworkSettings{
			Networks: map[string]*network.EndpointSettings{"bridge": {IPAddress: "172.17.0.2"}},
		},
	})
	want := domain.Container{
		ID:        "0123456789ab",
		Name:      "fileserver",
		Image:     "fileserver:latest",
		Status:    "Up 2 seconds",
		State:     "running",
		IPAddress: "172.17.0.2",
	}
	if c != want {
		t.Fatalf("toDomain = %+v, want %+v", c, want)
	}
}

func TestToImageConfig(t *testing.T) {
	got := toImageConfig(&container.Config{
		Entrypoint:   strslice.StrSlice{"/opt/server/server", "--threads=16", "80", "--storage=/opt/storage/"},
		ExposedPorts: nat.PortSet{"80/tcp": {}, "443/tcp": {}},
	})
	if !slices.Equal(got.Entrypoint, []string{"/opt/server/server", "--threads=16", "80", "--storage=/opt/storage/"}) {
		t.Errorf("Entrypoint = %v", got.Entrypoint)
	}
	if !slices.Equal(got.ExposedPorts, []string{"443/tcp", "80/tcp"}) {
		t.Errorf("ExposedPorts = %v", got.ExposedPorts)
	}

	if empty := toImageConfig(nil); len(empty.Entrypoint) != 0 {
		t.Errorf("nil config gave %+v", empty)
	}
}
