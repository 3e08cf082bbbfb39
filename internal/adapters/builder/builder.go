package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

// Adapter implements ports.BuilderService using the Docker SDK.
type Adapter struct {
	cli *client.Client
}

var _ ports.BuilderService = (*Adapter)(nil)

func NewBuilderAdapter(opts ...client.Opt) (*Adapter, error) {
	opts = append([]client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}, opts...)
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// BuildImage renders the descriptor, assembles a build context holding only
// the Dockerfile and the files it copies, and builds it.
func (a *Adapter) BuildImage(ctx context.Context, req ports.BuildRequest) (string, error) {
	// 1. Create temporary directory
	tmpDir, err := os.MkdirTemp("", "fileserver-build-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir) // Clean up after build

	// 2. Assemble the build context; missing sources fail here, before the daemon is involved
	if err := PrepareContext(req.Descriptor, req.ContextDir, tmpDir); err != nil {
		return "", err
	}

	// 3. Create Build Context (Tar)
	tar, err := archive.TarWithOptions(tmpDir, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create build context: %w", err)
	}
	defer tar.Close()

	// 4. Build Docker Image
	progress := req.Progress
	if progress == nil {
		progress = io.Discard
	}
	fmt.Fprintf(progress, "Building image %v from %s...\n", req.Tags, req.Descriptor.BaseImage)
	resp, err := a.cli.ImageBuild(ctx, tar, types.ImageBuildOptions{
		Tags:        req.Tags,
		Dockerfile:  DockerfileName,
		Remove:      true, // Remove intermediate containers
		ForceRemove: true,
		NoCache:     req.NoCache,
		PullParent:  req.Pull,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	// 5. Wait for the build to complete; the daemon reports failures inside the stream
	id, err := ReadBuildOutput(resp.Body, progress)
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	if id == "" && len(req.Tags) > 0 {
		id = req.Tags[0]
	}
	return id, nil
}

// BuildFromRepo clones a repository and builds the descriptor with the clone
// as the build context. req.ContextDir is taken relative to the repository root.
func (a *Adapter) BuildFromRepo(ctx context.Context, repoURL, ref string, req ports.BuildRequest) (string, error) {
	tmpDir, err := os.MkdirTemp("", "fileserver-clone-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	progress := req.Progress
	if progress == nil {
		progress = io.Discard
	}

	fmt.Fprintf(progress, "Cloning %s into %s...\n", repoURL, tmpDir)
	opts := &git.CloneOptions{
		URL:      repoURL,
		Progress: progress,
		Depth:    1, // Shallow clone for speed
	}
	if ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
		opts.SingleBranch = true
	}
	if _, err := git.PlainCloneContext(ctx, tmpDir, false, opts); err != nil {
		return "", fmt.Errorf("failed to clone repo: %w", err)
	}

	req.ContextDir = filepath.Join(tmpDir, filepath.FromSlash(req.ContextDir))
	return a.BuildImage(ctx, req)
}
