package ports

import (
	"context"
	"io"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

// BuildRequest describes one image build.
type BuildRequest struct {
	Descriptor domain.ImageDescriptor
	// ContextDir holds the sources named by the descriptor's files.
	ContextDir string
	Tags       []string
	// Progress receives the build output. Nil discards it.
	Progress io.Writer
	NoCache  bool
	Pull     bool
}

// BuilderService defines operations for building container images from an image descriptor.
type BuilderService interface {
	// BuildImage builds the descriptor against a local build context.
	// It returns the ID of the built image or an error.
	BuildImage(ctx context.Context, req BuildRequest) (string, error)
	// BuildFromRepo clones a repository and uses it as the build context.
	BuildFromRepo(ctx context.Context, repoURL, ref string, req BuildRequest) (string, error)
}
