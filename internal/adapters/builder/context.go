package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

// DockerfileName is the name of the rendered recipe inside the build context.
const DockerfileName = "Dockerfile"

// PrepareContext writes the rendered Dockerfile into dst and copies every
// source named by the descriptor from srcDir, keeping relative paths.
func PrepareContext(d domain.ImageDescriptor, srcDir, dst string) error {
	dockerfile, err := d.Render()
	if err != nil {
		return err
	}

	for _, f := range d.Files {
		rel := filepath.FromSlash(f.Source)
		if err := copyFile(filepath.Join(srcDir, rel), filepath.Join(dst, rel)); err != nil {
			return err
		}
	}

	if err := os.WriteFile(filepath.Join(dst, DockerfileName), []byte(dockerfile), 0o644); err != nil {
		return fmt.Errorf("write Dockerfile: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrSourceMissing, src)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", domain.ErrSourceMissing, src)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// baseImageFailures are daemon messages meaning the FROM image could not be resolved.
var baseImageFailures = []string{
	"pull access denied",
	"manifest unknown",
	"repository does not exist",
	"failed to resolve",
}

// ReadBuildOutput relays a build response stream to out and returns the ID
// of the built image. A failure reported in the stream becomes the error.
func ReadBuildOutput(body io.Reader, out io.Writer) (string, error) {
	var id string
	aux := func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var result types.BuildResult
		if err := json.Unmarshal(*msg.Aux, &result); err == nil && result.ID != "" {
			id = result.ID
		}
	}

	if err := jsonmessage.DisplayJSONMessagesStream(body, out, 0, false, aux); err != nil {
		var jerr *jsonmessage.JSONError
		if errors.As(err, &jerr) {
			for _, marker := range baseImageFailures {
				if strings.Contains(jerr.Message, marker) {
					return "", fmt.Errorf("%w: %s", domain.ErrBaseImageUnavailable, jerr.Message)
				}
			}
		}
		return "", err
	}
	return id, nil
}
