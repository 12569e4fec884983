// Package builder publishes container images through the Docker Engine
// API: build from a local context, then push to the registry.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/rs/zerolog"

	"github.com/kubeship/kubeship/internal/registry"
)

// APIClient is the subset of the Docker Engine API used to publish
// images. *client.Client satisfies it.
type APIClient interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePush(ctx context.Context, image string, options image.PushOptions) (io.ReadCloser, error)
}

// Input describes a single build-and-push operation.
type Input struct {
	ContextDir string       // directory holding the build context
	Dockerfile string       // path relative to ContextDir, default "Dockerfile"
	Image      registry.Ref // fully tagged target reference
	Auth       string       // X-Registry-Auth header value, empty for anonymous
}

// Builder builds and pushes container images.
type Builder struct {
	docker APIClient
}

// New creates a Builder on top of a Docker Engine API client.
func New(docker APIClient) *Builder {
	return &Builder{docker: docker}
}

// Publish builds the image from the given context and pushes it under
// its tag. It returns the published reference. Any build or push error,
// including errors reported inside the Engine's JSON progress stream,
// fails the whole operation; there is no partial-success state.
func (b *Builder) Publish(ctx context.Context, input Input) (string, error) {
	logger := zerolog.Ctx(ctx)

	if err := input.Image.Validate(); err != nil {
		return "", err
	}
	ref := input.Image.String()

	dockerfile := input.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	contextDir := input.ContextDir
	if contextDir == "" {
		contextDir = "."
	}

	if _, err := os.Stat(contextDir); err != nil {
		return "", fmt.Errorf("build context %s not accessible: %w", contextDir, err)
	}

	logger.Info().
		Str("image", ref).
		Str("context", contextDir).
		Str("dockerfile", dockerfile).
		Msg("Building image")

	buildContext, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to tar build context %s: %w", contextDir, err)
	}
	defer buildContext.Close()

	resp, err := b.docker.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:       []string{ref},
		Dockerfile: dockerfile,
		Remove:     true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image %s: %w", ref, err)
	}
	if err := drainStream(resp.Body); err != nil {
		return "", fmt.Errorf("build of %s failed: %w", ref, err)
	}

	logger.Info().Str("image", ref).Msg("Pushing image")

	pushStream, err := b.docker.ImagePush(ctx, ref, image.PushOptions{
		RegistryAuth: input.Auth,
	})
	if err != nil {
		return "", fmt.Errorf("failed to push image %s: %w", ref, err)
	}
	if err := drainStream(pushStream); err != nil {
		return "", fmt.Errorf("push of %s failed: %w", ref, err)
	}

	logger.Info().Str("image", ref).Msg("Published image")
	return ref, nil
}

// drainStream consumes an Engine API progress stream and surfaces any
// error message embedded in it. The daemon reports failures mid-stream
// with a 200 status, so the body must be read to completion.
func drainStream(body io.ReadCloser) error {
	defer body.Close()
	return jsonmessage.DisplayJSONMessagesStream(body, io.Discard, 0, false, nil)
}
