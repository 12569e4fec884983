// Package pipeline sequences a release: match the ref, publish the
// image, patch the deployment. Steps run strictly in order and any
// failure stops the run with no retry and no rollback.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/kubeship/kubeship/internal/trigger"
)

// Publisher builds and pushes the release image for a tag, returning
// the published image reference.
type Publisher interface {
	Publish(ctx context.Context, tag string) (string, error)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, tag string) (string, error)

func (f PublisherFunc) Publish(ctx context.Context, tag string) (string, error) {
	return f(ctx, tag)
}

// Deployer points the running workload at a published image.
type Deployer interface {
	SetImage(ctx context.Context, image string) error
}

// DeployerFunc adapts a function to the Deployer interface.
type DeployerFunc func(ctx context.Context, image string) error

func (f DeployerFunc) SetImage(ctx context.Context, image string) error {
	return f(ctx, image)
}

// Result describes the outcome of a single run.
type Result struct {
	RunID         string `json:"run_id"`
	Ref           string `json:"ref"`
	Tag           string `json:"tag,omitempty"`
	Image         string `json:"image,omitempty"`
	Skipped       bool   `json:"skipped"`
	PublishMillis int64  `json:"publish_millis,omitempty"`
	DeployMillis  int64  `json:"deploy_millis,omitempty"`
}

// Pipeline runs releases. It holds no state between runs; the only
// shared mutable resource is the remote deployment object, which is not
// protected against concurrent external modification.
type Pipeline struct {
	publisher Publisher
	deployer  Deployer
}

// New creates a Pipeline from its two effectful steps.
func New(publisher Publisher, deployer Deployer) *Pipeline {
	return &Pipeline{
		publisher: publisher,
		deployer:  deployer,
	}
}

// Run executes the release sequence for a version-control reference.
// Non-matching refs are ignored (Skipped=true, no error, no side
// effects). For matching refs the tag is extracted verbatim and flows
// through publish and deploy unchanged.
func (p *Pipeline) Run(ctx context.Context, ref string) (*Result, error) {
	runID := ksuid.New().String()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	result := &Result{RunID: runID, Ref: ref}

	tag, ok := trigger.Match(ref)
	if !ok {
		logger.Info().Str("ref", ref).Msg("Reference is not a release tag, ignoring")
		result.Skipped = true
		return result, nil
	}
	result.Tag = tag

	logger.Info().Str("ref", ref).Str("tag", tag).Msg("Starting release")

	started := time.Now()
	image, err := p.publisher.Publish(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to publish image for tag %s: %w", tag, err)
	}
	result.Image = image
	result.PublishMillis = time.Since(started).Milliseconds()

	started = time.Now()
	if err := p.deployer.SetImage(ctx, image); err != nil {
		return nil, fmt.Errorf("failed to deploy image %s: %w", image, err)
	}
	result.DeployMillis = time.Since(started).Milliseconds()

	logger.Info().
		Str("tag", tag).
		Str("image", image).
		Msg("Release complete")

	return result, nil
}
