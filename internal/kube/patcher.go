// Package kube issues the deployment image update: a single JSON-patch
// "replace" against the workload's container image reference.
package kube

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Target names the workload whose image gets replaced.
type Target struct {
	Namespace  string
	Deployment string
	Container  int // index into spec.template.spec.containers
}

// Patcher updates deployment image references through the cluster API.
type Patcher struct {
	client kubernetes.Interface
}

// New creates a Patcher from an existing clientset.
func New(client kubernetes.Interface) *Patcher {
	return &Patcher{client: client}
}

// NewForEndpoint creates a Patcher talking to the given cluster API
// endpoint with bearer-token authentication.
func NewForEndpoint(endpoint, token string, insecureSkipTLSVerify bool) (*Patcher, error) {
	cfg := &rest.Config{
		Host:        endpoint,
		BearerToken: token,
	}
	if insecureSkipTLSVerify {
		cfg.TLSClientConfig = rest.TLSClientConfig{Insecure: true}
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client for %s: %w", endpoint, err)
	}
	return &Patcher{client: client}, nil
}

// patchOp is a single RFC 6902 JSON Patch operation
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// SetImage replaces the target container's image with the given
// reference. Exactly one PATCH is sent; a non-2xx response is returned
// as an error with no retry and no rollback.
func (p *Patcher) SetImage(ctx context.Context, target Target, image string) error {
	logger := zerolog.Ctx(ctx)

	namespace := target.Namespace
	if namespace == "" {
		namespace = metav1.NamespaceDefault
	}
	if target.Deployment == "" {
		return fmt.Errorf("deployment name is required")
	}

	body, err := json.Marshal([]patchOp{
		{
			Op:    "replace",
			Path:  fmt.Sprintf("/spec/template/spec/containers/%d/image", target.Container),
			Value: image,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal patch body: %w", err)
	}

	logger.Info().
		Str("namespace", namespace).
		Str("deployment", target.Deployment).
		Int("container", target.Container).
		Str("image", image).
		Msg("Patching deployment image")

	result, err := p.client.AppsV1().
		Deployments(namespace).
		Patch(ctx, target.Deployment, types.JSONPatchType, body, metav1.PatchOptions{})
	if err != nil {
		return fmt.Errorf("failed to patch deployment %s/%s: %w", namespace, target.Deployment, err)
	}

	logger.Info().
		Str("namespace", namespace).
		Str("deployment", target.Deployment).
		Str("image", containerImage(result, target.Container)).
		Int64("generation", result.Generation).
		Msg("Deployment image updated")

	return nil
}

// containerImage reads the image the cluster reports for the container
// after the patch.
func containerImage(d *appsv1.Deployment, index int) string {
	containers := d.Spec.Template.Spec.Containers
	if index < 0 || index >= len(containers) {
		return ""
	}
	return containers[index].Image
}
