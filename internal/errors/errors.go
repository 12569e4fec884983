package errors

import "errors"

var (
	ErrImageNameRequired         = errors.New("image name is required")
	ErrRegistryNamespaceRequired = errors.New("registry namespace is required")
	ErrClusterEndpointRequired   = errors.New("cluster endpoint is required")
	ErrClusterTokenRequired      = errors.New("cluster bearer token is required")
	ErrDeploymentRequired        = errors.New("deployment name is required")
	ErrHookSecretRequired        = errors.New("webhook secret is required")
	ErrInvalidImageRef           = errors.New("invalid image reference")
	ErrSignatureMismatch         = errors.New("webhook signature mismatch")
)
