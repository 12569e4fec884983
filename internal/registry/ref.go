// Package registry handles container image references and registry
// authentication, including token exchange for Amazon ECR registries.
package registry

import (
	"fmt"
	"strings"

	"github.com/kubeship/kubeship/internal/errors"
)

// Ref identifies a container image in a registry. Host is empty for
// Docker Hub; Namespace is the registry user or organization.
type Ref struct {
	Host      string
	Namespace string
	Name      string
	Tag       string
}

// String renders the canonical image reference, e.g. "user/steem-api:v1.2.3"
// or "123456789012.dkr.ecr.us-east-1.amazonaws.com/steem-api:v1.2.3".
func (r Ref) String() string {
	var sb strings.Builder
	if r.Host != "" {
		sb.WriteString(r.Host)
		sb.WriteByte('/')
	}
	if r.Namespace != "" {
		sb.WriteString(r.Namespace)
		sb.WriteByte('/')
	}
	sb.WriteString(r.Name)
	if r.Tag != "" {
		sb.WriteByte(':')
		sb.WriteString(r.Tag)
	}
	return sb.String()
}

// Validate checks that the reference can be published: name and tag are
// mandatory, and Docker Hub references need a namespace.
func (r Ref) Validate() error {
	if r.Name == "" {
		return errors.ErrImageNameRequired
	}
	if r.Host == "" && r.Namespace == "" {
		return errors.ErrRegistryNamespaceRequired
	}
	if r.Tag == "" {
		return fmt.Errorf("%w: missing tag in %q", errors.ErrInvalidImageRef, r.String())
	}
	return nil
}

// ParseRef parses an image reference string back into its components.
// The first path segment is treated as a registry host when it contains
// a dot or a port, mirroring the docker CLI's heuristic.
func ParseRef(s string) (Ref, error) {
	if s == "" {
		return Ref{}, fmt.Errorf("%w: empty reference", errors.ErrInvalidImageRef)
	}

	var ref Ref
	rest := s
	if i := strings.LastIndex(rest, ":"); i >= 0 && !strings.Contains(rest[i+1:], "/") {
		ref.Tag = rest[i+1:]
		rest = rest[:i]
	}

	parts := strings.Split(rest, "/")
	if strings.Contains(parts[0], ".") || strings.Contains(parts[0], ":") {
		ref.Host = parts[0]
		parts = parts[1:]
	}

	switch len(parts) {
	case 1:
		ref.Name = parts[0]
	case 2:
		ref.Namespace = parts[0]
		ref.Name = parts[1]
	default:
		return Ref{}, fmt.Errorf("%w: too many path segments in %q", errors.ErrInvalidImageRef, s)
	}

	if ref.Name == "" {
		return Ref{}, fmt.Errorf("%w: missing name in %q", errors.ErrInvalidImageRef, s)
	}
	return ref, nil
}
