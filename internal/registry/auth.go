package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	dockerregistry "github.com/docker/docker/api/types/registry"
)

// Credentials holds a username/password pair for a container registry.
type Credentials struct {
	Username string
	Password string
}

// EncodeAuth renders credentials as the base64-encoded AuthConfig the
// Docker Engine API expects in the X-Registry-Auth header.
func EncodeAuth(creds Credentials, host string) (string, error) {
	authConfig := dockerregistry.AuthConfig{
		Username:      creds.Username,
		Password:      creds.Password,
		ServerAddress: host,
	}

	buf, err := json.Marshal(authConfig)
	if err != nil {
		return "", fmt.Errorf("failed to marshal registry auth config: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// ResolveAuth returns the X-Registry-Auth header value for the given
// registry host. ECR hosts exchange ambient AWS credentials for a
// registry token; every other host uses the static credentials as-is.
// Empty credentials against a non-ECR host yield an empty header,
// which the Engine API treats as an anonymous push.
func ResolveAuth(ctx context.Context, host string, creds Credentials) (string, error) {
	if IsECR(host) {
		authorizer, err := NewECRAuthorizer(ctx)
		if err != nil {
			return "", err
		}
		creds, err = authorizer.Credentials(ctx)
		if err != nil {
			return "", err
		}
	}

	if creds.Username == "" && creds.Password == "" {
		return "", nil
	}
	return EncodeAuth(creds, host)
}
