// Package config loads tool configuration from a YAML project file
// with environment-variable overrides. Secrets (registry password,
// cluster token, webhook secret) are expected from the environment.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kubeship/kubeship/internal/errors"
)

// DefaultPath is the project configuration file looked up when no
// explicit path is given.
const DefaultPath = ".kubeship.yaml"

// Config holds all tool configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Image    ImageConfig    `yaml:"image"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Hook     HookConfig     `yaml:"hook"`
}

// RegistryConfig describes where images are pushed and how to
// authenticate. Host is empty for Docker Hub.
type RegistryConfig struct {
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace"`
	Username  string `yaml:"username"`
	Password  string `yaml:"-"` // env only, never from file
}

// ImageConfig describes what gets built.
type ImageConfig struct {
	Name       string `yaml:"name"`
	ContextDir string `yaml:"context"`
	Dockerfile string `yaml:"dockerfile"`
}

// ClusterConfig describes the deployment to patch.
type ClusterConfig struct {
	Endpoint              string `yaml:"endpoint"`
	Token                 string `yaml:"-"` // env only, never from file
	Namespace             string `yaml:"namespace"`
	Deployment            string `yaml:"deployment"`
	Container             int    `yaml:"container"`
	InsecureSkipTLSVerify bool   `yaml:"insecure_skip_tls_verify"`
}

// HookConfig describes the webhook listener.
type HookConfig struct {
	Addr   string `yaml:"addr"`
	Secret string `yaml:"-"` // env only, never from file
}

// Store loads tool configuration from some backing source.
type Store interface {
	Load(ctx context.Context) (*Config, error)
}

// FileStore loads configuration from a YAML file, then overlays
// environment variables on top.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed configuration store.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Load reads and parses the configuration file. A missing file is not
// an error; the configuration then comes entirely from the environment.
func (s *FileStore) Load(ctx context.Context) (*Config, error) {
	var cfg Config

	buf, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		// fall through to env
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", s.path, err)
	default:
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", s.path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// EnvStore loads configuration from environment variables only. Used
// in bare CI environments that carry no project file.
type EnvStore struct{}

// NewEnvStore creates an environment-backed configuration store.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// Load builds the configuration from KUBESHIP_* environment variables.
func (s *EnvStore) Load(ctx context.Context) (*Config, error) {
	var cfg Config
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Registry.Host, "KUBESHIP_REGISTRY_HOST")
	setString(&cfg.Registry.Namespace, "KUBESHIP_REGISTRY_NAMESPACE")
	setString(&cfg.Registry.Username, "KUBESHIP_REGISTRY_USERNAME")
	setString(&cfg.Registry.Password, "KUBESHIP_REGISTRY_PASSWORD")
	setString(&cfg.Image.Name, "KUBESHIP_IMAGE_NAME")
	setString(&cfg.Image.ContextDir, "KUBESHIP_CONTEXT_DIR")
	setString(&cfg.Image.Dockerfile, "KUBESHIP_DOCKERFILE")
	setString(&cfg.Cluster.Endpoint, "KUBESHIP_CLUSTER_ENDPOINT")
	setString(&cfg.Cluster.Token, "KUBESHIP_CLUSTER_TOKEN")
	setString(&cfg.Cluster.Namespace, "KUBESHIP_CLUSTER_NAMESPACE")
	setString(&cfg.Cluster.Deployment, "KUBESHIP_DEPLOYMENT")
	setInt(&cfg.Cluster.Container, "KUBESHIP_CONTAINER_INDEX")
	setBool(&cfg.Cluster.InsecureSkipTLSVerify, "KUBESHIP_INSECURE_SKIP_TLS_VERIFY")
	setString(&cfg.Hook.Addr, "KUBESHIP_HOOK_ADDR")
	setString(&cfg.Hook.Secret, "KUBESHIP_HOOK_SECRET")
}

func applyDefaults(cfg *Config) {
	if cfg.Image.ContextDir == "" {
		cfg.Image.ContextDir = "."
	}
	if cfg.Image.Dockerfile == "" {
		cfg.Image.Dockerfile = "Dockerfile"
	}
	if cfg.Cluster.Namespace == "" {
		cfg.Cluster.Namespace = "default"
	}
	if cfg.Hook.Addr == "" {
		cfg.Hook.Addr = ":8080"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// ValidateRelease checks everything the full release pipeline needs.
// Validation runs before any side effect so that a misconfigured run
// fails without publishing anything.
func (c *Config) ValidateRelease() error {
	if c.Image.Name == "" {
		return errors.ErrImageNameRequired
	}
	if c.Registry.Host == "" && c.Registry.Namespace == "" {
		return errors.ErrRegistryNamespaceRequired
	}
	return c.ValidateDeploy()
}

// ValidateDeploy checks everything the deployment patch needs.
func (c *Config) ValidateDeploy() error {
	if c.Cluster.Endpoint == "" {
		return errors.ErrClusterEndpointRequired
	}
	if c.Cluster.Token == "" {
		return errors.ErrClusterTokenRequired
	}
	if c.Cluster.Deployment == "" {
		return errors.ErrDeploymentRequired
	}
	return nil
}

// ValidateServe checks everything the webhook listener needs on top of
// the release pipeline.
func (c *Config) ValidateServe() error {
	if c.Hook.Secret == "" {
		return errors.ErrHookSecretRequired
	}
	return c.ValidateRelease()
}
