package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
)

// ECRClient defines the ECR operations needed for registry authentication
type ECRClient interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// ECRAuthorizer exchanges AWS credentials for ECR registry credentials.
// ECR tokens are valid for 12 hours; a run is far shorter than that, so
// no refresh logic is needed.
type ECRAuthorizer struct {
	client ECRClient
}

// NewECRAuthorizer creates an authorizer backed by the default AWS
// credential chain.
func NewECRAuthorizer(ctx context.Context) (*ECRAuthorizer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &ECRAuthorizer{client: ecr.NewFromConfig(cfg)}, nil
}

// NewECRAuthorizerWithClient creates an authorizer with an injected
// client (for testing).
func NewECRAuthorizerWithClient(client ECRClient) *ECRAuthorizer {
	return &ECRAuthorizer{client: client}
}

// Credentials fetches a registry token from ECR. The authorization
// token is base64("AWS:{password}").
func (a *ECRAuthorizer) Credentials(ctx context.Context) (Credentials, error) {
	output, err := a.client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to get ECR authorization token: %w", err)
	}
	if len(output.AuthorizationData) == 0 {
		return Credentials{}, fmt.Errorf("ECR returned no authorization data")
	}

	token := aws.ToString(output.AuthorizationData[0].AuthorizationToken)
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to decode ECR authorization token: %w", err)
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return Credentials{}, fmt.Errorf("malformed ECR authorization token")
	}
	return Credentials{Username: username, Password: password}, nil
}

// IsECR reports whether host is an Amazon ECR registry endpoint.
func IsECR(host string) bool {
	return strings.Contains(host, ".dkr.ecr.") && strings.HasSuffix(host, ".amazonaws.com")
}
