package kube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// capturedRequest holds what the fake cluster API saw
type capturedRequest struct {
	method        string
	path          string
	contentType   string
	authorization string
	body          []byte
}

// newFakeCluster starts an API server stub that records the request and
// answers with the given status and body.
func newFakeCluster(t *testing.T, status int, responseBody string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.contentType = r.Header.Get("Content-Type")
		captured.authorization = r.Header.Get("Authorization")
		captured.body = body

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

const deploymentResponse = `{
	"apiVersion": "apps/v1",
	"kind": "Deployment",
	"metadata": {"name": "steem-api", "namespace": "default", "generation": 4},
	"spec": {"template": {"spec": {"containers": [{"name": "steem-api", "image": "user/steem-api:v1.2.3"}]}}}
}`

func TestSetImage(t *testing.T) {
	server, captured := newFakeCluster(t, http.StatusOK, deploymentResponse)

	patcher, err := NewForEndpoint(server.URL, "cluster-token", false)
	require.NoError(t, err)

	err = patcher.SetImage(context.Background(), Target{
		Namespace:  "default",
		Deployment: "steem-api",
	}, "user/steem-api:v1.2.3")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, captured.method)
	assert.Equal(t, "/apis/apps/v1/namespaces/default/deployments/steem-api", captured.path)
	assert.Equal(t, "application/json-patch+json", captured.contentType)
	assert.Equal(t, "Bearer cluster-token", captured.authorization)

	var ops []map[string]string
	require.NoError(t, json.Unmarshal(captured.body, &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "replace", ops[0]["op"])
	assert.Equal(t, "/spec/template/spec/containers/0/image", ops[0]["path"])
	assert.Equal(t, "user/steem-api:v1.2.3", ops[0]["value"])
}

func TestSetImageDefaultsNamespace(t *testing.T) {
	server, captured := newFakeCluster(t, http.StatusOK, deploymentResponse)

	patcher, err := NewForEndpoint(server.URL, "cluster-token", false)
	require.NoError(t, err)

	err = patcher.SetImage(context.Background(), Target{Deployment: "steem-api"}, "user/steem-api:v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "/apis/apps/v1/namespaces/default/deployments/steem-api", captured.path)
}

func TestSetImageContainerIndex(t *testing.T) {
	server, captured := newFakeCluster(t, http.StatusOK, deploymentResponse)

	patcher, err := NewForEndpoint(server.URL, "cluster-token", false)
	require.NoError(t, err)

	err = patcher.SetImage(context.Background(), Target{
		Namespace:  "apps",
		Deployment: "steem-api",
		Container:  2,
	}, "user/steem-api:v2.0.0")
	require.NoError(t, err)

	assert.Equal(t, "/apis/apps/v1/namespaces/apps/deployments/steem-api", captured.path)

	var ops []map[string]string
	require.NoError(t, json.Unmarshal(captured.body, &ops))
	assert.Equal(t, "/spec/template/spec/containers/2/image", ops[0]["path"])
}

func TestSetImageNonSuccessStatus(t *testing.T) {
	forbidden := `{"kind":"Status","apiVersion":"v1","status":"Failure","message":"deployments.apps \"steem-api\" is forbidden","reason":"Forbidden","code":403}`
	server, _ := newFakeCluster(t, http.StatusForbidden, forbidden)

	patcher, err := NewForEndpoint(server.URL, "bad-token", false)
	require.NoError(t, err)

	err = patcher.SetImage(context.Background(), Target{
		Namespace:  "default",
		Deployment: "steem-api",
	}, "user/steem-api:v1.2.3")
	require.Error(t, err)
	assert.True(t, apierrors.IsForbidden(err), "expected a Forbidden API error, got %v", err)
}

func TestSetImageMissingDeployment(t *testing.T) {
	server, captured := newFakeCluster(t, http.StatusOK, deploymentResponse)

	patcher, err := NewForEndpoint(server.URL, "cluster-token", false)
	require.NoError(t, err)

	err = patcher.SetImage(context.Background(), Target{Namespace: "default"}, "user/steem-api:v1.2.3")
	require.Error(t, err)
	assert.Empty(t, captured.method, "no request should reach the cluster")
}
