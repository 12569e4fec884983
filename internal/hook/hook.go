// Package hook receives push-event webhooks and turns tag pushes into
// release runs. Payload signatures are verified with HMAC-SHA256
// against a shared secret before anything is parsed.
package hook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kubeship/kubeship/internal/errors"
	"github.com/kubeship/kubeship/internal/pipeline"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventHeader     = "X-GitHub-Event"

	// maxBodySize bounds webhook payloads; push events are small
	maxBodySize = 1 << 20
)

// Runner executes the release pipeline for a ref.
type Runner interface {
	Run(ctx context.Context, ref string) (*pipeline.Result, error)
}

// Handler is the HTTP handler for the webhook endpoint.
type Handler struct {
	secret []byte
	runner Runner
}

// New creates a webhook handler. The secret must match the one
// configured on the sending side.
func New(secret string, runner Runner) *Handler {
	return &Handler{
		secret: []byte(secret),
		runner: runner,
	}
}

// pushEvent is the slice of the push payload the handler cares about
type pushEvent struct {
	Ref string `json:"ref"`
}

// errorResponse is the JSON body returned on failures
type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return
	}

	if err := h.verifySignature(r.Header.Get(signatureHeader), body); err != nil {
		logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected webhook")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "signature mismatch"})
		return
	}

	if event := r.Header.Get(eventHeader); event != "" && event != "push" {
		logger.Info().Str("event", event).Msg("Ignoring non-push event")
		writeJSON(w, http.StatusAccepted, pipeline.Result{Skipped: true})
		return
	}

	var push pushEvent
	if err := json.Unmarshal(body, &push); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed payload"})
		return
	}

	result, err := h.runner.Run(r.Context(), push.Ref)
	if err != nil {
		logger.Error().Err(err).Str("ref", push.Ref).Msg("Release run failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if result.Skipped {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

// verifySignature checks the hex HMAC-SHA256 signature header against
// the raw body using a constant-time comparison.
func (h *Handler) verifySignature(header string, body []byte) error {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(header), []byte(expected)) {
		return errors.ErrSignatureMismatch
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
