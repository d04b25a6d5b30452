package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const maxRemoteBody = 32 << 20

var (
	// ErrRemoteTimeout marks calls that did not complete within the configured timeout.
	ErrRemoteTimeout = errors.New("remote store timed out")
	// ErrRemoteNotConfigured is returned when no endpoint is set.
	ErrRemoteNotConfigured = errors.New("remote endpoint not configured")
)

// RemoteError is a non-success answer from the remote store.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote store returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote store returned status %d: %s", e.StatusCode, e.Message)
}

// remoteEnvelope is the optional wrapper the spreadsheet script answers with.
type remoteEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RemoteRepository talks to the spreadsheet-backed web endpoint that holds the grade book.
type RemoteRepository struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewRemoteRepository builds a client for endpoint. A nil client gets one with the given timeout.
func NewRemoteRepository(endpoint string, timeout time.Duration, client *http.Client, logger *zap.Logger) *RemoteRepository {
	if client == nil {
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteRepository{endpoint: strings.TrimSpace(endpoint), client: client, logger: logger}
}

// LoadInitialData fetches the whole dataset with ?action=getInitialData.
func (r *RemoteRepository) LoadInitialData(ctx context.Context) (*models.Dataset, error) {
	if r.endpoint == "" {
		return nil, ErrRemoteNotConfigured
	}
	target, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse remote endpoint: %w", err)
	}
	query := target.Query()
	query.Set("action", "getInitialData")
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build initial data request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := r.do(req)
	if err != nil {
		return nil, err
	}

	var dataset models.Dataset
	if err := json.Unmarshal(body, &dataset); err != nil {
		return nil, fmt.Errorf("decode initial data: %w", err)
	}
	dataset.Normalize()
	return &dataset, nil
}

// Push posts one mutation as {"action": name, ...payload}.
func (r *RemoteRepository) Push(ctx context.Context, mutation models.Mutation) error {
	if r.endpoint == "" {
		return ErrRemoteNotConfigured
	}
	payload, err := json.Marshal(mutation)
	if err != nil {
		return fmt.Errorf("encode %s: %w", mutation.Action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", mutation.Action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	_, err = r.do(req)
	r.logger.Debug("remote push", zap.String("action", string(mutation.Action)), zap.Duration("duration", time.Since(start)), zap.Error(err))
	return err
}

// do executes req and returns the unwrapped data section of a successful response.
func (r *RemoteRepository) do(req *http.Request) ([]byte, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrRemoteTimeout, err)
		}
		return nil, fmt.Errorf("remote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrRemoteTimeout, err)
		}
		return nil, fmt.Errorf("read remote response: %w", err)
	}

	var envelope remoteEnvelope
	wrapped := len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &envelope) == nil && envelope.Status != ""

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	if !wrapped {
		return body, nil
	}
	if !strings.EqualFold(envelope.Status, "ok") && !strings.EqualFold(envelope.Status, "success") {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	return envelope.Data, nil
}

// IsTimeout reports whether err came from a remote call exceeding its deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRemoteTimeout) || isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
