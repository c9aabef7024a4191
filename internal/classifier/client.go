// Package classifier routes complaint text to the responsible government
// department via the external NLP service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

// ErrClassification normalizes every failure mode of the external service:
// network errors, non-success statuses, timeouts, and malformed bodies.
var ErrClassification = errors.New("classification failed")

// Routing is the department identity a complaint is routed to.
type Routing struct {
	DepartmentEmail string `json:"department_email"`
	DepartmentName  string `json:"department_name"`
	Intent          string `json:"intent"`
}

// Client classifies complaint text into a department routing.
type Client interface {
	Classify(ctx context.Context, description string) (Routing, error)
}

// HTTPClient calls the classification service over HTTP, bounded by a
// configured timeout and guarded by a circuit breaker.
type HTTPClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[Routing]
	logger  *zap.Logger
}

// NewHTTPClient builds the classifier client from configuration.
func NewHTTPClient(cfg config.ClassifierConfig, logger *zap.Logger) *HTTPClient {
	settings := gobreaker.Settings{
		Name:        "department-classifier",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	}
	return &HTTPClient{
		url:     cfg.URL,
		timeout: cfg.Timeout(),
		client:  &http.Client{Timeout: cfg.Timeout()},
		breaker: gobreaker.NewCircuitBreaker[Routing](settings),
		logger:  logger,
	}
}

type classifyRequest struct {
	Description string `json:"description"`
}

// Classify posts the complaint description and returns the routing decision.
func (c *HTTPClient) Classify(ctx context.Context, description string) (Routing, error) {
	routing, err := c.breaker.Execute(func() (Routing, error) {
		return c.doClassify(ctx, description)
	})
	if err != nil {
		c.logger.Warn("classifier call failed", zap.Error(err))
		return Routing{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return routing, nil
}

func (c *HTTPClient) doClassify(ctx context.Context, description string) (Routing, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Description: description})
	if err != nil {
		return Routing{}, err
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Routing{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Routing{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Routing{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Routing{}, err
	}

	var routing Routing
	if err := json.Unmarshal(payload, &routing); err != nil {
		return Routing{}, fmt.Errorf("malformed response: %w", err)
	}
	if strings.TrimSpace(routing.DepartmentEmail) == "" {
		return Routing{}, errors.New("response missing department_email")
	}
	return routing, nil
}
