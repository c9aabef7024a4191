package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

func newTestClient(t *testing.T, url string) *HTTPClient {
	t.Helper()
	return NewHTTPClient(config.ClassifierConfig{
		URL:            url,
		TimeoutSeconds: 1,
	}, zap.NewNop())
}

func TestClassifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "overflowing garbage bins", req.Description)

		json.NewEncoder(w).Encode(Routing{
			DepartmentEmail: "sanitation@gov.example",
			DepartmentName:  "Sanitation Dept",
			Intent:          "GARBAGE_COLLECTION",
		})
	}))
	defer srv.Close()

	routing, err := newTestClient(t, srv.URL).Classify(context.Background(), "overflowing garbage bins")
	require.NoError(t, err)
	assert.Equal(t, "sanitation@gov.example", routing.DepartmentEmail)
	assert.Equal(t, "Sanitation Dept", routing.DepartmentName)
	assert.Equal(t, "GARBAGE_COLLECTION", routing.Intent)
}

func TestClassifyNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Classify(context.Background(), "pothole")
	assert.ErrorIs(t, err, ErrClassification)
}

func TestClassifyMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Classify(context.Background(), "pothole")
	assert.ErrorIs(t, err, ErrClassification)
}

func TestClassifyMissingDepartmentEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Routing{DepartmentName: "Nameless", Intent: "UNKNOWN"})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Classify(context.Background(), "pothole")
	assert.ErrorIs(t, err, ErrClassification)
}

func TestClassifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := newTestClient(t, srv.URL).Classify(context.Background(), "pothole")
	assert.ErrorIs(t, err, ErrClassification)
	assert.Less(t, time.Since(start), 3*time.Second, "call must be bounded by the configured timeout")
}

func TestClassifyUnreachableService(t *testing.T) {
	_, err := newTestClient(t, "http://127.0.0.1:1/classify").Classify(context.Background(), "pothole")
	assert.ErrorIs(t, err, ErrClassification)
}

func TestFallbackRouteIsDeterministic(t *testing.T) {
	policy := FallbackPolicy{
		DepartmentEmail: "grievance.cell@gov.example",
		DepartmentName:  "General Grievance Cell",
	}

	for _, description := range []string{"", "pothole", "anything at all"} {
		routing := policy.Route(description)
		assert.Equal(t, "grievance.cell@gov.example", routing.DepartmentEmail)
		assert.Equal(t, "General Grievance Cell", routing.DepartmentName)
		assert.Equal(t, IntentUnclassified, routing.Intent)
	}
}
