package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/slicer/internal/model"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return logger
}

func testTopology() *model.ResolvedTopology {
	return &model.ResolvedTopology{
		ID:    uuid.New(),
		Slice: "test-slice",
		Nodes: []model.ResolvedNode{
			{Name: "n1", Site: "RENC", Cores: 2, RAM: 8, Disk: 10},
		},
	}
}

func TestSubmitAccepted(t *testing.T) {
	sliceID := uuid.New()

	var got *model.ResolvedTopology

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/slices", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		got = &model.ResolvedTopology{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"slice_id": sliceID.String()})
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, testLogger())
	require.NoError(t, err)

	topo := testTopology()

	accepted, err := client.Submit(context.Background(), topo)
	require.NoError(t, err)

	assert.Equal(t, sliceID, accepted)
	require.NotNil(t, got)
	assert.Equal(t, topo.Slice, got.Slice)
}

func TestSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient resources", http.StatusConflict)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, testLogger())
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), testTopology())
	require.Error(t, err)

	assert.ErrorIs(t, err, model.ErrSubmission)
	assert.ErrorContains(t, err, "insufficient resources")
}

func TestSubmitNoRetry(t *testing.T) {
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, testLogger())
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), testTopology())
	require.Error(t, err)

	// submission is not idempotent, a failure must not be resubmitted
	assert.Equal(t, 1, requests)
}

func TestSubmitMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, testLogger())
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), testTopology())
	require.Error(t, err)

	assert.ErrorIs(t, err, model.ErrSubmission)
	assert.ErrorContains(t, err, "malformed response")
}

func TestNewHTTPClientNoEndpoint(t *testing.T) {
	_, err := NewHTTPClient("", testLogger())
	require.Error(t, err)

	assert.ErrorIs(t, err, model.ErrSubmission)
}
