package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fabric-testbed/slicer/internal/metrics"
	"github.com/fabric-testbed/slicer/internal/model"
)

const submitTimeout = 120 * time.Second

// HTTPClient submits topologies to the orchestrator's slices endpoint.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	logger   *logrus.Logger
}

// NewHTTPClient returns an orchestrator Client over a plain (non-retrying)
// HTTP client - submission is not idempotent, retries are the caller's
// decision, never this client's.
func NewHTTPClient(endpoint string, logger *logrus.Logger) (Client, error) {
	if endpoint == "" {
		return nil, errors.Wrap(model.ErrSubmission, "orchestrator endpoint not set")
	}

	// retryablehttp with retries disabled keeps the shared client
	// plumbing (connection reuse, request body rewind) without retrying
	retryableClient := retryablehttp.NewClient()
	retryableClient.RetryMax = 0
	retryableClient.Logger = nil

	client := retryableClient.StandardClient()
	client.Timeout = submitTimeout

	return &HTTPClient{
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}, nil
}

// Submit implements the Client interface.
func (c *HTTPClient) Submit(ctx context.Context, topo *model.ResolvedTopology) (uuid.UUID, error) {
	payload, err := json.Marshal(topo)
	if err != nil {
		return uuid.Nil, errors.Wrap(model.ErrSubmission, err.Error())
	}

	url := c.endpoint + "/slices"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return uuid.Nil, errors.Wrap(model.ErrSubmission, err.Error())
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.SubmissionErrorCount.WithLabelValues(c.endpoint).Inc()
		return uuid.Nil, errors.Wrap(model.ErrSubmission, err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		metrics.SubmissionErrorCount.WithLabelValues(c.endpoint).Inc()

		return uuid.Nil, errors.Wrapf(model.ErrSubmission,
			"orchestrator returned status %d: %s", resp.StatusCode, string(body))
	}

	var accepted struct {
		SliceID uuid.UUID `json:"slice_id"`
	}

	if err := json.Unmarshal(body, &accepted); err != nil {
		return uuid.Nil, errors.Wrap(model.ErrSubmission, "malformed response: "+err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"slice":    topo.Slice,
		"slice_id": accepted.SliceID,
	}).Info("topology submitted")

	return accepted.SliceID, nil
}
