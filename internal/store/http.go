package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fabric-testbed/slicer/internal/model"
)

var ErrInventoryAPI = errors.New("inventory API error")

const inventoryClientTimeout = 60 * time.Second

// InventoryAPI fetches records from the upstream inventory service over
// HTTP, one resource collection per kind.
type InventoryAPI struct {
	endpoint string
	client   *http.Client
	logger   *logrus.Logger
}

// NewInventoryAPI returns an inventory Source backed by a retryable HTTP
// client.
func NewInventoryAPI(endpoint string, logger *logrus.Logger) (Source, error) {
	if endpoint == "" {
		return nil, errors.Wrap(ErrInventoryAPI, "endpoint not set")
	}

	retryableClient := retryablehttp.NewClient()

	// disable default debug logging on the retryable client
	if logger.Level < logrus.DebugLevel {
		retryableClient.Logger = nil
	} else {
		retryableClient.Logger = logger
	}

	client := retryableClient.StandardClient()
	client.Timeout = inventoryClientTimeout

	return &InventoryAPI{
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}, nil
}

// Fetch implements the Source interface, requesting
// <endpoint>/resources/<kind> and decoding a JSON array of records.
func (c *InventoryAPI) Fetch(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	url := fmt.Sprintf("%s/resources/%s", c.endpoint, kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(ErrInventoryAPI, err.Error())
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrInventoryAPI, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(ErrInventoryAPI, "%s returned status %d", url, resp.StatusCode)
	}

	var records []model.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errors.Wrap(ErrInventoryAPI, "malformed response: "+err.Error())
	}

	return records, nil
}
