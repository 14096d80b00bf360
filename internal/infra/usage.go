package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// UsageRequest is sent to the usage-recorder sidecar, which maintains the
// accumulated print hours per machine (maintenance schedule accounting).
type UsageRequest struct {
	MachineID string `json:"machine_id"`
	Minutes   int    `json:"minutes"`
	OrderID   string `json:"order_id"`
}

// UsageClient is the HTTP client for the usage recorder. The core never
// depends on its success: calls are issued from the worker pool and only
// logged. The circuit breaker keeps a downed sidecar from being hammered.
type UsageClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewUsageClient(baseURL string, cb *CircuitBreaker) *UsageClient {
	return &UsageClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cb:         cb,
	}
}

// RegisterMachineUsage posts the print minutes of a completed order.
func (c *UsageClient) RegisterMachineUsage(ctx context.Context, req UsageRequest) error {
	return c.cb.Execute(func() error {
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/machine-usage", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("usage recorder returned status %d", resp.StatusCode)
		}
		return nil
	})
}
