package worker

// usage_worker.go
// Consumes QueueUsage and registers accumulated print minutes with the
// usage-recorder sidecar. Completion of an order never waits on this.

import (
	"context"
	"encoding/json"
	"fmt"

	"printlog/internal/infra"
	"printlog/internal/metrics"

	"github.com/rs/zerolog/log"
)

// UsagePayload is the job envelope enqueued when an order with a machine
// and print minutes transitions into DONE.
type UsagePayload struct {
	OrderID   string `json:"order_id"`
	MachineID string `json:"machine_id"`
	Minutes   int    `json:"minutes"`
}

type UsageWorker struct {
	client *infra.UsageClient
}

func NewUsageWorker(client *infra.UsageClient) *UsageWorker {
	return &UsageWorker{client: client}
}

// Process calls the usage recorder. A returned error triggers the pool's
// retry/DLQ handling; nothing here touches the order itself.
func (w *UsageWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload UsagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("usage_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}
	if payload.MachineID == "" || payload.Minutes <= 0 {
		log.Warn().Str("order_id", payload.OrderID).Msg("usage_worker: incomplete payload — skipping")
		return nil
	}

	err := w.client.RegisterMachineUsage(ctx, infra.UsageRequest{
		MachineID: payload.MachineID,
		Minutes:   payload.Minutes,
		OrderID:   payload.OrderID,
	})
	if err != nil {
		metrics.UsageJobs.WithLabelValues("failed").Inc()
		return fmt.Errorf("register machine usage: %w", err)
	}

	metrics.UsageJobs.WithLabelValues("sent").Inc()
	log.Info().
		Str("order_id", payload.OrderID).
		Str("machine_id", payload.MachineID).
		Int("minutes", payload.Minutes).
		Msg("usage_worker: machine usage registered")
	return nil
}
