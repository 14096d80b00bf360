package worker

// email_worker.go
// Consumes QueueLowStock and mails the shop a restock reminder when a
// deduction pushes a supply to or below its minimum threshold.

import (
	"context"
	"encoding/json"
	"fmt"

	"printlog/internal/infra"

	"github.com/rs/zerolog/log"
)

// LowStockPayload is enqueued by the stock service after a deduction
// crosses the minimum threshold.
type LowStockPayload struct {
	SupplyID       string `json:"supply_id"`
	Name           string `json:"name"`
	QuantityOnHand string `json:"quantity_on_hand"`
	MinimumStock   string `json:"minimum_stock"`
	Unit           string `json:"unit"`
}

type EmailWorker struct {
	mailer *infra.Mailer
	to     string
}

func NewEmailWorker(mailer *infra.Mailer, to string) *EmailWorker {
	return &EmailWorker{mailer: mailer, to: to}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload LowStockPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}
	if w.to == "" {
		log.Warn().Msg("email_worker: ALERT_EMAIL not configured — skipping")
		return nil
	}

	subject := fmt.Sprintf("Estoque baixo: %s", payload.Name)
	body := fmt.Sprintf(
		"O insumo %q está com estoque baixo.\n\nDisponível: %s %s\nMínimo: %s %s\n",
		payload.Name,
		payload.QuantityOnHand, payload.Unit,
		payload.MinimumStock, payload.Unit,
	)

	if err := w.mailer.Send(w.to, subject, body); err != nil {
		return fmt.Errorf("send low-stock alert: %w", err)
	}
	log.Info().Str("supply_id", payload.SupplyID).Str("to", w.to).Msg("email_worker: low-stock alert sent")
	return nil
}
