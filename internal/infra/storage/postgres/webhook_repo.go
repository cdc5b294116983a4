package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
)

// WebhookEventRepo implements storage.WebhookEventRepository using PostgreSQL.
type WebhookEventRepo struct {
	db *DB
}

// NewWebhookEventRepo creates a new PostgreSQL webhook event repository.
func NewWebhookEventRepo(db *DB) *WebhookEventRepo {
	return &WebhookEventRepo{db: db}
}

type webhookEventRow struct {
	ID         string    `db:"id"`
	Topic      string    `db:"topic"`
	ShopDomain string    `db:"shop_domain"`
	Payload    []byte    `db:"payload"`
	ReceivedAt time.Time `db:"received_at"`
	Processed  bool      `db:"processed"`
	Error      string    `db:"error"`
}

func (r *webhookEventRow) toDomain() *domain.WebhookEvent {
	return &domain.WebhookEvent{
		ID:         r.ID,
		Topic:      domain.WebhookTopic(r.Topic),
		ShopDomain: r.ShopDomain,
		Payload:    r.Payload,
		ReceivedAt: r.ReceivedAt,
		Processed:  r.Processed,
		Error:      r.Error,
	}
}

// Save records a received webhook delivery.
func (r *WebhookEventRepo) Save(ctx context.Context, event *domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (id, topic, shop_domain, payload, received_at, processed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		string(event.Topic),
		event.ShopDomain,
		event.Payload,
		event.ReceivedAt,
		event.Processed,
		event.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save webhook event: %w", err)
	}
	return nil
}

// MarkProcessed marks a delivery as successfully applied.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, id string) error {
	query := `UPDATE webhook_events SET processed = TRUE, error = '' WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}
	return nil
}

// MarkFailed records a processing failure for a delivery.
func (r *WebhookEventRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `UPDATE webhook_events SET processed = FALSE, error = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event failed: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent deliveries.
func (r *WebhookEventRepo) GetRecent(
	ctx context.Context,
	limit int,
) ([]*domain.WebhookEvent, error) {
	query := `
		SELECT id, topic, shop_domain, payload, received_at, processed, error
		FROM webhook_events
		ORDER BY received_at DESC
		LIMIT $1
	`

	var rows []webhookEventRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent webhook events: %w", err)
	}

	events := make([]*domain.WebhookEvent, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toDomain())
	}
	return events, nil
}

// DeleteOlderThan deletes deliveries received before the cutoff.
func (r *WebhookEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	query := `DELETE FROM webhook_events WHERE received_at < $1`
	_, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old webhook events: %w", err)
	}
	return nil
}
