package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/assetledger/internal/domain"
	redisstore "github.com/gosuda/assetledger/internal/store/redis"
)

// EventRecordAppended is the only event type sent today.
const EventRecordAppended = "record_appended"

// AuditEvent is the payload pushed to timeline subscribers.
type AuditEvent struct {
	Type      string              `json:"type"`
	AssetID   string              `json:"asset_id"`
	Record    *domain.AuditRecord `json:"record"`
	Timestamp time.Time           `json:"timestamp"`
}

// Broker is the pub/sub transport between replicas. *redis.PubSub
// satisfies it.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub publishes appended ledger records and streams them to WebSocket
// clients on any replica.
type Hub struct {
	broker Broker
	assets domain.AssetRepository
	now    func() time.Time
}

func NewHub(broker Broker, assets domain.AssetRepository) *Hub {
	return &Hub{broker: broker, assets: assets, now: time.Now}
}

// PublishRecord sends rec to its asset's channel and to the all-assets
// channel. It satisfies ledger.Publisher.
func (h *Hub) PublishRecord(ctx context.Context, rec *domain.AuditRecord) error {
	payload, err := json.Marshal(AuditEvent{
		Type:      EventRecordAppended,
		AssetID:   rec.EntityID,
		Record:    rec,
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("ws.Hub.PublishRecord: marshal: %w", err)
	}

	var errs []error
	for _, channel := range []string{redisstore.AssetAuditChannel(rec.EntityID), redisstore.RecentAuditChannel()} {
		if err := h.broker.Publish(ctx, channel, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ws.Hub.PublishRecord: %w", err)
	}
	return nil
}

// ServeAudit streams new records of one asset.
// Subscribes to Redis channel "audit:asset:<assetID>".
func (h *Hub) ServeAudit(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")
	if assetID == "" {
		http.Error(w, "missing asset id", http.StatusBadRequest)
		return
	}

	if _, err := h.assets.GetByID(r.Context(), assetID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "asset not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrStoreUnavailable):
			http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
		default:
			log.Error().Err(err).Str("entity_id", assetID).Msg("websocket asset lookup")
			http.Error(w, "failed to get asset", http.StatusInternalServerError)
		}
		return
	}

	h.stream(w, r, redisstore.AssetAuditChannel(assetID))
}

// ServeRecent streams new records of every asset.
// Subscribes to Redis channel "audit:recent".
func (h *Hub) ServeRecent(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, redisstore.RecentAuditChannel())
}

func (h *Hub) stream(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients never send; CloseRead handles pings and cancels on close.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.broker.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
