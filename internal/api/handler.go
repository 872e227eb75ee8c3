package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"hostel-allocation-backend/internal/mw"
	"hostel-allocation-backend/internal/store"
)

// Notifier queues a "room allocated" notification. It must not block.
type Notifier interface {
	Dispatch(allocationID int64) bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	webpush  *webpush.Options
	notifier Notifier
	metrics  *mw.Metrics
}

// NewHandler creates a new API handler. notifier may be nil when push
// notifications are disabled.
func NewHandler(s store.Store, webpushOptions *webpush.Options, notifier Notifier, metrics *mw.Metrics) *Handler {
	if metrics == nil {
		metrics = mw.NewMetrics()
	}
	return &Handler{
		store:    s,
		webpush:  webpushOptions,
		notifier: notifier,
		metrics:  metrics,
	}
}
