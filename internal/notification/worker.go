package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// queueFactor sizes the job buffer relative to the number of workers.
const queueFactor = 16

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers "room allocated" notifications to the subscribed
// browsers of the allocated student. Jobs are allocation ids.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*queueFactor),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case allocationID := <-wp.jobs:
			wp.notifyAllocation(ctx, allocationID)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a notification for an allocation. It never blocks the
// caller: when the queue is full the notification is dropped and false is
// returned.
func (wp *WorkerPool) Dispatch(allocationID int64) bool {
	select {
	case wp.jobs <- allocationID:
		return true
	default:
		log.Warn().Int64("allocation_id", allocationID).Msg("notification queue full; dropping notification")
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

func (wp *WorkerPool) notifyAllocation(ctx context.Context, allocationID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN allocations ON allocations.student_id = push_subscriptions.student_id").
		Where("allocations.id = ?", allocationID).
		Find(&subscriptions).Error
	if err != nil {
		log.Error().Err(err).Int64("allocation_id", allocationID).Msg("failed to fetch subscriptions")
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	message := "A room has been allocated to you."
	var room model.Room
	if err := wp.db.WithContext(ctx).
		Select("rooms.room_number").
		Joins("JOIN allocations ON allocations.room_id = rooms.id").
		Where("allocations.id = ?", allocationID).
		First(&room).Error; err != nil {
		log.Warn().Err(err).Int64("allocation_id", allocationID).Msg("failed to look up allocated room")
	} else if room.RoomNumber != "" {
		message = fmt.Sprintf("Room %s has been allocated to you.", room.RoomNumber)
	}

	log.Info().Int("subscriptions", len(subscriptions)).Int64("allocation_id", allocationID).Msg("sending allocation notifications")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// The push service reports unsubscribed browsers with 404 or 410.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired; deleting")
		if err := wp.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: sub.Endpoint}).Error; err != nil {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
