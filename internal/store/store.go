package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Room directory
	CreateRoom(ctx context.Context, in RoomInput) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, id int64) (*model.Room, error)

	// Student directory
	RegisterStudent(ctx context.Context, in StudentInput) (*model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	GetStudent(ctx context.Context, id int64) (*model.Student, error)

	// Allocation ledger
	Allocate(ctx context.Context, studentID, roomID int64) (*model.Allocation, error)
	ListAllocations(ctx context.Context) ([]model.Allocation, error)
	GetAllocation(ctx context.Context, id int64) (*model.Allocation, error)

	// Reporting
	AvailableRooms(ctx context.Context) ([]model.Room, error)
	StudentAllocation(ctx context.Context, studentID int64) (*StudentAllocation, error)
	Stats(ctx context.Context) (*Stats, error)
	ReconcileOccupancy(ctx context.Context) ([]OccupancyRepair, error)

	// Push subscriptions
	SaveSubscription(ctx context.Context, in SubscriptionInput) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error

	Ping(ctx context.Context) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for components that run their own
// queries, such as the notification workers.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
