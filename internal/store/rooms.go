package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/parse"
)

// CreateRoom validates and inserts a new room with zero occupancy.
func (s *gormStore) CreateRoom(ctx context.Context, in RoomInput) (*model.Room, error) {
	parsed, err := parse.RoomNumber(in.RoomNumber)
	if errors.Is(err, parse.ErrEmpty) {
		return nil, fmt.Errorf("%w: roomNumber and capacity required", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.Capacity < 1 {
		return nil, fmt.Errorf("%w: roomNumber and capacity required", ErrValidation)
	}

	// An explicit floor wins; negative values are basement levels.
	floor := parsed.Floor
	if in.Floor != nil {
		floor = *in.Floor
	}

	room := model.Room{
		RoomNumber: parsed.Number,
		Floor:      floor,
		Capacity:   in.Capacity,
		Occupancy:  0,
	}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("room %q", parsed.Number))
	}

	log.Info().Int64("room_id", room.ID).Str("room_number", room.RoomNumber).Int("capacity", room.Capacity).Msg("room created")
	return &room, nil
}

// ListRooms returns all rooms in creation order.
func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms := []model.Room{}
	if err := s.db.WithContext(ctx).Order("id").Find(&rooms).Error; err != nil {
		return nil, translateError(err, "rooms")
	}
	return rooms, nil
}

// GetRoom returns a single room by id.
func (s *gormStore) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("room %d", id))
	}
	return &room, nil
}
