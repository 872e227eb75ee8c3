package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-allocation-backend/internal/model"
)

// Allocate assigns a student to a room. The checks, the occupancy
// increment and the ledger insert run in one transaction; the increment is
// a compare-and-swap on occupancy < capacity so concurrent callers cannot
// overfill a room. Every failure leaves both tables untouched.
func (s *gormStore) Allocate(ctx context.Context, studentID, roomID int64) (*model.Allocation, error) {
	if studentID <= 0 || roomID <= 0 {
		return nil, fmt.Errorf("%w: studentId and roomId required", ErrValidation)
	}

	var allocation model.Allocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student model.Student
		if err := tx.First(&student, studentID).Error; err != nil {
			return translateError(err, fmt.Sprintf("student %d", studentID))
		}

		var room model.Room
		if err := tx.First(&room, roomID).Error; err != nil {
			return translateError(err, fmt.Sprintf("room %d", roomID))
		}

		var existing int64
		if err := tx.Model(&model.Allocation{}).Where("student_id = ?", studentID).Count(&existing).Error; err != nil {
			return translateError(err, "allocations")
		}
		if existing > 0 {
			return fmt.Errorf("%w (student %d)", ErrAlreadyAllocated, studentID)
		}

		if room.Occupancy >= room.Capacity {
			return fmt.Errorf("%w: room %s has %d of %d beds taken", ErrCapacityExceeded, room.RoomNumber, room.Occupancy, room.Capacity)
		}

		res := tx.Model(&model.Room{}).
			Where("id = ? AND occupancy < capacity", roomID).
			Update("occupancy", gorm.Expr("occupancy + ?", 1))
		if res.Error != nil {
			return translateError(res.Error, fmt.Sprintf("room %d", roomID))
		}
		if res.RowsAffected == 0 {
			// Another allocation took the last bed after our read.
			return fmt.Errorf("%w: room %s", ErrCapacityExceeded, room.RoomNumber)
		}

		allocation = model.Allocation{StudentID: studentID, RoomID: roomID}
		if err := tx.Omit(clause.Associations).Create(&allocation).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w (student %d)", ErrAlreadyAllocated, studentID)
			}
			return translateError(err, "allocation")
		}

		if err := tx.First(&room, roomID).Error; err != nil {
			return translateError(err, fmt.Sprintf("room %d", roomID))
		}
		allocation.Student = &student
		allocation.Room = &room
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			log.Error().Err(err).Int64("student_id", studentID).Int64("room_id", roomID).Msg("allocation failed")
		}
		return nil, err
	}

	log.Info().
		Int64("allocation_id", allocation.ID).
		Int64("student_id", studentID).
		Int64("room_id", roomID).
		Int("occupancy", allocation.Room.Occupancy).
		Int("capacity", allocation.Room.Capacity).
		Msg("room allocated")
	return &allocation, nil
}

// ListAllocations returns every allocation joined with its student and room.
func (s *gormStore) ListAllocations(ctx context.Context) ([]model.Allocation, error) {
	allocations := []model.Allocation{}
	if err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Room").
		Order("id").
		Find(&allocations).Error; err != nil {
		return nil, translateError(err, "allocations")
	}
	return allocations, nil
}

// GetAllocation returns a single allocation joined with its student and room.
func (s *gormStore) GetAllocation(ctx context.Context, id int64) (*model.Allocation, error) {
	var allocation model.Allocation
	if err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Room").
		First(&allocation, id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("allocation %d", id))
	}
	return &allocation, nil
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCapacityExceeded)
}
