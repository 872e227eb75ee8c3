package store

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// OccupancyPercent is the dashboard's occupancy figure: allocations per
// room as a rounded percentage. It is 0 when there are no rooms.
func OccupancyPercent(allocatedCount, totalRooms int64) int {
	if totalRooms <= 0 {
		return 0
	}
	return int(math.Round(float64(allocatedCount) / float64(totalRooms) * 100))
}

// AvailableRooms returns the rooms that still have a free bed.
func (s *gormStore) AvailableRooms(ctx context.Context) ([]model.Room, error) {
	rooms := []model.Room{}
	if err := s.db.WithContext(ctx).
		Where("occupancy < capacity").
		Order("id").
		Find(&rooms).Error; err != nil {
		return nil, translateError(err, "rooms")
	}
	return rooms, nil
}

// StudentAllocation joins a student with their allocation and room.
func (s *gormStore) StudentAllocation(ctx context.Context, studentID int64) (*StudentAllocation, error) {
	student, err := s.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	result := &StudentAllocation{Student: *student}

	var allocation model.Allocation
	err = s.db.WithContext(ctx).
		Preload("Room").
		Where("student_id = ?", studentID).
		First(&allocation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("allocation for student %d", studentID))
	}

	result.Allocated = true
	result.Room = allocation.Room
	allocation.Room = nil
	result.Allocation = &allocation
	return result, nil
}

// Stats aggregates counts across the three tables.
func (s *gormStore) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)

	type roomAgg struct {
		TotalRooms     int64
		AvailableRooms int64
		TotalCapacity  int64
		TotalOccupancy int64
	}
	var agg roomAgg
	if err := db.Model(&model.Room{}).
		Select("COUNT(*) AS total_rooms, " +
			"COALESCE(SUM(CASE WHEN occupancy < capacity THEN 1 ELSE 0 END), 0) AS available_rooms, " +
			"COALESCE(SUM(capacity), 0) AS total_capacity, " +
			"COALESCE(SUM(occupancy), 0) AS total_occupancy").
		Scan(&agg).Error; err != nil {
		return nil, translateError(err, "room statistics")
	}

	stats := &Stats{
		TotalRooms:     agg.TotalRooms,
		AvailableRooms: agg.AvailableRooms,
		TotalCapacity:  agg.TotalCapacity,
		TotalOccupancy: agg.TotalOccupancy,
	}
	if err := db.Model(&model.Student{}).Count(&stats.TotalStudents).Error; err != nil {
		return nil, translateError(err, "student statistics")
	}
	if err := db.Model(&model.Allocation{}).Count(&stats.AllocatedCount).Error; err != nil {
		return nil, translateError(err, "allocation statistics")
	}

	stats.OccupancyPercent = OccupancyPercent(stats.AllocatedCount, stats.TotalRooms)
	if stats.TotalCapacity > 0 {
		stats.BedOccupancyPercent = int(math.Round(float64(stats.TotalOccupancy) / float64(stats.TotalCapacity) * 100))
	}
	return stats, nil
}
