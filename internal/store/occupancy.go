package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-allocation-backend/internal/model"
)

// ReconcileOccupancy recomputes every room's occupancy from the allocation
// ledger and rewrites counters that drifted. Rooms whose ledger count is
// above capacity are reported but left alone, since the schema forbids
// storing that state.
//
// The room rows are locked before the ledger is counted. Allocate bumps the
// room row before inserting its ledger row, so every allocation either
// committed before the lock (and is counted) or waits for it and applies its
// compare-and-swap to the repaired value.
func (s *gormStore) ReconcileOccupancy(ctx context.Context) ([]OccupancyRepair, error) {
	var repairs []OccupancyRepair

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rooms []model.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id").Find(&rooms).Error; err != nil {
			return fmt.Errorf("failed to lock rooms: %w", err)
		}

		type countRow struct {
			RoomID int64
			Total  int
		}
		var counts []countRow
		if err := tx.Model(&model.Allocation{}).
			Select("room_id AS room_id, COUNT(*) AS total").
			Group("room_id").
			Scan(&counts).Error; err != nil {
			return fmt.Errorf("failed to count allocations: %w", err)
		}
		countMap := make(map[int64]int, len(counts))
		for _, c := range counts {
			countMap[c.RoomID] = c.Total
		}

		for _, room := range rooms {
			actual := countMap[room.ID] // zero when the room has no allocations
			if actual == room.Occupancy {
				continue
			}

			repair := OccupancyRepair{
				RoomID:     room.ID,
				RoomNumber: room.RoomNumber,
				Recorded:   room.Occupancy,
				Actual:     actual,
			}
			if actual <= room.Capacity {
				res := tx.Model(&model.Room{}).
					Where("id = ? AND occupancy = ?", room.ID, room.Occupancy).
					Update("occupancy", actual)
				if res.Error != nil {
					return fmt.Errorf("failed to repair occupancy for room %d: %w", room.ID, res.Error)
				}
				repair.Fixed = res.RowsAffected == 1
				if !repair.Fixed {
					log.Warn().Int64("room_id", room.ID).Msg("occupancy changed during reconcile; left for the next run")
				}
			} else {
				log.Warn().Int64("room_id", room.ID).Int("allocations", actual).Int("capacity", room.Capacity).
					Msg("room is overbooked in the ledger; manual intervention needed")
			}
			repairs = append(repairs, repair)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "occupancy reconciliation")
	}
	return repairs, nil
}
