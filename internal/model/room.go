package model

import "time"

// Room represents a hostel room. Occupancy is only ever changed by the
// allocation path and the reconciler.
type Room struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	RoomNumber string    `gorm:"uniqueIndex;size:64;not null" json:"roomNumber"`
	Floor      int       `gorm:"not null" json:"floor"`
	Capacity   int       `gorm:"not null;check:chk_rooms_capacity,capacity >= 1" json:"capacity"`
	Occupancy  int       `gorm:"not null;check:chk_rooms_occupancy,occupancy >= 0 AND occupancy <= capacity" json:"occupancy"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}

// Available reports whether the room still has a free bed.
func (r Room) Available() bool {
	return r.Occupancy < r.Capacity
}

// FreeBeds returns the number of unallocated beds.
func (r Room) FreeBeds() int {
	if r.Occupancy >= r.Capacity {
		return 0
	}
	return r.Capacity - r.Occupancy
}
