package store

import "hostel-allocation-backend/internal/model"

// RoomInput is the data accepted when creating a room. A nil Floor is
// inferred from the room number.
type RoomInput struct {
	RoomNumber string
	Floor      *int
	Capacity   int
}

// StudentInput is the data accepted when registering a student.
type StudentInput struct {
	Name  string
	Email string
	Phone string
}

// SubscriptionInput is a browser push subscription for a student.
type SubscriptionInput struct {
	Endpoint  string
	P256DH    string
	Auth      string
	StudentID int64
}

// StudentAllocation is a student joined with their allocation, if any.
type StudentAllocation struct {
	Student    model.Student     `json:"student"`
	Allocated  bool              `json:"allocated"`
	Allocation *model.Allocation `json:"allocation,omitempty"`
	Room       *model.Room       `json:"room,omitempty"`
}

// Stats aggregates the dashboard numbers.
type Stats struct {
	TotalStudents       int64 `json:"totalStudents"`
	TotalRooms          int64 `json:"totalRooms"`
	AllocatedCount      int64 `json:"allocatedCount"`
	AvailableRooms      int64 `json:"availableRooms"`
	TotalCapacity       int64 `json:"totalCapacity"`
	TotalOccupancy      int64 `json:"totalOccupancy"`
	OccupancyPercent    int   `json:"occupancyPercent"`
	BedOccupancyPercent int   `json:"bedOccupancyPercent"`
}

// OccupancyRepair describes a room whose stored occupancy disagreed with
// its allocation count.
type OccupancyRepair struct {
	RoomID     int64  `json:"roomId"`
	RoomNumber string `json:"roomNumber"`
	Recorded   int    `json:"recorded"`
	Actual     int    `json:"actual"`
	Fixed      bool   `json:"fixed"`
}
