package model

import "time"

// Allocation links one student to one room. The unique index on
// StudentID makes "one allocation per student" a storage constraint.
type Allocation struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	StudentID int64     `gorm:"uniqueIndex;not null" json:"studentId"`
	RoomID    int64     `gorm:"index;not null" json:"roomId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Student *Student `gorm:"constraint:OnDelete:RESTRICT" json:"Student,omitempty"`
	Room    *Room    `gorm:"constraint:OnDelete:RESTRICT" json:"Room,omitempty"`
}
