package model

import "time"

// PushSubscription holds the information for a browser push subscription
// belonging to a student.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	StudentID int64     `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Student *Student `gorm:"constraint:OnDelete:CASCADE"`
}
