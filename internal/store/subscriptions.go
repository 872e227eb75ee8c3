package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-allocation-backend/internal/model"
)

// SaveSubscription creates or replaces a push subscription for a student.
func (s *gormStore) SaveSubscription(ctx context.Context, in SubscriptionInput) error {
	if strings.TrimSpace(in.Endpoint) == "" || in.P256DH == "" || in.Auth == "" || in.StudentID <= 0 {
		return fmt.Errorf("%w: endpoint, p256dh, auth and studentId required", ErrValidation)
	}

	subscription := model.PushSubscription{
		Endpoint:  in.Endpoint,
		P256DH:    in.P256DH,
		Auth:      in.Auth,
		StudentID: in.StudentID,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student model.Student
		if err := tx.Select("id").First(&student, in.StudentID).Error; err != nil {
			return translateError(err, fmt.Sprintf("student %d", in.StudentID))
		}

		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "student_id"}),
		}).Create(&subscription).Error; err != nil {
			return translateError(err, "subscription")
		}
		return nil
	})
}

// GetSubscription looks a subscription up by its endpoint.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var subscription model.PushSubscription
	if err := s.db.WithContext(ctx).First(&subscription, "endpoint = ?", endpoint).Error; err != nil {
		return nil, translateError(err, "subscription")
	}
	return &subscription, nil
}

// DeleteSubscription removes a subscription. Deleting an unknown endpoint
// is not an error.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint required", ErrValidation)
	}
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return translateError(err, "subscription")
	}
	return nil
}
