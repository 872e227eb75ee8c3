package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/parse"
)

// RegisterStudent validates and inserts a new student.
func (s *gormStore) RegisterStudent(ctx context.Context, in StudentInput) (*model.Student, error) {
	name, err := parse.Name(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	email, err := parse.Email(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	phone, err := parse.Phone(in.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	student := model.Student{Name: name, Email: email, Phone: phone}
	if err := s.db.WithContext(ctx).Create(&student).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("student with email %s", email))
	}

	log.Info().Int64("student_id", student.ID).Msg("student registered")
	return &student, nil
}

// ListStudents returns all students in registration order.
func (s *gormStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	students := []model.Student{}
	if err := s.db.WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return nil, translateError(err, "students")
	}
	return students, nil
}

// GetStudent returns a single student by id.
func (s *gormStore) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student
	if err := s.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("student %d", id))
	}
	return &student, nil
}
