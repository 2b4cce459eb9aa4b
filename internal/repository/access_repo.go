package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/models"
)

// AccessRepository answers schedule-ownership questions used for authorization.
// It never mutates data.
type AccessRepository interface {
	TeacherOwnsSubmission(ctx context.Context, teacherUserID, submissionID uint) (bool, error)
	TeacherTeachesStudent(ctx context.Context, teacherUserID, studentID uint) (bool, error)
	StudentIDForUser(ctx context.Context, userID uint) (uint, error)
}

type accessRepository struct {
	db *gorm.DB
}

// NewAccessRepository constructs the access-control repository.
func NewAccessRepository(db *gorm.DB) AccessRepository {
	return &accessRepository{db: db}
}

func (r *accessRepository) TeacherOwnsSubmission(ctx context.Context, teacherUserID, submissionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("submissions").
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Joins("JOIN schedules ON schedules.id = assignments.schedule_id").
		Joins("JOIN teachers ON teachers.id = schedules.teacher_id").
		Where("submissions.id = ?", submissionID).
		Where("teachers.user_id = ?", teacherUserID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accessRepository) TeacherTeachesStudent(ctx context.Context, teacherUserID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("students").
		Joins("JOIN schedules ON schedules.classroom_id = students.classroom_id").
		Joins("JOIN teachers ON teachers.id = schedules.teacher_id").
		Where("students.id = ?", studentID).
		Where("teachers.user_id = ?", teacherUserID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accessRepository) StudentIDForUser(ctx context.Context, userID uint) (uint, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&student).Error; err != nil {
		return 0, err
	}
	return student.ID, nil
}
