package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/testutil"
)

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	mathWork := testutil.CreateSubmission(t, db, testutil.CreateAssignment(t, db, school.MathSchedule, "Geometry"), school.Student)
	scienceWork := testutil.CreateSubmission(t, db, testutil.CreateAssignment(t, db, school.ScienceSchedule, "Atoms"), school.Student)

	teacherID := school.TeacherUser.ID
	items, err := repo.List(ctx, SubmissionFilter{TeacherUserID: &teacherID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, mathWork.ID, items[0].ID)
	require.Equal(t, "Math", items[0].Assignment.Schedule.Subject.Name)
	require.Equal(t, "Andi", items[0].Student.User.Name)

	studentID := school.Student.ID
	items, err = repo.List(ctx, SubmissionFilter{StudentID: &studentID})
	require.NoError(t, err)
	require.Len(t, items, 2)

	graded := models.SubmissionStatusGraded
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", scienceWork.ID).Update("status", graded).Error)
	items, err = repo.List(ctx, SubmissionFilter{Status: &graded})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, scienceWork.ID, items[0].ID)
}

func TestSubmissionRepositoryResubmitOnlyWhileUngraded(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	assignment := testutil.CreateAssignment(t, db, school.MathSchedule, "Vectors")
	submission := testutil.CreateSubmission(t, db, assignment, school.Student)

	submission.StudentComment = "second attempt"
	submission.FileURL = "https://files.test/v2.pdf"
	submission.SubmittedAt = time.Now()
	require.NoError(t, repo.Resubmit(ctx, &submission))

	stored, err := repo.GetByAssignmentAndStudent(ctx, assignment.ID, school.Student.ID)
	require.NoError(t, err)
	require.Equal(t, "second attempt", stored.StudentComment)
	require.Equal(t, "https://files.test/v2.pdf", stored.FileURL)

	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", submission.ID).Update("status", models.SubmissionStatusGraded).Error)
	require.ErrorIs(t, repo.Resubmit(ctx, &submission), gorm.ErrRecordNotFound)

	loaded, err := repo.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, "Math", loaded.Schedule.Subject.Name)
}

func TestSubmissionRepositoryRejectsSecondSubmissionForAssignment(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	assignment := testutil.CreateAssignment(t, db, school.MathSchedule, "Matrices")
	testutil.CreateSubmission(t, db, assignment, school.Student)

	duplicate := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    school.Student.ID,
		SubmittedAt:  time.Now(),
		Status:       models.SubmissionStatusSubmitted,
	}
	require.ErrorIs(t, repo.Create(ctx, &duplicate), gorm.ErrDuplicatedKey)

	other := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    school.OtherStudent.ID,
		SubmittedAt:  time.Now(),
		Status:       models.SubmissionStatusSubmitted,
	}
	require.NoError(t, repo.Create(ctx, &other))
}
