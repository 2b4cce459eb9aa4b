package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/testutil"
)

func TestAssessmentTypeRepositoryListOrdersByNameWithUsage(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewAssessmentTypeRepository(db)
	grades := NewGradingRepository(db)
	ctx := context.Background()

	assignment := testutil.CreateAssignment(t, db, school.MathSchedule, "Fractions")
	submission := testutil.CreateSubmission(t, db, assignment, school.Student)
	_, err := grades.RecordGrade(ctx, RecordGradeInput{SubmissionID: submission.ID, AssessmentTypeID: school.Quiz.ID, Score: 70, GradedBy: school.TeacherUser.ID})
	require.NoError(t, err)

	homework := models.AssessmentType{Name: "Homework", WeightPercent: 20, Description: "Weekly"}
	require.NoError(t, repo.Create(ctx, &homework))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "Exam", items[0].Name)
	require.Equal(t, "Homework", items[1].Name)
	require.Equal(t, "Quiz", items[2].Name)
	require.Equal(t, int64(0), items[0].UsageCount)
	require.Equal(t, int64(1), items[2].UsageCount)
	require.Equal(t, 50.0, items[2].WeightPercent)
}

func TestAssessmentTypeRepositoryDeleteGuardsUsage(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewAssessmentTypeRepository(db)
	grades := NewGradingRepository(db)
	ctx := context.Background()

	assignment := testutil.CreateAssignment(t, db, school.MathSchedule, "Algebra")
	submission := testutil.CreateSubmission(t, db, assignment, school.Student)
	_, err := grades.RecordGrade(ctx, RecordGradeInput{SubmissionID: submission.ID, AssessmentTypeID: school.Quiz.ID, Score: 88, GradedBy: school.TeacherUser.ID})
	require.NoError(t, err)

	err = repo.Delete(ctx, school.Quiz.ID)
	require.ErrorIs(t, err, ErrInUse)

	_, err = repo.GetByID(ctx, school.Quiz.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, school.Exam.ID))
	_, err = repo.GetByID(ctx, school.Exam.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, repo.Delete(ctx, 9999), gorm.ErrRecordNotFound)
}

func TestAssessmentTypeRepositoryDeleteLocksTypeBeforeCountingUsage(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewAssessmentTypeRepository(db)

	trace := traceStatements(t, db)
	require.NoError(t, repo.Delete(context.Background(), school.Exam.ID))

	lock := trace.first("lock:assessment_types")
	require.GreaterOrEqual(t, lock, 0)
	require.Less(t, lock, trace.first("query:grade_entries"))
	require.Less(t, lock, trace.first("delete:assessment_types"))
}

func TestAssessmentTypeRepositoryUpdateAndNameTaken(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewAssessmentTypeRepository(db)
	ctx := context.Background()

	taken, err := repo.NameTaken(ctx, " quiz ", 0)
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = repo.NameTaken(ctx, "Quiz", school.Quiz.ID)
	require.NoError(t, err)
	require.False(t, taken)

	updated := school.Quiz
	updated.Name = "Daily Quiz"
	updated.WeightPercent = 25
	require.NoError(t, repo.Update(ctx, &updated))

	stored, err := repo.GetByID(ctx, school.Quiz.ID)
	require.NoError(t, err)
	require.Equal(t, "Daily Quiz", stored.Name)
	require.Equal(t, 25.0, stored.WeightPercent)

	missing := models.AssessmentType{ID: 4242, Name: "Ghost", WeightPercent: 10}
	require.ErrorIs(t, repo.Update(ctx, &missing), gorm.ErrRecordNotFound)
}
