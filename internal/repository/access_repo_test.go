package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/testutil"
)

func TestAccessRepositoryScheduleOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewAccessRepository(db)
	ctx := context.Background()

	submission := testutil.CreateSubmission(t, db, testutil.CreateAssignment(t, db, school.MathSchedule, "Proofs"), school.Student)

	owns, err := repo.TeacherOwnsSubmission(ctx, school.TeacherUser.ID, submission.ID)
	require.NoError(t, err)
	require.True(t, owns)

	owns, err = repo.TeacherOwnsSubmission(ctx, school.OtherTeacherUser.ID, submission.ID)
	require.NoError(t, err)
	require.False(t, owns)

	teaches, err := repo.TeacherTeachesStudent(ctx, school.OtherTeacherUser.ID, school.Student.ID)
	require.NoError(t, err)
	require.True(t, teaches)

	teaches, err = repo.TeacherTeachesStudent(ctx, school.TeacherUser.ID, school.OtherStudent.ID)
	require.NoError(t, err)
	require.False(t, teaches)
}

func TestAccessRepositoryStudentIDForUser(t *testing.T) {
	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	repo := NewAccessRepository(db)

	id, err := repo.StudentIDForUser(context.Background(), school.StudentUser.ID)
	require.NoError(t, err)
	require.Equal(t, school.Student.ID, id)

	_, err = repo.StudentIDForUser(context.Background(), school.TeacherUser.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
