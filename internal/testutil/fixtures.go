// Package testutil builds throwaway SQLite databases seeded with a small school.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/sekolah-api/internal/database"
	"github.com/noah-isme/sekolah-api/internal/models"
)

// NewDB opens a migrated SQLite database private to the test.
// A single connection serialises writers the way row locks do on Postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sekolah.db")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?_busy_timeout=5000", path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// School is the seeded reference data shared by repository, service and handler tests.
//
// Teacher teaches Math to Classroom in semester "1"; OtherTeacher teaches Science to
// the same classroom. Student sits in Classroom, OtherStudent in OtherClassroom.
type School struct {
	Admin            models.User
	TeacherUser      models.User
	OtherTeacherUser models.User
	StudentUser      models.User
	OtherStudentUser models.User

	Teacher      models.Teacher
	OtherTeacher models.Teacher

	Classroom      models.Classroom
	OtherClassroom models.Classroom

	Math    models.Subject
	Science models.Subject

	Student      models.Student
	OtherStudent models.Student

	MathSchedule    models.Schedule
	ScienceSchedule models.Schedule

	Quiz models.AssessmentType
	Exam models.AssessmentType
}

// SeedSchool inserts the reference data described on School.
func SeedSchool(t testing.TB, db *gorm.DB) School {
	t.Helper()

	var s School
	s.Admin = createUser(t, db, "Ibu Admin", "admin@sekolah.test", models.RoleAdmin)
	s.TeacherUser = createUser(t, db, "Pak Budi", "budi@sekolah.test", models.RoleTeacher)
	s.OtherTeacherUser = createUser(t, db, "Bu Sari", "sari@sekolah.test", models.RoleTeacher)
	s.StudentUser = createUser(t, db, "Andi", "andi@sekolah.test", models.RoleStudent)
	s.OtherStudentUser = createUser(t, db, "Citra", "citra@sekolah.test", models.RoleStudent)

	s.Teacher = models.Teacher{UserID: s.TeacherUser.ID}
	require.NoError(t, db.Omit("User").Create(&s.Teacher).Error)
	s.OtherTeacher = models.Teacher{UserID: s.OtherTeacherUser.ID}
	require.NoError(t, db.Omit("User").Create(&s.OtherTeacher).Error)

	s.Classroom = models.Classroom{Name: "X IPA 1", Level: "10"}
	require.NoError(t, db.Create(&s.Classroom).Error)
	s.OtherClassroom = models.Classroom{Name: "XI IPS 2", Level: "11"}
	require.NoError(t, db.Create(&s.OtherClassroom).Error)

	s.Math = models.Subject{Name: "Math"}
	require.NoError(t, db.Create(&s.Math).Error)
	s.Science = models.Subject{Name: "Science"}
	require.NoError(t, db.Create(&s.Science).Error)

	s.Student = models.Student{UserID: s.StudentUser.ID, NIS: "1001", ClassroomID: s.Classroom.ID}
	require.NoError(t, db.Omit("User", "Classroom").Create(&s.Student).Error)
	s.OtherStudent = models.Student{UserID: s.OtherStudentUser.ID, NIS: "1002", ClassroomID: s.OtherClassroom.ID}
	require.NoError(t, db.Omit("User", "Classroom").Create(&s.OtherStudent).Error)

	s.MathSchedule = CreateSchedule(t, db, s.Classroom.ID, s.Math.ID, s.Teacher.ID, "1")
	s.ScienceSchedule = CreateSchedule(t, db, s.Classroom.ID, s.Science.ID, s.OtherTeacher.ID, "1")

	s.Quiz = CreateAssessmentType(t, db, "Quiz", 50)
	s.Exam = CreateAssessmentType(t, db, "Exam", 100)

	return s
}

// CreateSchedule inserts a schedule row.
func CreateSchedule(t testing.TB, db *gorm.DB, classroomID, subjectID, teacherID uint, semester string) models.Schedule {
	t.Helper()
	schedule := models.Schedule{
		ClassroomID: classroomID,
		SubjectID:   subjectID,
		TeacherID:   teacherID,
		Semester:    semester,
		Day:         "Monday",
	}
	require.NoError(t, db.Omit("Classroom", "Subject", "Teacher").Create(&schedule).Error)
	return schedule
}

// CreateAssessmentType inserts an assessment type.
func CreateAssessmentType(t testing.TB, db *gorm.DB, name string, weight float64) models.AssessmentType {
	t.Helper()
	assessmentType := models.AssessmentType{Name: name, WeightPercent: weight}
	require.NoError(t, db.Create(&assessmentType).Error)
	return assessmentType
}

// CreateAssignment inserts an assignment for the schedule, due in a week.
func CreateAssignment(t testing.TB, db *gorm.DB, schedule models.Schedule, title string) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		ScheduleID: schedule.ID,
		Title:      title,
		DueDate:    time.Now().Add(7 * 24 * time.Hour),
	}
	require.NoError(t, db.Omit("Schedule").Create(&assignment).Error)
	return assignment
}

// CreateSubmission inserts an ungraded submission.
func CreateSubmission(t testing.TB, db *gorm.DB, assignment models.Assignment, student models.Student) models.Submission {
	t.Helper()
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		SubmittedAt:  time.Now(),
		Status:       models.SubmissionStatusSubmitted,
	}
	require.NoError(t, db.Omit("Assignment", "Student").Create(&submission).Error)
	return submission
}

func createUser(t testing.TB, db *gorm.DB, name, email, role string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}
