package models

import "time"

// Classroom groups students that share schedules.
type Classroom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Level     string    `gorm:"size:16" json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subject is a taught course such as Mathematics.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Teacher links a user to teaching duties.
type Teacher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Student links a user to a classroom.
type Student struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	NIS         string    `gorm:"column:nis;size:32;uniqueIndex;not null" json:"nis"`
	ClassroomID uint      `gorm:"index;not null" json:"classroom_id"`
	User        User      `json:"user"`
	Classroom   Classroom `json:"classroom"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Schedule records that a teacher teaches a subject to a classroom during a semester.
type Schedule struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"index;not null" json:"classroom_id"`
	SubjectID   uint      `gorm:"index;not null" json:"subject_id"`
	TeacherID   uint      `gorm:"index;not null" json:"teacher_id"`
	Semester    string    `gorm:"size:16;not null" json:"semester"`
	Day         string    `gorm:"size:16" json:"day"`
	Classroom   Classroom `json:"classroom"`
	Subject     Subject   `json:"subject"`
	Teacher     Teacher   `json:"teacher"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Assignment is a piece of work published against a schedule.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ScheduleID  uint      `gorm:"index;not null" json:"schedule_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	Schedule    Schedule  `json:"schedule"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
