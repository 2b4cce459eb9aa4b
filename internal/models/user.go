package models

import (
	"strings"
	"time"
)

const (
	// RoleStudent identifies learners.
	RoleStudent = "student"
	// RoleTeacher identifies teaching staff that own class schedules.
	RoleTeacher = "teacher"
	// RoleAdmin identifies school administrators.
	RoleAdmin = "admin"
)

// User is the identity record shared by students, teachers and administrators.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:16;not null;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeRole lower-cases a role and maps the legacy Indonesian labels.
func NormalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case "siswa":
		return RoleStudent
	case "guru":
		return RoleTeacher
	default:
		return r
	}
}
