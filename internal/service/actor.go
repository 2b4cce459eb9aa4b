package service

import "github.com/noah-isme/sekolah-api/internal/models"

// Actor is the authenticated caller of an operation, taken from the request context.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool {
	return models.NormalizeRole(a.Role) == models.RoleAdmin
}

// IsTeacher reports whether the actor is a teacher.
func (a Actor) IsTeacher() bool {
	return models.NormalizeRole(a.Role) == models.RoleTeacher
}

// IsStudent reports whether the actor is a student.
func (a Actor) IsStudent() bool {
	return models.NormalizeRole(a.Role) == models.RoleStudent
}
