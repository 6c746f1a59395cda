package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdministrator UserRole = "administrator"
	RoleInstructor    UserRole = "instructor"
	RoleLearner       UserRole = "learner"
)

// ParseRole normalises the role claim carried by a credential. Legacy names issued by the
// identity service (super-admin, admin, teacher, student) map onto the three roles used here.
func ParseRole(raw string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "administrator", "admin", "super-admin", "superadmin":
		return RoleAdministrator, true
	case "instructor", "teacher":
		return RoleInstructor, true
	case "learner", "student":
		return RoleLearner, true
	default:
		return "", false
	}
}

func (r UserRole) IsLearner() bool {
	return r == RoleLearner
}

// CanSeeAnswerKey reports whether the role may see is_correct flags.
func (r UserRole) CanSeeAnswerKey() bool {
	return r == RoleAdministrator || r == RoleInstructor
}

// Identity is the verified caller resolved from a bearer credential.
type Identity struct {
	SubjectID string   `json:"subject_id"`
	Role      UserRole `json:"role"`
}

// Student is owned by the identity service; the exam service only reads it.
type Student struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	FullName  string    `json:"full_name" gorm:"not null;size:255"`
	GroupID   *string   `json:"group_id,omitempty" gorm:"size:36;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Student) TableName() string {
	return "students"
}
