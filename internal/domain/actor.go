package domain

import "fmt"

// Role is the account type carried in the session token.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleSchool  Role = "school"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a claim value to a Role. Empty defaults to teacher.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case "":
		return RoleTeacher, nil
	case RoleTeacher, RoleSchool, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Email  string
	Role   Role
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsSchool() bool  { return a.Role == RoleSchool }
func (a Actor) IsTeacher() bool { return a.Role == RoleTeacher }
