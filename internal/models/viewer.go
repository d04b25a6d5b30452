package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ViewerKind tags who is using the application.
type ViewerKind string

const (
	ViewerAdmin   ViewerKind = "admin"
	ViewerTeacher ViewerKind = "teacher"
	ViewerStudent ViewerKind = "student"
)

// Capability is a permission granted to a viewer.
type Capability string

const (
	CapEditGrades     Capability = "edit_grades"
	CapManageSessions Capability = "manage_sessions"
	CapManageStudents Capability = "manage_students"
	CapManageTeachers Capability = "manage_teachers"
	CapManageSettings Capability = "manage_settings"
	CapViewReports    Capability = "view_reports"
	CapViewOwnGrades  Capability = "view_own_grades"
)

var capabilitiesByKind = map[ViewerKind][]Capability{
	ViewerAdmin: {
		CapEditGrades, CapManageSessions, CapManageStudents, CapManageTeachers, CapManageSettings, CapViewReports,
	},
	ViewerTeacher: {CapEditGrades, CapManageSessions, CapViewReports},
	ViewerStudent: {CapViewOwnGrades},
}

// CapabilitiesFor returns the capability set granted to a viewer kind.
func CapabilitiesFor(kind ViewerKind) []Capability {
	return append([]Capability(nil), capabilitiesByKind[kind]...)
}

// Viewer is resolved once at login and carried by every request.
type Viewer struct {
	Kind         ViewerKind   `json:"kind"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ClassName    string       `json:"class_name,omitempty"`
	Classes      []string     `json:"classes,omitempty"`
	Subjects     []string     `json:"subjects,omitempty"`
	Capabilities []Capability `json:"capabilities"`
}

// NewViewer builds a viewer with the capabilities of its kind.
func NewViewer(kind ViewerKind, id, name string) Viewer {
	return Viewer{Kind: kind, ID: id, Name: name, Capabilities: CapabilitiesFor(kind)}
}

// Can reports whether the viewer holds the capability.
func (v Viewer) Can(capability Capability) bool {
	for _, c := range v.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// CanAccessClass reports whether the viewer may read or write data of the class.
func (v Viewer) CanAccessClass(className string) bool {
	switch v.Kind {
	case ViewerAdmin:
		return true
	case ViewerTeacher:
		return containsFold(v.Classes, className)
	case ViewerStudent:
		return v.ClassName == className
	default:
		return false
	}
}

// CanAccessSubject reports whether the viewer may read or write grades of the subject.
func (v Viewer) CanAccessSubject(subject string) bool {
	if v.Kind != ViewerTeacher || len(v.Subjects) == 0 {
		return v.Kind != ""
	}
	return containsFold(v.Subjects, subject)
}

// LoginRequest holds credentials for any viewer kind. Students log in with their
// registration number as username and roll number as password.
type LoginRequest struct {
	Kind     ViewerKind `json:"kind" validate:"required,oneof=admin teacher student"`
	Username string     `json:"username" validate:"required"`
	Password string     `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and the resolved viewer.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Viewer      Viewer    `json:"viewer"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Viewer Viewer `json:"viewer"`
	jwt.RegisteredClaims
}
