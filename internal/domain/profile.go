package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Profile represents a user in the system (a Student, an Instructor, or an Admin).
type Profile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Student-specific ---
	// Back-reference to the Instructor coaching this Student.
	// Pointer because admins and instructors have no coach.
	InstructorID *primitive.ObjectID `bson:"instructorId,omitempty" json:"instructorId,omitempty"`
}

func (p *Profile) IsInstructor() bool {
	return p.Role == RoleInstructor
}

func (p *Profile) IsStudent() bool {
	return p.Role == RoleStudent
}

// CoachedBy reports whether this profile is a student coached by the given instructor.
func (p *Profile) CoachedBy(instructorID primitive.ObjectID) bool {
	return p.IsStudent() && p.InstructorID != nil && *p.InstructorID == instructorID
}
