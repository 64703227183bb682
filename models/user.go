package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password,omitempty" json:"-"` // "-" means don't include in JSON
	Role        Role               `bson:"role" json:"role"`
	PhoneNumber string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   primitive.ObjectID
	Role Role
}

func (p Principal) Authenticated() bool {
	return !p.ID.IsZero()
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal owns the resource or is staff.
func (p Principal) CanAccess(owner primitive.ObjectID) bool {
	return p.IsAdmin() || (p.Authenticated() && p.ID == owner)
}
