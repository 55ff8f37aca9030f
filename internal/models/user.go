package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleFreelancer || r == RoleAdmin
}

// User is the base account; Client and Freelancer share its id.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"userID"`
	Name     string    `gorm:"not null;index" json:"name"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	AccType  Role      `gorm:"type:varchar(20);not null;index" json:"accType"`
	Country  string    `gorm:"type:varchar(100)" json:"country"`
	IsActive bool      `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
