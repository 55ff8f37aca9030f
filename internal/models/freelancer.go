package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultConnects is granted to every freelancer at registration.
const DefaultConnects = 20

// Freelancer extends User (freelancers.id = users.id).
type Freelancer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"freelancerID"`
	Niche         string    `gorm:"type:varchar(255)" json:"niche"`
	HourlyRate    float64   `gorm:"not null;default:0" json:"hourlyRate"`
	Qualification string    `gorm:"type:varchar(100)" json:"qualification"`
	About         string    `gorm:"type:varchar(255)" json:"about"`

	Balance       int64 `gorm:"not null;default:0" json:"balance"`
	Earned        int64 `gorm:"not null;default:0" json:"earned"`
	TotalConnects int   `gorm:"not null;default:0" json:"totalConnects"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Skill struct {
	ID        uint      `gorm:"primaryKey" json:"skillID"`
	SkillName string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"skillName"`
	CreatedAt time.Time `json:"createdAt"`
}

type FreelancerSkill struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_freelancer_skill" json:"freelancerID"`
	SkillName    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_freelancer_skill" json:"skillName"`
}
