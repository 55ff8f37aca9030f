package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobLevel string

const (
	JobLevelEntry        JobLevel = "Entry"
	JobLevelIntermediate JobLevel = "Intermediate"
	JobLevelExpert       JobLevel = "Expert"
)

type Job struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"jobID"`
	ClientID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"cID"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	TargetSkills     datatypes.JSON `json:"targetSkills"` // ["go","postgres"]
	ConnectsRequired int            `gorm:"not null;default:0" json:"connectsRequired"`
	EstTime          string         `gorm:"type:varchar(50)" json:"estTime"`
	JobLevel         JobLevel       `gorm:"type:varchar(50)" json:"jobLevel"`
	Price            int64          `gorm:"not null;default:0" json:"price"`

	PostedOn  time.Time `gorm:"autoCreateTime" json:"postedOn"`
	UpdatedAt time.Time `json:"updatedAt"`
}
