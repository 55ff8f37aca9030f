package models

import (
	"time"

	"github.com/google/uuid"
)

// Client extends User (clients.id = users.id). Money columns are minor currency units.
type Client struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"cID"`
	CompanyName    string    `gorm:"type:varchar(40)" json:"companyName"`
	CompanyAddress string    `gorm:"type:varchar(255)" json:"companyAddress"`
	Qualification  string    `gorm:"type:varchar(100)" json:"qualification"`
	About          string    `gorm:"type:varchar(255)" json:"about"`

	Balance      int64   `gorm:"not null;default:0" json:"balance"`
	Spent        int64   `gorm:"not null;default:0" json:"spent"`
	Rating       float64 `gorm:"not null;default:0" json:"rating"`
	TotalReviews int     `gorm:"not null;default:0" json:"totalReviews"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
