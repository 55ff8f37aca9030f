package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WalletTrxType string

const (
	WalletTrxCredit   WalletTrxType = "credit"   // job payout, top-up
	WalletTrxDebit    WalletTrxType = "debit"    // job payment
	WalletTrxConnects WalletTrxType = "connects" // connects purchase
	WalletTrxWithdraw WalletTrxType = "withdraw"
)

// WalletTransaction is the per-account ledger; one row per balance movement.
type WalletTransaction struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID     `gorm:"type:uuid;index;not null" json:"userID"`
	Amount      int64         `gorm:"not null" json:"amount"`
	Type        WalletTrxType `gorm:"type:varchar(20);not null" json:"type"`
	Description string        `gorm:"type:text" json:"description"`
	ReferenceID *uuid.UUID    `gorm:"type:uuid;index" json:"referenceID,omitempty"` // job or withdrawal id
	CreatedAt   time.Time     `json:"createdAt"`
}

type Withdrawal struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"withdrawalID"`
	FreelancerID uuid.UUID      `gorm:"type:uuid;index;not null" json:"freelancerID"`
	Amount       int64          `gorm:"not null" json:"amount"`
	BankDetails  datatypes.JSON `json:"bankDetails"`
	CreatedAt    time.Time      `json:"createdAt"`
}
