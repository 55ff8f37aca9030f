package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "Pending"
	TransactionCompleted TransactionStatus = "Completed"
	TransactionFailed    TransactionStatus = "Failed"
	TransactionRefunded  TransactionStatus = "Refunded"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionCompleted, TransactionFailed, TransactionRefunded:
		return true
	}
	return false
}

// Transaction records a monetary movement tied to a job.
type Transaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"transactionID"`
	JobID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"jID"`
	Amount        int64             `gorm:"not null" json:"amount"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"tStatus"`
	TransactionOn time.Time         `gorm:"autoCreateTime" json:"transactionOn"`
}
