package models

import (
	"time"

	"github.com/google/uuid"
)

type ProposalStatus string

// Pending -> Accepted -> Completed
const (
	ProposalPending   ProposalStatus = "Pending"
	ProposalAccepted  ProposalStatus = "Accepted"
	ProposalCompleted ProposalStatus = "Completed"
)

type Proposal struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"proposalID"`
	FreelancerID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_job_freelancer" json:"freelancerID"`
	JobID        uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_proposal_job_freelancer" json:"jobID"`
	BidAmount    int64          `gorm:"not null" json:"bidAmount"`
	CoverLetter  string         `gorm:"type:text" json:"coverLetter"`
	Status       ProposalStatus `gorm:"column:status;type:varchar(20);not null;default:'Pending';index" json:"pStatus"`

	SubmittedOn time.Time `gorm:"autoCreateTime" json:"submittedOn"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Submission struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"submissionID"`
	ProposalID     uuid.UUID `gorm:"type:uuid;not null;index" json:"proposalID"`
	SubmissionText string    `gorm:"type:text" json:"submissionText"`
	SubmissionDate time.Time `gorm:"autoCreateTime" json:"submissionDate"`
}
