package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/metrics"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
)

var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientConnects = errors.New("insufficient connects")
	ErrNotFound             = errors.New("account not found")
	ErrNoAcceptedProposal   = errors.New("job has no accepted proposal")
	ErrAlreadyCompleted     = errors.New("job already completed")
	ErrNotJobOwner          = errors.New("only the job owner can complete this job")
)

// WalletService moves money between client and freelancer accounts.
// Every balance change is a conditional UPDATE whose affected-row count decides success.
// Raw SQL is kept only where RETURNING hands back the new balance.
type WalletService struct {
	DB  *gorm.DB
	log zerolog.Logger
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db, log: logger.WithComponent("wallet")}
}

type Completion struct {
	JobID         uuid.UUID `json:"jobID"`
	ProposalID    uuid.UUID `json:"proposalID"`
	ClientID      uuid.UUID `json:"clientID"`
	FreelancerID  uuid.UUID `json:"freelancerID"`
	TransactionID uuid.UUID `json:"transactionID"`
	Amount        int64     `json:"amount"`
}

type completionRow struct {
	JobID        uuid.UUID
	Price        int64
	ClientID     uuid.UUID
	FreelancerID uuid.UUID
	ProposalID   uuid.UUID
	Status       string
}

// CompleteJob pays the accepted freelancer the job price out of the owner's balance.
// The proposal is claimed first, so a concurrent second call sees zero rows and fails
// with ErrAlreadyCompleted.
func (s *WalletService) CompleteJob(ctx context.Context, jobID, actorID uuid.UUID) (*Completion, error) {
	var out *Completion

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row completionRow
		res := tx.Raw(`SELECT j.id AS job_id, j.price, j.client_id, p.freelancer_id, p.id AS proposal_id, p.status
			FROM jobs j
			JOIN proposals p ON p.job_id = j.id
			WHERE j.id = ? AND p.status IN ('Accepted', 'Completed')
			LIMIT 1`, jobID).Scan(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoAcceptedProposal
		}
		if row.Status == string(models.ProposalCompleted) {
			return ErrAlreadyCompleted
		}
		if row.ClientID != actorID {
			return ErrNotJobOwner
		}
		if row.Price <= 0 {
			return ErrInvalidAmount
		}

		claim := tx.Model(&models.Proposal{}).
			Where("id = ? AND status = ?", row.ProposalID, models.ProposalAccepted).
			Update("status", models.ProposalCompleted)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrAlreadyCompleted
		}

		debit := tx.Model(&models.Client{}).
			Where("id = ? AND balance >= ?", row.ClientID, row.Price).
			Updates(map[string]interface{}{
				"balance": gorm.Expr("balance - ?", row.Price),
				"spent":   gorm.Expr("spent + ?", row.Price),
			})
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		credit := tx.Model(&models.Freelancer{}).
			Where("id = ?", row.FreelancerID).
			Updates(map[string]interface{}{
				"balance": gorm.Expr("balance + ?", row.Price),
				"earned":  gorm.Expr("earned + ?", row.Price),
			})
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return ErrNotFound
		}

		trx := models.Transaction{
			ID:     uuid.New(),
			JobID:  row.JobID,
			Amount: row.Price,
			Status: models.TransactionCompleted,
		}
		if err := tx.Create(&trx).Error; err != nil {
			return err
		}

		if err := writeLedger(tx, row.ClientID, row.Price, models.WalletTrxDebit, "payment for job", &row.JobID); err != nil {
			return err
		}
		if err := writeLedger(tx, row.FreelancerID, row.Price, models.WalletTrxCredit, "payout for job", &row.JobID); err != nil {
			return err
		}

		out = &Completion{
			JobID:         row.JobID,
			ProposalID:    row.ProposalID,
			ClientID:      row.ClientID,
			FreelancerID:  row.FreelancerID,
			TransactionID: trx.ID,
			Amount:        row.Price,
		}
		return nil
	})

	s.record("complete_job", err)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("job_id", out.JobID.String()).
		Str("freelancer_id", out.FreelancerID.String()).
		Int64("amount", out.Amount).
		Msg("job completed")
	return out, nil
}

type ConnectsPurchase struct {
	Balance       int64 `json:"balance"`
	TotalConnects int   `json:"totalConnects"`
}

// BuyConnects debits amount from the freelancer balance and adds quantity connects.
func (s *WalletService) BuyConnects(ctx context.Context, freelancerID uuid.UUID, quantity int, amount int64) (*ConnectsPurchase, error) {
	if quantity <= 0 || amount <= 0 {
		s.record("buy_connects", ErrInvalidAmount)
		return nil, ErrInvalidAmount
	}

	var out ConnectsPurchase
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Raw(`UPDATE freelancers SET balance = balance - ?, total_connects = total_connects + ?, updated_at = NOW()
			WHERE id = ? AND balance >= ?
			RETURNING balance, total_connects`, amount, quantity, freelancerID, amount).Scan(&out)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrShort(tx, "freelancers", freelancerID)
		}
		return writeLedger(tx, freelancerID, amount, models.WalletTrxConnects, "connects purchase", nil)
	})

	s.record("buy_connects", err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type WithdrawResult struct {
	WithdrawalID uuid.UUID `json:"withdrawalID"`
	Balance      int64     `json:"balance"`
	Earned       int64     `json:"earned"`
}

// Withdraw debits balance and earned together and records the payout request.
// It fails closed: amount > balance changes nothing.
func (s *WalletService) Withdraw(ctx context.Context, freelancerID uuid.UUID, amount int64, bankDetails datatypes.JSON) (*WithdrawResult, error) {
	if amount <= 0 {
		s.record("withdraw", ErrInvalidAmount)
		return nil, ErrInvalidAmount
	}

	out := WithdrawResult{WithdrawalID: uuid.New()}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var after struct{ Balance, Earned int64 }
		res := tx.Raw(`UPDATE freelancers SET balance = balance - ?, earned = GREATEST(earned - ?, 0), updated_at = NOW()
			WHERE id = ? AND balance >= ?
			RETURNING balance, earned`, amount, amount, freelancerID, amount).Scan(&after)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrShort(tx, "freelancers", freelancerID)
		}
		out.Balance, out.Earned = after.Balance, after.Earned

		if err := tx.Create(&models.Withdrawal{
			ID:           out.WithdrawalID,
			FreelancerID: freelancerID,
			Amount:       amount,
			BankDetails:  bankDetails,
		}).Error; err != nil {
			return err
		}
		return writeLedger(tx, freelancerID, amount, models.WalletTrxWithdraw, "withdrawal", &out.WithdrawalID)
	})

	s.record("withdraw", err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddFunds tops up a client balance and returns the new balance.
func (s *WalletService) AddFunds(ctx context.Context, clientID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		s.record("add_funds", ErrInvalidAmount)
		return 0, ErrInvalidAmount
	}

	var out struct{ Balance int64 }
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Raw(`UPDATE clients SET balance = balance + ?, updated_at = NOW() WHERE id = ? RETURNING balance`,
			amount, clientID).Scan(&out)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return writeLedger(tx, clientID, amount, models.WalletTrxCredit, "funds added", nil)
	})

	s.record("add_funds", err)
	if err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// SpendConnects deducts connects inside the caller's transaction.
func (s *WalletService) SpendConnects(tx *gorm.DB, freelancerID uuid.UUID, connects int) error {
	if connects <= 0 {
		return nil
	}
	res := tx.Model(&models.Freelancer{}).
		Where("id = ? AND total_connects >= ?", freelancerID, connects).
		Update("total_connects", gorm.Expr("total_connects - ?", connects))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missingOrShort(tx, "freelancers", freelancerID, ErrInsufficientConnects)
	}
	return nil
}

// missingOrShort tells a missing account apart from a failed balance guard.
func missingOrShort(tx *gorm.DB, table string, id uuid.UUID, short ...error) error {
	var n int64
	if err := tx.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if len(short) > 0 {
		return short[0]
	}
	return ErrInsufficientBalance
}

func writeLedger(tx *gorm.DB, userID uuid.UUID, amount int64, typ models.WalletTrxType, description string, ref *uuid.UUID) error {
	return tx.Create(&models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		ReferenceID: ref,
	}).Error
}

func (s *WalletService) record(kind string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInsufficientBalance):
		outcome = "insufficient_balance"
	case errors.Is(err, ErrInsufficientConnects):
		outcome = "insufficient_connects"
	case errors.Is(err, ErrAlreadyCompleted):
		outcome = "already_completed"
	case errors.Is(err, ErrInvalidAmount):
		outcome = "invalid_amount"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoAcceptedProposal):
		outcome = "not_found"
	case errors.Is(err, ErrNotJobOwner):
		outcome = "forbidden"
	default:
		outcome = "error"
		s.log.Error().Err(err).Str("kind", kind).Msg("funds workflow failed")
	}
	metrics.RecordTransfer(kind, outcome)
}
