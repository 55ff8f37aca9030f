package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/services/wallet"
)

type ProposalHandler struct {
	DB     *gorm.DB
	Wallet *wallet.WalletService
	Notify realtime.Emitter
}

func NewProposalHandler(db *gorm.DB, w *wallet.WalletService, notify realtime.Emitter) *ProposalHandler {
	return &ProposalHandler{DB: db, Wallet: w, Notify: notify}
}

func (h *ProposalHandler) emit(c *fiber.Ctx, to uuid.UUID, event string, data interface{}) {
	if h.Notify == nil {
		return
	}
	if err := h.Notify.Emit(c.UserContext(), to, event, data); err != nil {
		log := logger.WithComponent("proposals")
		log.Warn().Err(err).Str("event", event).Msg("notification failed")
	}
}

type submitProposalReq struct {
	JobID       string `json:"jobID"`
	BidAmount   int64  `json:"bidAmount"`
	CoverLetter string `json:"coverLetter"`
}

// Submit files a proposal and spends the job's connects cost in the same transaction.
func (h *ProposalHandler) Submit(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	var req submitProposalReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	jobID, err := parseUUID("jobID", req.JobID)
	if err != nil {
		return err
	}
	if req.BidAmount <= 0 {
		return fail(c, fiber.StatusBadRequest, "bidAmount must be greater than zero")
	}

	var job models.Job
	p := models.Proposal{
		ID:           uuid.New(),
		FreelancerID: uid,
		JobID:        jobID,
		BidAmount:    req.BidAmount,
		CoverLetter:  strings.TrimSpace(req.CoverLetter),
		Status:       models.ProposalPending,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(openJobFilter).First(&job, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "job not found or no longer open")
			}
			return err
		}
		if job.ClientID == uid {
			return fiber.NewError(fiber.StatusBadRequest, "cannot propose on your own job")
		}
		if err := tx.Create(&p).Error; err != nil {
			if isUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "you already submitted a proposal for this job")
			}
			return err
		}
		return h.Wallet.SpendConnects(tx, uid, job.ConnectsRequired)
	})
	if err != nil {
		return walletFail(c, err)
	}

	h.emit(c, job.ClientID, "new_proposal", p)
	return created(c, "proposal submitted", p)
}

// Accept hires the proposal's freelancer; a job can have only one accepted proposal.
func (h *ProposalHandler) Accept(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	pid, err := paramUUID(c, "proposalID")
	if err != nil {
		return err
	}

	var p models.Proposal
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", pid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "proposal not found")
			}
			return err
		}

		// lock the job so two accepts on the same job serialize
		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, "id = ?", p.JobID).Error; err != nil {
			return err
		}
		if job.ClientID != uid {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: not your job")
		}

		var hired int64
		if err := tx.Model(&models.Proposal{}).
			Where("job_id = ? AND status IN ?", job.ID, []models.ProposalStatus{models.ProposalAccepted, models.ProposalCompleted}).
			Count(&hired).Error; err != nil {
			return err
		}
		if hired > 0 {
			return fiber.NewError(fiber.StatusConflict, "job already has an accepted proposal")
		}

		res := tx.Model(&models.Proposal{}).
			Where("id = ? AND status = ?", p.ID, models.ProposalPending).
			Update("status", models.ProposalAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "proposal is no longer pending")
		}
		p.Status = models.ProposalAccepted

		// the agreed bid becomes the amount paid on completion
		return tx.Model(&job).Update("price", p.BidAmount).Error
	})
	if err != nil {
		return walletFail(c, err)
	}

	h.emit(c, p.FreelancerID, "proposal_accepted", p)
	return ok(c, "proposal accepted", p)
}

type proposalWithFreelancer struct {
	ProposalID     uuid.UUID `json:"proposalID"`
	JobID          uuid.UUID `json:"jobID"`
	FreelancerID   uuid.UUID `json:"freelancerID"`
	FreelancerName string    `json:"freelancerName"`
	BidAmount      int64     `json:"bidAmount"`
	CoverLetter    string    `json:"coverLetter"`
	Status         string    `json:"pStatus"`
	SubmittedOn    time.Time `json:"submittedOn"`
}

func (h *ProposalHandler) ByJob(c *fiber.Ctx) error {
	jobID, err := paramUUID(c, "jobID")
	if err != nil {
		return err
	}
	var out []proposalWithFreelancer
	err = h.DB.Raw(`SELECT p.id AS proposal_id, p.job_id, p.freelancer_id, u.name AS freelancer_name,
			p.bid_amount, p.cover_letter, p.status, p.submitted_on
		FROM proposals p
		JOIN users u ON u.id = p.freelancer_id
		WHERE p.job_id = ? AND p.status = ?
		ORDER BY p.submitted_on DESC`, jobID, models.ProposalPending).Scan(&out).Error
	if err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *ProposalHandler) ByFreelancer(c *fiber.Ctx) error {
	fid, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	var out []models.Proposal
	if err := h.DB.Where("freelancer_id = ?", fid).Order("submitted_on DESC").Find(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

// Delete withdraws a pending proposal. Spent connects are not refunded.
func (h *ProposalHandler) Delete(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	pid, err := paramUUID(c, "proposalID")
	if err != nil {
		return err
	}

	res := h.DB.Where("id = ? AND freelancer_id = ? AND status = ?", pid, uid, models.ProposalPending).
		Delete(&models.Proposal{})
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "no pending proposal of yours with that id")
	}
	return ok(c, "proposal withdrawn", nil)
}
