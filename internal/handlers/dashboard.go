package handlers

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

type dashboardProposal struct {
	ProposalID  uuid.UUID `json:"proposalID"`
	JobID       uuid.UUID `json:"jobID"`
	BidAmount   int64     `json:"bidAmount"`
	Status      string    `json:"pStatus"`
	SubmittedOn time.Time `json:"submittedOn"`
	Title       string    `json:"title"`
	EstTime     string    `json:"estTime"`
}

func (h *DashboardHandler) Proposals(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	var out []dashboardProposal
	err = h.DB.Raw(`SELECT p.id AS proposal_id, p.job_id, p.bid_amount, p.status, p.submitted_on, j.title, j.est_time
		FROM proposals p
		JOIN jobs j ON j.id = p.job_id
		WHERE p.freelancer_id = ?
		ORDER BY p.submitted_on DESC`, id).Scan(&out).Error
	if err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *DashboardHandler) Jobs(c *fiber.Ctx) error {
	id, err := paramUUID(c, "clientID")
	if err != nil {
		return err
	}
	var jobs []models.Job
	if err := h.DB.Where("client_id = ?", id).Order("posted_on DESC").Find(&jobs).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", jobs)
}

func (h *DashboardHandler) UnreadMessages(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	var n int64
	if err := h.DB.Model(&models.Message{}).Where("receiver_id = ? AND is_read = ?", id, false).Count(&n).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", fiber.Map{"unreadCount": n})
}

type dashboardTransaction struct {
	TransactionID uuid.UUID `json:"transactionID"`
	JobID         uuid.UUID `json:"jID"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"tStatus"`
	TransactionOn time.Time `json:"transactionOn"`
	Title         string    `json:"title"`
}

func (h *DashboardHandler) Transactions(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	var out []dashboardTransaction
	err = h.DB.Raw(`SELECT t.id AS transaction_id, t.job_id, t.amount, t.status, t.transaction_on, j.title
		FROM transactions t
		JOIN jobs j ON j.id = t.job_id
		WHERE j.client_id = ? OR j.id IN (SELECT job_id FROM proposals WHERE freelancer_id = ?)
		ORDER BY t.transaction_on DESC`, id, id).Scan(&out).Error
	if err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

// Stats summarizes the caller's account; the shape depends on the role.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var unread int64
	if err := h.DB.Model(&models.Message{}).Where("receiver_id = ? AND is_read = ?", uid, false).Count(&unread).Error; err != nil {
		return fail500(c, err)
	}

	switch authRole(c) {
	case models.RoleFreelancer:
		var f models.Freelancer
		if err := h.DB.First(&f, "id = ?", uid).Error; err != nil {
			return notFoundOr500(c, err, "freelancer")
		}
		var pending, active int64
		if err := h.DB.Model(&models.Proposal{}).Where("freelancer_id = ? AND status = ?", uid, models.ProposalPending).Count(&pending).Error; err != nil {
			return fail500(c, err)
		}
		if err := h.DB.Model(&models.Proposal{}).Where("freelancer_id = ? AND status = ?", uid, models.ProposalAccepted).Count(&active).Error; err != nil {
			return fail500(c, err)
		}
		return ok(c, "", fiber.Map{
			"balance":          f.Balance,
			"earned":           f.Earned,
			"totalConnects":    f.TotalConnects,
			"pendingProposals": pending,
			"activeJobs":       active,
			"unreadMessages":   unread,
		})

	case models.RoleClient:
		var cl models.Client
		if err := h.DB.First(&cl, "id = ?", uid).Error; err != nil {
			return notFoundOr500(c, err, "client")
		}
		var open, ongoing int64
		if err := h.DB.Model(&models.Job{}).Where("client_id = ?", uid).Where(openJobFilter).Count(&open).Error; err != nil {
			return fail500(c, err)
		}
		if err := h.DB.Model(&models.Proposal{}).
			Joins("JOIN jobs j ON j.id = proposals.job_id").
			Where("j.client_id = ? AND proposals.status = ?", uid, models.ProposalAccepted).
			Count(&ongoing).Error; err != nil {
			return fail500(c, err)
		}
		return ok(c, "", fiber.Map{
			"balance":        cl.Balance,
			"spent":          cl.Spent,
			"openJobs":       open,
			"ongoingJobs":    ongoing,
			"unreadMessages": unread,
		})
	}

	return ok(c, "", fiber.Map{"unreadMessages": unread})
}

// Ledger pages through the caller's wallet movements.
func (h *DashboardHandler) Ledger(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := h.DB.Model(&models.WalletTransaction{}).Where("user_id = ?", uid)
	if t := c.Query("type"); t != "" {
		q = q.Where("type = ?", t)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail500(c, err)
	}

	var rows []models.WalletTransaction
	if err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&rows).Error; err != nil {
		return fail500(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rows,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}
