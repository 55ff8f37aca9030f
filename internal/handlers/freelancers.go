package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/services/wallet"
)

type FreelancerHandler struct {
	DB     *gorm.DB
	Wallet *wallet.WalletService
}

func NewFreelancerHandler(db *gorm.DB, w *wallet.WalletService) *FreelancerHandler {
	return &FreelancerHandler{DB: db, Wallet: w}
}

type freelancerProfileReq struct {
	Niche         *string  `json:"niche"`
	HourlyRate    *float64 `json:"hourlyRate"`
	Qualification *string  `json:"qualification"`
	About         *string  `json:"about"`
}

func (r freelancerProfileReq) validate() FieldErrors {
	errs := FieldErrors{}
	if r.HourlyRate != nil && *r.HourlyRate < 0 {
		errs.Add("hourlyRate", "hourlyRate cannot be negative")
	}
	return errs
}

func (r freelancerProfileReq) updates() map[string]interface{} {
	m := map[string]interface{}{}
	if r.Niche != nil {
		m["niche"] = strings.TrimSpace(*r.Niche)
	}
	if r.HourlyRate != nil {
		m["hourly_rate"] = *r.HourlyRate
	}
	if r.Qualification != nil {
		m["qualification"] = strings.TrimSpace(*r.Qualification)
	}
	if r.About != nil {
		m["about"] = strings.TrimSpace(*r.About)
	}
	return m
}

func (h *FreelancerHandler) Create(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	var req freelancerProfileReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	p := models.Freelancer{ID: uid, TotalConnects: models.DefaultConnects}
	if req.Niche != nil {
		p.Niche = strings.TrimSpace(*req.Niche)
	}
	if req.HourlyRate != nil {
		p.HourlyRate = *req.HourlyRate
	}
	if req.Qualification != nil {
		p.Qualification = strings.TrimSpace(*req.Qualification)
	}
	if req.About != nil {
		p.About = strings.TrimSpace(*req.About)
	}

	if err := h.DB.Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "freelancer profile already exists")
		}
		return fail500(c, err)
	}
	return created(c, "freelancer profile created", p)
}

func (h *FreelancerHandler) List(c *fiber.Ctx) error {
	var out []models.Freelancer
	if err := h.DB.Order("created_at DESC").Find(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *FreelancerHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	var p models.Freelancer
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "freelancer")
	}
	return ok(c, "", p)
}

func (h *FreelancerHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}
	var req freelancerProfileReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}
	updates := req.updates()
	if len(updates) == 0 {
		return fail(c, fiber.StatusBadRequest, "nothing to update")
	}

	res := h.DB.Model(&models.Freelancer{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "freelancer not found")
	}
	return ok(c, "freelancer updated", nil)
}

func (h *FreelancerHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}
	res := h.DB.Where("id = ?", id).Delete(&models.Freelancer{})
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "freelancer not found")
	}
	return ok(c, "freelancer deleted", nil)
}

func (h *FreelancerHandler) Earnings(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	var p models.Freelancer
	if err := h.DB.Select("id", "earned", "balance").First(&p, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "freelancer")
	}
	return ok(c, "", fiber.Map{"earned": p.Earned, "balance": p.Balance})
}

func (h *FreelancerHandler) TotalConnects(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	var p models.Freelancer
	if err := h.DB.Select("id", "total_connects").First(&p, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "freelancer")
	}
	return ok(c, "", fiber.Map{"totalConnects": p.TotalConnects})
}

type appliedJob struct {
	ProposalID  uuid.UUID `json:"proposalID"`
	JobID       uuid.UUID `json:"jobID"`
	Title       string    `json:"title"`
	Price       int64     `json:"price"`
	BidAmount   int64     `json:"bidAmount"`
	Status      string    `json:"pStatus"`
	SubmittedOn time.Time `json:"submittedOn"`
}

func (h *FreelancerHandler) AppliedJobs(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerId")
	if err != nil {
		return err
	}

	var out []appliedJob
	err = h.DB.Raw(`SELECT p.id AS proposal_id, j.id AS job_id, j.title, j.price, p.bid_amount, p.status, p.submitted_on
		FROM proposals p
		JOIN jobs j ON j.id = p.job_id
		WHERE p.freelancer_id = ?
		ORDER BY p.submitted_on DESC`, id).Scan(&out).Error
	if err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

type buyConnectsReq struct {
	FreelancerID string `json:"freelancerID"`
	Quantity     int    `json:"quantity"`
	Amount       int64  `json:"amount"`
}

func (h *FreelancerHandler) BuyConnects(c *fiber.Ctx) error {
	var req buyConnectsReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	id, err := parseUUID("freelancerID", req.FreelancerID)
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}

	out, err := h.Wallet.BuyConnects(c.UserContext(), id, req.Quantity, req.Amount)
	if err != nil {
		return walletFail(c, err)
	}
	return ok(c, "connects purchased", out)
}

type withdrawReq struct {
	FreelancerID string          `json:"freelancerID"`
	Amount       int64           `json:"amount"`
	BankDetails  json.RawMessage `json:"bankDetails"`
}

func (h *FreelancerHandler) Withdraw(c *fiber.Ctx) error {
	var req withdrawReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	id, err := parseUUID("freelancerID", req.FreelancerID)
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}
	if len(req.BankDetails) == 0 || string(req.BankDetails) == "null" {
		return fail(c, fiber.StatusBadRequest, "bankDetails is required")
	}

	out, err := h.Wallet.Withdraw(c.UserContext(), id, req.Amount, datatypes.JSON(req.BankDetails))
	if err != nil {
		return walletFail(c, err)
	}
	return ok(c, "withdrawal requested", out)
}
