package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
)

// TransactionHandler exposes the job transaction records. Rows here never move balances;
// money only moves through the wallet workflows.
type TransactionHandler struct {
	DB *gorm.DB
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{DB: db}
}

type transactionReq struct {
	JobID  string                   `json:"jID"`
	Amount *int64                   `json:"amount"`
	Status models.TransactionStatus `json:"tStatus"`
}

type transactionView struct {
	TransactionID uuid.UUID `json:"transactionID"`
	JobID         uuid.UUID `json:"jID"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"tStatus"`
	TransactionOn time.Time `json:"transactionOn"`
	JobTitle      string    `json:"title"`
	ClientID      uuid.UUID `json:"cID"`
	ClientName    string    `json:"clientName"`
}

func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req transactionReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	jobID, err := parseUUID("jID", req.JobID)
	if err != nil {
		return err
	}
	if req.Amount == nil || *req.Amount <= 0 {
		return fail(c, fiber.StatusBadRequest, "amount must be greater than zero")
	}
	if req.Status == "" {
		req.Status = models.TransactionPending
	}
	if !req.Status.Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid tStatus")
	}

	var job models.Job
	if err := h.DB.Select("id", "client_id").First(&job, "id = ?", jobID).Error; err != nil {
		return notFoundOr500(c, err, "job")
	}
	if err := requireSelf(c, job.ClientID); err != nil {
		return err
	}

	t := models.Transaction{ID: uuid.New(), JobID: jobID, Amount: *req.Amount, Status: req.Status}
	if err := h.DB.Create(&t).Error; err != nil {
		return fail500(c, err)
	}
	return created(c, "transaction created", t)
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	var out []models.Transaction
	if err := h.DB.Order("transaction_on DESC").Find(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

// History reads the transactions_history view.
func (h *TransactionHandler) History(c *fiber.Ctx) error {
	var out []transactionView
	err := h.DB.Raw(`SELECT id AS transaction_id, job_id, amount, status, transaction_on, job_title, client_id, client_name
		FROM transactions_history
		ORDER BY transaction_on DESC`).Scan(&out).Error
	if err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *TransactionHandler) ByJob(c *fiber.Ctx) error {
	jobID, err := paramUUID(c, "jID")
	if err != nil {
		return err
	}
	var out []models.Transaction
	if err := h.DB.Where("job_id = ?", jobID).Order("transaction_on DESC").Find(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

const transactionViewSelect = `SELECT t.id AS transaction_id, t.job_id, t.amount, t.status, t.transaction_on,
	j.title AS job_title, j.client_id, u.name AS client_name
	FROM transactions t
	JOIN jobs j ON j.id = t.job_id
	JOIN users u ON u.id = j.client_id
	WHERE `

// hiredJobs matches the jobs a freelancer was hired for, whether or not the work is finished.
const hiredJobs = `j.id IN (SELECT job_id FROM proposals WHERE freelancer_id = ? AND status IN ('Accepted', 'Completed'))`

func (h *TransactionHandler) scanView(c *fiber.Ctx, where string, args ...interface{}) error {
	var out []transactionView
	if err := h.DB.Raw(transactionViewSelect+where+" ORDER BY t.transaction_on DESC", args...).Scan(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

// ByUser covers both sides: jobs the user posted and jobs the user was hired for.
func (h *TransactionHandler) ByUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}
	return h.scanView(c, "j.client_id = ? OR "+hiredJobs, id, id)
}

func (h *TransactionHandler) ByClient(c *fiber.Ctx) error {
	id, err := paramUUID(c, "clientId")
	if err != nil {
		return err
	}
	return h.scanView(c, "j.client_id = ?", id)
}

func (h *TransactionHandler) ByFreelancer(c *fiber.Ctx) error {
	id, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	return h.scanView(c, hiredJobs, id)
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "transactionID")
	if err != nil {
		return err
	}
	var t models.Transaction
	if err := h.DB.First(&t, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "transaction")
	}
	return ok(c, "", t)
}

// Update only changes the recorded status; amounts are immutable once written.
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	if authRole(c) != models.RoleAdmin {
		return fail(c, fiber.StatusForbidden, "forbidden: admin only")
	}
	id, err := paramUUID(c, "transactionID")
	if err != nil {
		return err
	}
	var req transactionReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if !req.Status.Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid tStatus")
	}

	res := h.DB.Model(&models.Transaction{}).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "transaction not found")
	}
	return ok(c, "transaction updated", nil)
}

func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	if authRole(c) != models.RoleAdmin {
		return fail(c, fiber.StatusForbidden, "forbidden: admin only")
	}
	id, err := paramUUID(c, "transactionID")
	if err != nil {
		return err
	}
	res := h.DB.Delete(&models.Transaction{}, "id = ?", id)
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "transaction not found")
	}
	return ok(c, "transaction deleted", nil)
}
