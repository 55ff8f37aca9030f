package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/services/wallet"
)

// a job stops being open once any proposal is accepted
const openJobFilter = "NOT EXISTS (SELECT 1 FROM proposals p WHERE p.job_id = jobs.id AND p.status IN ('Accepted', 'Completed'))"

type JobHandler struct {
	DB     *gorm.DB
	Wallet *wallet.WalletService
	Notify realtime.Emitter
}

func NewJobHandler(db *gorm.DB, w *wallet.WalletService, notify realtime.Emitter) *JobHandler {
	return &JobHandler{DB: db, Wallet: w, Notify: notify}
}

type jobReq struct {
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	TargetSkills     *[]string `json:"targetSkills"`
	ConnectsRequired *int      `json:"connectsRequired"`
	EstTime          *string   `json:"estTime"`
	JobLevel         *string   `json:"jobLevel"`
	Price            *int64    `json:"price"`
}

func (r jobReq) validate(creating bool) FieldErrors {
	errs := FieldErrors{}
	if creating && (r.Title == nil || strings.TrimSpace(*r.Title) == "") {
		errs.Add("title", "title is required")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		errs.Add("title", "title cannot be empty")
	}
	if creating && r.Price == nil {
		errs.Add("price", "price is required")
	}
	if r.Price != nil && *r.Price <= 0 {
		errs.Add("price", "price must be greater than zero")
	}
	if r.ConnectsRequired != nil && *r.ConnectsRequired < 0 {
		errs.Add("connectsRequired", "connectsRequired cannot be negative")
	}
	if r.JobLevel != nil {
		switch models.JobLevel(*r.JobLevel) {
		case models.JobLevelEntry, models.JobLevelIntermediate, models.JobLevelExpert:
		default:
			errs.Add("jobLevel", "jobLevel must be Entry, Intermediate or Expert")
		}
	}
	return errs
}

func skillsJSON(skills []string) datatypes.JSON {
	clean := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	b, _ := json.Marshal(clean)
	return datatypes.JSON(b)
}

func (h *JobHandler) ListOpen(c *fiber.Ctx) error {
	var jobs []models.Job
	if err := h.DB.Where(openJobFilter).Order("posted_on DESC").Find(&jobs).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", jobs)
}

func (h *JobHandler) ListActive(c *fiber.Ctx) error {
	var jobs []models.Job
	if err := h.DB.Table("active_jobs").Order("posted_on DESC").Find(&jobs).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", jobs)
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	var req jobReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.validate(true); len(errs) > 0 {
		return validationFail(c, errs)
	}

	job := models.Job{
		ID:           uuid.New(),
		ClientID:     uid,
		Title:        strings.TrimSpace(*req.Title),
		Price:        *req.Price,
		TargetSkills: skillsJSON(nil),
		JobLevel:     models.JobLevelEntry,
	}
	if req.Description != nil {
		job.Description = strings.TrimSpace(*req.Description)
	}
	if req.TargetSkills != nil {
		job.TargetSkills = skillsJSON(*req.TargetSkills)
	}
	if req.ConnectsRequired != nil {
		job.ConnectsRequired = *req.ConnectsRequired
	}
	if req.EstTime != nil {
		job.EstTime = strings.TrimSpace(*req.EstTime)
	}
	if req.JobLevel != nil {
		job.JobLevel = models.JobLevel(*req.JobLevel)
	}

	if err := h.DB.Create(&job).Error; err != nil {
		return fail500(c, err)
	}
	return created(c, "job posted", job)
}

func (h *JobHandler) ByClient(c *fiber.Ctx) error {
	id, err := paramUUID(c, "clientId")
	if err != nil {
		return err
	}
	var jobs []models.Job
	if err := h.DB.Where("client_id = ?", id).Where(openJobFilter).Order("posted_on DESC").Find(&jobs).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", jobs)
}

type ongoingJob struct {
	JobID        uuid.UUID `json:"jobID"`
	ClientID     uuid.UUID `json:"cID"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	EstTime      string    `json:"estTime"`
	Price        int64     `json:"price"`
	ProposalID   uuid.UUID `json:"proposalID"`
	FreelancerID uuid.UUID `json:"freelancerID"`
	BidAmount    int64     `json:"bidAmount"`
	Status       string    `json:"pStatus"`
	SubmittedOn  time.Time `json:"submittedOn"`
}

const ongoingSelect = `SELECT j.id AS job_id, j.client_id, j.title, j.description, j.est_time, j.price,
	p.id AS proposal_id, p.freelancer_id, p.bid_amount, p.status, p.submitted_on
	FROM jobs j
	JOIN proposals p ON p.job_id = j.id
	WHERE p.status = 'Accepted' AND `

func (h *JobHandler) ongoing(c *fiber.Ctx, column string) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	var out []ongoingJob
	if err := h.DB.Raw(ongoingSelect+column+" = ? ORDER BY p.submitted_on DESC", id).Scan(&out).Error; err != nil {
		return fail500(c, err)
	}
	if len(out) == 0 {
		return fail(c, fiber.StatusNotFound, "no ongoing jobs found")
	}
	return ok(c, "", out)
}

// OngoingForClient lists the client's jobs that are in progress.
func (h *JobHandler) OngoingForClient(c *fiber.Ctx) error {
	return h.ongoing(c, "j.client_id")
}

func (h *JobHandler) OngoingForFreelancer(c *fiber.Ctx) error {
	return h.ongoing(c, "p.freelancer_id")
}

func (h *JobHandler) Complete(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	jobID, err := paramUUID(c, "jobID")
	if err != nil {
		return err
	}

	out, err := h.Wallet.CompleteJob(c.UserContext(), jobID, uid)
	if err != nil {
		return walletFail(c, err)
	}

	if h.Notify != nil {
		if err := h.Notify.Emit(c.UserContext(), out.FreelancerID, "job_completed", out); err != nil {
			log := logger.WithComponent("jobs")
			log.Warn().Err(err).Msg("job_completed notification failed")
		}
	}
	return ok(c, "job completed, payment transferred", out)
}

type jobDetail struct {
	models.Job
	CompanyName   string  `json:"companyName"`
	Qualification string  `json:"qualification"`
	Rating        float64 `json:"rating"`
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "jobID")
	if err != nil {
		return err
	}

	var out jobDetail
	res := h.DB.Table("jobs AS j").
		Select("j.*, c.company_name, c.qualification, c.rating").
		Joins("JOIN clients c ON c.id = j.client_id").
		Where("j.id = ?", id).
		Limit(1).
		Scan(&out)
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "job not found")
	}
	return ok(c, "", out)
}

// lockOwnedOpenJob locks the job row and checks the caller owns it and nobody has been hired yet.
// The lock is the one Accept takes, so an edit and an accept on the same job serialize.
func lockOwnedOpenJob(c *fiber.Ctx, tx *gorm.DB, id uuid.UUID) (*models.Job, error) {
	uid, err := getAuth(c)
	if err != nil {
		return nil, err
	}

	var job models.Job
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "job not found")
		}
		return nil, err
	}
	if job.ClientID != uid && authRole(c) != models.RoleAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "forbidden: not your job")
	}

	var hired int64
	if err := tx.Model(&models.Proposal{}).
		Where("job_id = ? AND status IN ?", id, []models.ProposalStatus{models.ProposalAccepted, models.ProposalCompleted}).
		Count(&hired).Error; err != nil {
		return nil, err
	}
	if hired > 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "job already has an accepted proposal")
	}
	return &job, nil
}

func (h *JobHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "jobID")
	if err != nil {
		return err
	}
	var req jobReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.validate(false); len(errs) > 0 {
		return validationFail(c, errs)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.TargetSkills != nil {
		updates["target_skills"] = skillsJSON(*req.TargetSkills)
	}
	if req.ConnectsRequired != nil {
		updates["connects_required"] = *req.ConnectsRequired
	}
	if req.EstTime != nil {
		updates["est_time"] = strings.TrimSpace(*req.EstTime)
	}
	if req.JobLevel != nil {
		updates["job_level"] = *req.JobLevel
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if len(updates) == 0 {
		return fail(c, fiber.StatusBadRequest, "nothing to update")
	}

	var job *models.Job
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if job, err = lockOwnedOpenJob(c, tx, id); err != nil {
			return err
		}
		return tx.Model(job).Updates(updates).Error
	})
	if err != nil {
		return walletFail(c, err)
	}
	return ok(c, "job updated", job)
}

func (h *JobHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "jobID")
	if err != nil {
		return err
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		job, err := lockOwnedOpenJob(c, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}
		return tx.Delete(job).Error
	})
	if err != nil {
		return walletFail(c, err)
	}
	return ok(c, "job deleted", nil)
}
