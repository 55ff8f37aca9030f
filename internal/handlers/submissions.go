package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
)

type SubmissionHandler struct {
	DB *gorm.DB
}

func NewSubmissionHandler(db *gorm.DB) *SubmissionHandler {
	return &SubmissionHandler{DB: db}
}

type submissionReq struct {
	ProposalID     string `json:"proposalID"`
	SubmissionText string `json:"submissionText"`
}

func (h *SubmissionHandler) ByJob(c *fiber.Ctx) error {
	jobID, err := paramUUID(c, "jobID")
	if err != nil {
		return err
	}
	var out []models.Submission
	err = h.DB.Joins("JOIN proposals p ON p.id = submissions.proposal_id").
		Where("p.job_id = ?", jobID).
		Order("submissions.submission_date DESC").
		Find(&out).Error
	if err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

// Create delivers work against an accepted proposal owned by the caller.
func (h *SubmissionHandler) Create(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	var req submissionReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	pid, err := parseUUID("proposalID", req.ProposalID)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(req.SubmissionText)
	if text == "" {
		return fail(c, fiber.StatusBadRequest, "submissionText is required")
	}

	var p models.Proposal
	if err := h.DB.First(&p, "id = ?", pid).Error; err != nil {
		return notFoundOr500(c, err, "proposal")
	}
	if p.FreelancerID != uid {
		return fail(c, fiber.StatusForbidden, "forbidden: not your proposal")
	}
	if p.Status != models.ProposalAccepted {
		return fail(c, fiber.StatusConflict, "proposal is not in progress")
	}

	s := models.Submission{ID: uuid.New(), ProposalID: pid, SubmissionText: text}
	if err := h.DB.Create(&s).Error; err != nil {
		return fail500(c, err)
	}
	return created(c, "submission created", s)
}

func (h *SubmissionHandler) List(c *fiber.Ctx) error {
	var out []models.Submission
	if err := h.DB.Order("submission_date DESC").Find(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *SubmissionHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var s models.Submission
	if err := h.DB.First(&s, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "submission")
	}
	return ok(c, "", s)
}

// owned resolves the submission and checks the caller wrote it.
func (h *SubmissionHandler) owned(c *fiber.Ctx) (*models.Submission, error) {
	uid, err := getAuth(c)
	if err != nil {
		return nil, err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}

	var s models.Submission
	if err := h.DB.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "submission not found")
		}
		return nil, err
	}
	var owner int64
	if err := h.DB.Model(&models.Proposal{}).Where("id = ? AND freelancer_id = ?", s.ProposalID, uid).Count(&owner).Error; err != nil {
		return nil, err
	}
	if owner == 0 && authRole(c) != models.RoleAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "forbidden: not your submission")
	}
	return &s, nil
}

func (h *SubmissionHandler) Update(c *fiber.Ctx) error {
	s, err := h.owned(c)
	if err != nil {
		return err
	}
	var req submissionReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	text := strings.TrimSpace(req.SubmissionText)
	if text == "" {
		return fail(c, fiber.StatusBadRequest, "submissionText is required")
	}
	if err := h.DB.Model(s).Update("submission_text", text).Error; err != nil {
		return fail500(c, err)
	}
	s.SubmissionText = text
	return ok(c, "submission updated", s)
}

func (h *SubmissionHandler) Delete(c *fiber.Ctx) error {
	s, err := h.owned(c)
	if err != nil {
		return err
	}
	if err := h.DB.Delete(s).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "submission deleted", nil)
}
