package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
)

type SkillHandler struct {
	DB *gorm.DB
}

func NewSkillHandler(db *gorm.DB) *SkillHandler {
	return &SkillHandler{DB: db}
}

type skillReq struct {
	SkillName string `json:"skillName"`
}

func skillID(c *fiber.Ctx) (uint, error) {
	n, err := strconv.ParseUint(c.Params("skillID"), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid skillID")
	}
	return uint(n), nil
}

func (h *SkillHandler) Create(c *fiber.Ctx) error {
	var req skillReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	name := strings.TrimSpace(req.SkillName)
	if name == "" {
		return fail(c, fiber.StatusBadRequest, "skillName is required")
	}

	s := models.Skill{SkillName: name}
	if err := h.DB.Create(&s).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "skill already exists")
		}
		return fail500(c, err)
	}
	return created(c, "skill added", fiber.Map{"skillID": s.ID})
}

func (h *SkillHandler) List(c *fiber.Ctx) error {
	var out []models.Skill
	if err := h.DB.Order("skill_name").Find(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *SkillHandler) Get(c *fiber.Ctx) error {
	id, err := skillID(c)
	if err != nil {
		return err
	}
	var s models.Skill
	if err := h.DB.First(&s, id).Error; err != nil {
		return notFoundOr500(c, err, "skill")
	}
	return ok(c, "", s)
}

func (h *SkillHandler) Update(c *fiber.Ctx) error {
	id, err := skillID(c)
	if err != nil {
		return err
	}
	var req skillReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	name := strings.TrimSpace(req.SkillName)
	if name == "" {
		return fail(c, fiber.StatusBadRequest, "skillName is required")
	}

	res := h.DB.Model(&models.Skill{}).Where("id = ?", id).Update("skill_name", name)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fail(c, fiber.StatusConflict, "skill already exists")
		}
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "skill not found")
	}
	return ok(c, "skill updated", nil)
}

func (h *SkillHandler) Delete(c *fiber.Ctx) error {
	id, err := skillID(c)
	if err != nil {
		return err
	}
	res := h.DB.Delete(&models.Skill{}, id)
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "skill not found")
	}
	return ok(c, "skill deleted", nil)
}

type freelancerSkillReq struct {
	FreelancerID string `json:"freelancerID"`
	SkillName    string `json:"skillName"`
}

// AddToFreelancer is idempotent: adding a skill twice leaves one row.
func (h *SkillHandler) AddToFreelancer(c *fiber.Ctx) error {
	var req freelancerSkillReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	fid, err := parseUUID("freelancerID", req.FreelancerID)
	if err != nil {
		return err
	}
	if err := requireSelf(c, fid); err != nil {
		return err
	}
	name := strings.TrimSpace(req.SkillName)
	if name == "" {
		return fail(c, fiber.StatusBadRequest, "skillName is required")
	}

	fs := models.FreelancerSkill{FreelancerID: fid, SkillName: name}
	if err := h.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&fs).Error; err != nil {
		return fail500(c, err)
	}
	return created(c, "skill added to freelancer", fiber.Map{"freelancerID": fid, "skillName": name})
}

func (h *SkillHandler) ListForFreelancer(c *fiber.Ctx) error {
	fid, err := paramUUID(c, "freelancerID")
	if err != nil {
		return err
	}
	var names []string
	if err := h.DB.Model(&models.FreelancerSkill{}).
		Where("freelancer_id = ?", fid).
		Order("skill_name").
		Pluck("skill_name", &names).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", names)
}

func (h *SkillHandler) RemoveFromFreelancer(c *fiber.Ctx) error {
	var req freelancerSkillReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	fid, err := parseUUID("freelancerID", req.FreelancerID)
	if err != nil {
		return err
	}
	if err := requireSelf(c, fid); err != nil {
		return err
	}

	res := h.DB.Where("freelancer_id = ? AND skill_name = ?", fid, strings.TrimSpace(req.SkillName)).
		Delete(&models.FreelancerSkill{})
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	return ok(c, "skill removed", fiber.Map{"removed": res.RowsAffected})
}
