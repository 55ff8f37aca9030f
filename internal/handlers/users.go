package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/utils"
)

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	var users []models.User
	if err := h.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", users)
}

type userMini struct {
	UserID  uuid.UUID   `json:"userID"`
	Name    string      `json:"name"`
	AccType models.Role `json:"accType"`
}

// Search returns up to 10 users whose name contains the query.
func (h *UserHandler) Search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("query"))
	if q == "" {
		return fail(c, fiber.StatusBadRequest, "query is required")
	}

	var out []userMini
	err := h.DB.Model(&models.User{}).
		Select("id AS user_id, name, acc_type").
		Where("name ILIKE ?", "%"+q+"%").
		Order("name").
		Limit(10).
		Scan(&out).Error
	if err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *UserHandler) ByType(c *fiber.Ctx) error {
	role := models.Role(strings.ToLower(c.Params("accType")))
	if !role.Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid accType")
	}

	q := h.DB.Model(&models.User{}).
		Select("id AS user_id, name, acc_type").
		Where("acc_type = ?", role)
	if ex := c.Query("excludeUserId"); ex != "" {
		id, err := parseUUID("excludeUserId", ex)
		if err != nil {
			return err
		}
		q = q.Where("id <> ?", id)
	}

	var out []userMini
	if err := q.Order("name").Scan(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	var u models.User
	if err := h.DB.First(&u, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "user")
	}
	return ok(c, "", u)
}

// Create is the admin path; unlike self-registration it may create admins.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := models.Role(strings.ToLower(strings.TrimSpace(req.AccType)))

	errs := FieldErrors{}
	if strings.TrimSpace(req.Name) == "" {
		errs.Add("name", "name is required")
	}
	if !strings.Contains(email, "@") {
		errs.Add("email", "invalid email format")
	}
	if len(req.Password) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if !role.Valid() {
		errs.Add("accType", "invalid accType")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		return fail500(c, err)
	}
	u := models.User{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: pw,
		AccType:  role,
		Country:  strings.TrimSpace(req.Country),
		IsActive: true,
	}
	if err := createAccount(h.DB, &u, req); err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "email already registered")
		}
		return fail500(c, err)
	}
	return created(c, "user created", u)
}

type updateUserReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Country  *string `json:"country"`
	IsActive *bool   `json:"isActive"`
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}

	var req updateUserReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Country != nil {
		updates["country"] = strings.TrimSpace(*req.Country)
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return fail(c, fiber.StatusBadRequest, "password must be at least 6 characters")
		}
		pw, err := utils.HashPassword(*req.Password)
		if err != nil {
			return fail500(c, err)
		}
		updates["password"] = pw
	}
	if req.IsActive != nil {
		if authRole(c) != models.RoleAdmin {
			return fail(c, fiber.StatusForbidden, "only admins can change isActive")
		}
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return fail(c, fiber.StatusBadRequest, "nothing to update")
	}

	res := h.DB.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fail(c, fiber.StatusConflict, "email already registered")
		}
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	return ok(c, "user updated", nil)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}

	var affected int64
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&models.Client{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.Freelancer{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fail500(c, err)
	}
	if affected == 0 {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	return ok(c, "user deleted", nil)
}
