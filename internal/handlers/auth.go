package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/utils"
)

type AuthHandler struct {
	DB           *gorm.DB
	JWTSecret    string
	Expires      int
	SecureCookie bool
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country"`
	AccType  string `json:"accType"` // client / freelancer (admin is never self-registered)

	// freelancer profile
	Niche         string  `json:"niche"`
	HourlyRate    float64 `json:"hourlyRate"`
	Qualification string  `json:"qualification"`
	About         string  `json:"about"`

	// client profile
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
}

func (h *AuthHandler) setSession(c *fiber.Ctx, token string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
		MaxAge:   maxAge,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	return h.register(c, "")
}

// RegisterAs serves the role-specific register routes; the path decides the account type.
func (h *AuthHandler) RegisterAs(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error { return h.register(c, role) }
}

func (h *AuthHandler) register(c *fiber.Ctx, forced models.Role) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	role := models.Role(strings.ToLower(strings.TrimSpace(req.AccType)))
	if forced != "" {
		role = forced
	}

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "name is required")
	}
	if email == "" {
		errs.Add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "invalid email format")
	}
	if password == "" {
		errs.Add("password", "password is required")
	} else if len(password) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if role != models.RoleClient && role != models.RoleFreelancer {
		errs.Add("accType", "accType must be client or freelancer")
	}
	if req.HourlyRate < 0 {
		errs.Add("hourlyRate", "hourlyRate cannot be negative")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var existing int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return fail500(c, err)
	}
	if existing > 0 {
		return fail(c, fiber.StatusConflict, "email already registered")
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return fail500(c, err)
	}

	u := models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: pw,
		AccType:  role,
		Country:  strings.TrimSpace(req.Country),
		IsActive: true,
	}

	err = createAccount(h.DB, &u, req)
	if err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "email already registered")
		}
		return fail500(c, err)
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.AccType), h.Expires)
	if err != nil {
		return fail500(c, err)
	}
	h.setSession(c, token, h.Expires*60)

	return created(c, "registered", fiber.Map{
		"userID":  u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"accType": u.AccType,
		"token":   token,
	})
}

// createAccount inserts the user and its role profile in one transaction.
func createAccount(db *gorm.DB, u *models.User, req RegisterReq) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		switch u.AccType {
		case models.RoleFreelancer:
			return tx.Create(&models.Freelancer{
				ID:            u.ID,
				Niche:         strings.TrimSpace(req.Niche),
				HourlyRate:    req.HourlyRate,
				Qualification: strings.TrimSpace(req.Qualification),
				About:         strings.TrimSpace(req.About),
				TotalConnects: models.DefaultConnects,
			}).Error
		case models.RoleClient:
			return tx.Create(&models.Client{
				ID:             u.ID,
				CompanyName:    strings.TrimSpace(req.CompanyName),
				CompanyAddress: strings.TrimSpace(req.CompanyAddress),
				Qualification:  strings.TrimSpace(req.Qualification),
				About:          strings.TrimSpace(req.About),
			}).Error
		}
		return nil
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", "email is required")
	}
	if password == "" {
		errs.Add("password", "password is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		return fail500(c, err)
	}

	if !utils.CheckPassword(u.Password, password) {
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	}
	if !u.IsActive {
		return fail(c, fiber.StatusForbidden, "account is inactive")
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.AccType), h.Expires)
	if err != nil {
		return fail500(c, err)
	}
	h.setSession(c, token, h.Expires*60)

	return ok(c, "login successful", fiber.Map{
		"userID":  u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"accType": u.AccType,
		"token":   token,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.setSession(c, "", -1)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "logged out",
	})
}

// Me returns the caller's account together with its role profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return notFoundOr500(c, err, "user")
	}

	data := fiber.Map{"user": u}
	switch u.AccType {
	case models.RoleClient:
		var p models.Client
		if err := h.DB.First(&p, "id = ?", uid).Error; err == nil {
			data["client"] = p
		}
	case models.RoleFreelancer:
		var p models.Freelancer
		if err := h.DB.First(&p, "id = ?", uid).Error; err == nil {
			data["freelancer"] = p
		}
	}
	return ok(c, "", data)
}
