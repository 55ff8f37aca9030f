package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/services/wallet"
)

type ClientHandler struct {
	DB     *gorm.DB
	Wallet *wallet.WalletService
}

func NewClientHandler(db *gorm.DB, w *wallet.WalletService) *ClientHandler {
	return &ClientHandler{DB: db, Wallet: w}
}

type clientProfileReq struct {
	CompanyName    *string `json:"companyName"`
	CompanyAddress *string `json:"companyAddress"`
	Qualification  *string `json:"qualification"`
	About          *string `json:"about"`
}

func (r clientProfileReq) updates() map[string]interface{} {
	m := map[string]interface{}{}
	if r.CompanyName != nil {
		m["company_name"] = strings.TrimSpace(*r.CompanyName)
	}
	if r.CompanyAddress != nil {
		m["company_address"] = strings.TrimSpace(*r.CompanyAddress)
	}
	if r.Qualification != nil {
		m["qualification"] = strings.TrimSpace(*r.Qualification)
	}
	if r.About != nil {
		m["about"] = strings.TrimSpace(*r.About)
	}
	return m
}

// Create adds the client profile for the caller's existing account.
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	var req clientProfileReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	p := models.Client{ID: uid}
	if req.CompanyName != nil {
		p.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.CompanyAddress != nil {
		p.CompanyAddress = strings.TrimSpace(*req.CompanyAddress)
	}
	if req.Qualification != nil {
		p.Qualification = strings.TrimSpace(*req.Qualification)
	}
	if req.About != nil {
		p.About = strings.TrimSpace(*req.About)
	}

	if err := h.DB.Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "client profile already exists")
		}
		return fail500(c, err)
	}
	return created(c, "client profile created", p)
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	var out []models.Client
	if err := h.DB.Order("created_at DESC").Find(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

func (h *ClientHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "cID")
	if err != nil {
		return err
	}
	var p models.Client
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "client")
	}
	return ok(c, "", p)
}

func (h *ClientHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "cID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}
	var req clientProfileReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	updates := req.updates()
	if len(updates) == 0 {
		return fail(c, fiber.StatusBadRequest, "nothing to update")
	}

	res := h.DB.Model(&models.Client{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "client not found")
	}
	return ok(c, "client updated", nil)
}

func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "cID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}
	res := h.DB.Where("id = ?", id).Delete(&models.Client{})
	if res.Error != nil {
		return fail500(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "client not found")
	}
	return ok(c, "client deleted", nil)
}

func (h *ClientHandler) Spent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	var p models.Client
	if err := h.DB.Select("id", "spent").First(&p, "id = ?", id).Error; err != nil {
		return notFoundOr500(c, err, "client")
	}
	return ok(c, "", fiber.Map{"spent": p.Spent})
}

type addFundsReq struct {
	ClientID string `json:"clientID"`
	Amount   int64  `json:"amount"`
}

func (h *ClientHandler) AddFunds(c *fiber.Ctx) error {
	var req addFundsReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	id, err := parseUUID("clientID", req.ClientID)
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}

	bal, err := h.Wallet.AddFunds(c.UserContext(), id, req.Amount)
	if err != nil {
		return walletFail(c, err)
	}
	return ok(c, "funds added", fiber.Map{"newBalance": bal})
}
