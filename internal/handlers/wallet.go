package handlers

import (
	"strings"

	apperrors "payway/internal/errors"
	"payway/internal/models"
	"payway/internal/services/wallet"
	"payway/internal/utils"
	"payway/internal/utils/pagination"
	"payway/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, ok := utils.GetUserClaims(c)
	if !ok {
		return response.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "wallet retrieved", w)
}

func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	claims, ok := utils.GetUserClaims(c)
	if !ok {
		return response.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	p := pagination.ParseFromRequest(c)
	rows, total, err := h.walletService.ListTransactions(c.UserContext(), w.ID, p.Limit, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, rows))
}

type walletSettingsRequest struct {
	IsUseWalletInPayment *bool `json:"is_use_wallet_in_payment" validate:"required"`
}

func (h *WalletHandler) UpdateSettings(c *fiber.Ctx) error {
	claims, ok := utils.GetUserClaims(c)
	if !ok {
		return response.Unauthorized(c, "invalid claims")
	}

	var input walletSettingsRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	w, err := h.walletService.SetUseWalletInPayment(c.UserContext(), claims.UserID, *input.IsUseWalletInPayment)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "wallet updated", w)
}

// CreateWallet opens the wallet of a user in their country's currency.
func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return response.Error(c, apperrors.ErrUserNotFound)
	}
	w, err := h.walletService.CreateWallet(c.UserContext(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, "wallet created", w)
}

type ledgerEntryRequest struct {
	Amount          string  `json:"amount" validate:"required,money"`
	Currency        string  `json:"currency" validate:"omitempty,iso4217"`
	TransactionType string  `json:"transaction_type" validate:"required"`
	Note            string  `json:"note" validate:"max=500"`
	Attachment      *string `json:"attachment" validate:"omitempty,url"`
}

// CreateTransaction lets an admin post a ledger entry. The Idempotency-Key
// header makes retries safe; without it every call creates an entry.
func (h *WalletHandler) CreateTransaction(c *fiber.Ctx) error {
	claims, ok := utils.GetUserClaims(c)
	if !ok {
		return response.Unauthorized(c, "invalid claims")
	}
	userID, ok := paramID(c, "user_id")
	if !ok {
		return response.Error(c, apperrors.ErrWalletNotFound)
	}

	var input ledgerEntryRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	if key == "" {
		key = uuid.NewString()
	}
	reference := "admin:" + key
	actionBy := claims.UserID

	entry, err := h.walletService.CreateTransactionForUser(c.UserContext(), userID, wallet.TransactionInput{
		Amount:     decimal.RequireFromString(input.Amount),
		Currency:   input.Currency,
		Type:       models.TransactionType(strings.ToUpper(input.TransactionType)),
		Note:       input.Note,
		ActionByID: &actionBy,
		Attachment: input.Attachment,
		Reference:  &reference,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, "transaction created", entry)
}

// Audit compares the stored balance with the sum of the ledger.
func (h *WalletHandler) Audit(c *fiber.Ctx) error {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return response.Error(c, apperrors.ErrWalletNotFound)
	}
	audit, err := h.walletService.AuditWallet(c.UserContext(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "wallet audited", audit)
}

type referralRequest struct {
	ReferrerID uint `json:"referrer_id" validate:"required"`
	RefereeID  uint `json:"referee_id" validate:"required"`
}

func (h *WalletHandler) CreditReferral(c *fiber.Ctx) error {
	var input referralRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	entry, err := h.walletService.CreditReferral(c.UserContext(), input.ReferrerID, input.RefereeID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, "referral credited", entry)
}
