package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/application/currency"
	"github.com/stanmart1/skylyt-core/internal/domain"
)

type MiscHandler struct {
	engine   *currency.Engine
	accounts domain.BankAccountRepository
}

func NewMiscHandler(engine *currency.Engine, accounts domain.BankAccountRepository) *MiscHandler {
	return &MiscHandler{engine: engine, accounts: accounts}
}

func (h *MiscHandler) BankAccounts(c echo.Context) error {
	accounts, err := h.accounts.FindAll(c.Request().Context())
	if err != nil {
		return domain.ErrInternal("failed to list bank accounts")
	}
	return c.JSON(http.StatusOK, accounts)
}

func (h *MiscHandler) Currencies(c echo.Context) error {
	currencies, err := h.engine.Active(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, currencies)
}

func (h *MiscHandler) Convert(c echo.Context) error {
	amount, err := decimal.NewFromString(c.Param("amount"))
	if err != nil || !amount.IsPositive() {
		return domain.ErrValidation("amount must be a positive number")
	}

	from, to := c.Param("from"), c.Param("to")
	converted, err := h.engine.Convert(c.Request().Context(), amount, from, to)
	if err != nil {
		return err
	}
	rate, err := h.engine.Rate(c.Request().Context(), from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"amount":           amount,
		"from":             from,
		"to":               to,
		"rate":             rate,
		"converted_amount": converted,
	})
}
