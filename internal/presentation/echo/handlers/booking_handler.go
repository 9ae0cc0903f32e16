package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/application/booking"
	"github.com/stanmart1/skylyt-core/internal/application/payment"
	"github.com/stanmart1/skylyt-core/internal/domain"
)

type BookingHandler struct {
	bookings *booking.Service
	payments *payment.Service
}

func NewBookingHandler(bookings *booking.Service, payments *payment.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments}
}

func (h *BookingHandler) Create(c echo.Context) error {
	var req booking.CreateRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	b, err := h.bookings.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Cancel(c echo.Context) error {
	b, err := h.bookings.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Complete(c echo.Context) error {
	b, err := h.bookings.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

func (h *BookingHandler) Refund(c echo.Context) error {
	var req refundRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	p, err := h.payments.RefundBooking(c.Request().Context(), c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *BookingHandler) ListPayments(c echo.Context) error {
	payments, err := h.payments.ListByBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}
