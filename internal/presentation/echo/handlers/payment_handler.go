package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stanmart1/skylyt-core/internal/application/payment"
	"github.com/stanmart1/skylyt-core/internal/application/proof"
	"github.com/stanmart1/skylyt-core/internal/domain"
)

type PaymentHandler struct {
	payments *payment.Service
	proofs   *proof.Service
}

func NewPaymentHandler(payments *payment.Service, proofs *proof.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments, proofs: proofs}
}

func (h *PaymentHandler) Initialize(c echo.Context) error {
	idempotencyKey := c.Request().Header.Get("X-Idempotency-Key")

	var req payment.InitializeRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}

	result, err := h.payments.Initialize(c.Request().Context(), idempotencyKey, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandler) Get(c echo.Context) error {
	p, err := h.payments.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Verify(c echo.Context) error {
	p, err := h.payments.Verify(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Webhook applies a gateway delivery. Duplicates are acknowledged with
// 200 so gateways stop retrying.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return domain.ErrValidation("unreadable webhook body")
	}

	outcome, err := h.payments.HandleWebhook(c.Request().Context(), c.Param("gateway"), c.Request().Header, body)
	if err != nil {
		return err
	}
	if outcome.Duplicate {
		return c.JSON(http.StatusOK, map[string]string{"status": "already_processed"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "processed"})
}

// UploadProof accepts a proof-of-payment file for a bank transfer.
func (h *PaymentHandler) UploadProof(c echo.Context) error {
	p, err := h.payments.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.ErrProofRejected("file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return domain.ErrProofRejected("file could not be read")
	}
	defer file.Close()

	result, err := h.proofs.Upload(c.Request().Context(), proof.UploadRequest{
		TransferReference: p.TransferReference,
		Filename:          fileHeader.Filename,
		MimeType:          fileHeader.Header.Get("Content-Type"),
		Size:              fileHeader.Size,
		File:              file,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}
