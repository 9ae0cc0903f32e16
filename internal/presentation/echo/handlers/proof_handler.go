package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stanmart1/skylyt-core/internal/application/proof"
	"github.com/stanmart1/skylyt-core/internal/domain"
)

type ProofHandler struct {
	proofs *proof.Service
}

func NewProofHandler(proofs *proof.Service) *ProofHandler {
	return &ProofHandler{proofs: proofs}
}

type reviewRequest struct {
	AdminID string `json:"admin_id"`
	Notes   string `json:"notes,omitempty"`
}

func (h *ProofHandler) Get(c echo.Context) error {
	p, err := h.proofs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProofHandler) Verify(c echo.Context) error {
	return h.review(c, h.proofs.Verify)
}

func (h *ProofHandler) Reject(c echo.Context) error {
	return h.review(c, h.proofs.Reject)
}

type reviewFn func(ctx context.Context, proofID, adminID, notes string) (*domain.PaymentProof, error)

func (h *ProofHandler) review(c echo.Context, fn reviewFn) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrValidation("invalid request body")
	}
	if req.AdminID == "" {
		return domain.ErrValidation("admin_id is required")
	}

	p, err := fn(c.Request().Context(), c.Param("id"), req.AdminID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
