package echo

import (
	echofw "github.com/labstack/echo/v4"

	"github.com/stanmart1/skylyt-core/internal/application"
	"github.com/stanmart1/skylyt-core/internal/presentation/echo/handlers"
	"github.com/stanmart1/skylyt-core/internal/presentation/echo/middleware"
)

func ConfigureRoutes(e *echofw.Echo, container *application.Container) {
	e.Use(middleware.Recovery)
	e.Use(middleware.TraceID)
	e.Use(middleware.RequestLogger)

	healthHandler := handlers.NewHealthHandler()
	e.GET("/health", healthHandler.Check)

	v1 := e.Group("/v1")

	paymentHandler := handlers.NewPaymentHandler(container.Payments, container.Proofs)
	v1.POST("/payments/initialize", paymentHandler.Initialize)
	v1.GET("/payments/:id", paymentHandler.Get)
	v1.POST("/payments/:id/verify", paymentHandler.Verify)
	v1.POST("/payments/:id/proof", paymentHandler.UploadProof)
	v1.POST("/payments/webhook/:gateway", paymentHandler.Webhook)

	bookingHandler := handlers.NewBookingHandler(container.Bookings, container.Payments)
	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings/:id", bookingHandler.Get)
	v1.GET("/bookings/:id/payments", bookingHandler.ListPayments)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	v1.POST("/bookings/:id/complete", bookingHandler.Complete)
	v1.POST("/bookings/:id/refund", bookingHandler.Refund)

	proofHandler := handlers.NewProofHandler(container.Proofs)
	v1.GET("/proofs/:id", proofHandler.Get)
	v1.POST("/proofs/:id/verify", proofHandler.Verify)
	v1.POST("/proofs/:id/reject", proofHandler.Reject)

	miscHandler := handlers.NewMiscHandler(container.Engine, container.BankAccounts)
	v1.GET("/bank-accounts", miscHandler.BankAccounts)
	v1.GET("/localization/currencies", miscHandler.Currencies)
	v1.GET("/localization/convert/:amount/:from/:to", miscHandler.Convert)
}
