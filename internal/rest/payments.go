package rest

import (
	"context"
	"net/http"
	"time"

	"justEatMore/business/payments"
	"justEatMore/domain"
	"justEatMore/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CallbackTokenHeader carries the gateway's shared webhook secret.
const CallbackTokenHeader = "X-CALLBACK-TOKEN"

type (
	WebhookController struct {
		paymentsService PaymentsService
		validate        *validator.Validate
		timeout         time.Duration
	}

	PaymentsService interface {
		HandleWebhook(ctx context.Context, token string, event payments.WebhookEvent) (domain.Payment, error)
	}

	WebhookRequest struct {
		ID            string     `json:"id"`
		ExternalID    string     `json:"external_id" validate:"required"`
		Status        string     `json:"status" validate:"required"`
		Amount        int64      `json:"amount"`
		PaidAmount    int64      `json:"paid_amount"`
		PaidAt        *time.Time `json:"paid_at"`
		PayerEmail    string     `json:"payer_email"`
		PaymentMethod string     `json:"payment_method"`
		Currency      string     `json:"currency"`
	}
)

func NewWebhookController(paymentsService PaymentsService) *WebhookController {
	return &WebhookController{
		paymentsService: paymentsService,
		validate:        validator.New(),
		timeout:         10 * time.Second,
	}
}

func (ctrl *WebhookController) HandleWebhook(c echo.Context) error {
	var request WebhookRequest

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Failed to bind webhook request", err)
	}

	if err := ctrl.validate.Struct(&request); err != nil {
		return badRequest(c, "Invalid webhook payload", err)
	}

	logger.Info("received payment webhook", "external_id", request.ExternalID, "status", request.Status)

	ctx, cancel := context.WithTimeout(c.Request().Context(), ctrl.timeout)
	defer cancel()

	payment, err := ctrl.paymentsService.HandleWebhook(ctx, c.Request().Header.Get(CallbackTokenHeader), payments.WebhookEvent{
		ExternalID: request.ExternalID,
		Status:     request.Status,
		PaidAt:     request.PaidAt,
	})
	if err != nil {
		return writeError(c, "Failed to handle payment webhook", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(payment))
}
