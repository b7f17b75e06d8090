package xendit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"justEatMore/domain"
)

type XenditConfig struct {
	XenditApi          string
	XenditUrl          string
	SuccessRedirectUrl string
	FailureRedirectUrl string
}

type XenditRepository struct {
	xenditConfig XenditConfig
	client       *http.Client
	now          func() time.Time
}

func NewXenditRepository(cfg XenditConfig) *XenditRepository {
	return &XenditRepository{
		xenditConfig: cfg,
		client:       &http.Client{Timeout: 15 * time.Second},
		now:          time.Now,
	}
}

type invoiceRequest struct {
	ExternalID         string              `json:"external_id"`
	Amount             int64               `json:"amount"`
	Description        string              `json:"description"`
	InvoiceDuration    int64               `json:"invoice_duration,omitempty"`
	Customer           domain.XenditPayer  `json:"customer"`
	SuccessRedirectURL string              `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string              `json:"failure_redirect_url,omitempty"`
	Currency           string              `json:"currency"`
	Items              []domain.XenditItem `json:"items"`
	Metadata           domain.XenditPickup `json:"metadata"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// CreateInvoice posts a hosted invoice. The invoice lives until the order's
// payment deadline when one is set.
func (r *XenditRepository) CreateInvoice(ctx context.Context, invoice domain.XenditInvoice) (domain.XenditInvoice, error) {
	payload := invoiceRequest{
		ExternalID:         invoice.ExternalID,
		Amount:             invoice.Amount,
		Description:        invoice.Description,
		Customer:           invoice.Customer,
		SuccessRedirectURL: r.xenditConfig.SuccessRedirectUrl,
		FailureRedirectURL: r.xenditConfig.FailureRedirectUrl,
		Currency:           invoice.Currency,
		Items:              invoice.Items,
		Metadata:           invoice.Metadata,
	}
	if !invoice.ExpiryDate.IsZero() {
		if secs := int64(invoice.ExpiryDate.Sub(r.now()).Seconds()); secs > 0 {
			payload.InvoiceDuration = secs
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.XenditInvoice{}, fmt.Errorf("failed to marshal invoice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.xenditConfig.XenditUrl, bytes.NewReader(body))
	if err != nil {
		return domain.XenditInvoice{}, err
	}
	req.Header.Add("Content-Type", "application/json")
	req.SetBasicAuth(r.xenditConfig.XenditApi, "")

	res, err := r.client.Do(req)
	if err != nil {
		return domain.XenditInvoice{}, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return domain.XenditInvoice{}, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(resBody, &e)
		return domain.XenditInvoice{}, fmt.Errorf("xendit returned %d: %s %s", res.StatusCode, e.ErrorCode, e.Message)
	}

	var created domain.XenditInvoice
	if err := json.Unmarshal(resBody, &created); err != nil {
		return domain.XenditInvoice{}, fmt.Errorf("failed to decode invoice: %w", err)
	}
	if created.InvoiceURL == "" {
		return domain.XenditInvoice{}, fmt.Errorf("xendit response has no invoice url")
	}

	return created, nil
}
