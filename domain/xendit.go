package domain

import "time"

type XenditInvoice struct {
	ID          string       `json:"id"`
	ExternalID  string       `json:"external_id"`
	Status      string       `json:"status"`
	Amount      int64        `json:"amount"`
	Description string       `json:"description"`
	ExpiryDate  time.Time    `json:"expiry_date"`
	InvoiceURL  string       `json:"invoice_url"`
	Currency    string       `json:"currency"`
	Items       []XenditItem `json:"items"`
	Customer    XenditPayer  `json:"customer"`
	Metadata    XenditPickup `json:"metadata"`
}

type XenditItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
}

type XenditPayer struct {
	GivenNames   string `json:"given_names,omitempty"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

type XenditPickup struct {
	PickupSpot string `json:"pickup_spot"`
}
