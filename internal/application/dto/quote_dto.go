package dto

import "encoding/json"

// CreateQuoteRequest body para POST /api/quotes. Mismas reglas de coacción
// numérica y normalización de impuestos que las facturas.
type CreateQuoteRequest struct {
	ClientID        string               `json:"client_id"`
	Number          string               `json:"number,omitempty"`
	Date            string               `json:"date"`
	ValidUntil      string               `json:"valid_until,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Items           []InvoiceItemRequest `json:"items"`
	AdditionalTaxes json.RawMessage      `json:"additional_taxes,omitempty"`
}

// UpdateQuoteRequest body para PUT /api/quotes/:id.
type UpdateQuoteRequest struct {
	ClientID        string               `json:"client_id,omitempty"`
	Date            string               `json:"date,omitempty"`
	ValidUntil      string               `json:"valid_until,omitempty"`
	Status          string               `json:"status,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Items           []InvoiceItemRequest `json:"items,omitempty"`
	AdditionalTaxes json.RawMessage      `json:"additional_taxes,omitempty"`
}

// QuoteResponse presupuesto completo.
type QuoteResponse struct {
	ID          string                `json:"id"`
	CompanyID   string                `json:"company_id"`
	ClientID    string                `json:"client_id"`
	ClientName  string                `json:"client_name,omitempty"`
	Number      string                `json:"number"`
	Date        string                `json:"date"`
	ValidUntil  string                `json:"valid_until,omitempty"`
	Status      string                `json:"status"`
	Subtotal    string                `json:"subtotal"`
	Tax         string                `json:"tax"`
	Withholding string                `json:"withholding"`
	Total       string                `json:"total"`
	Notes       string                `json:"notes,omitempty"`
	InvoiceID   string                `json:"invoice_id,omitempty"`
	Items       []InvoiceItemResponse `json:"items"`
	Taxes       []InvoiceTaxResponse  `json:"additional_taxes"`
}
