package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// InvoiceItemRequest línea de factura tal como llega del formulario. Quantity,
// UnitPrice y TaxRate se aceptan como JSON crudo (número, string o basura a
// medio teclear) y se coaccionan a decimal en el use case; el subtotal enviado
// por el cliente se ignora y se recalcula siempre.
type InvoiceItemRequest struct {
	Description string          `json:"description"`
	Quantity    json.RawMessage `json:"quantity"`
	UnitPrice   json.RawMessage `json:"unit_price"`
	TaxRate     json.RawMessage `json:"tax_rate"`
}

// CreateInvoiceRequest body para POST /api/invoices.
// AdditionalTaxes llega con forma variable (array, objeto o string con JSON
// embebido) y se normaliza en la frontera. SessionID opcional enlaza la
// sesión de edición para la guarda de envío.
type CreateInvoiceRequest struct {
	ClientID        string               `json:"client_id"`
	Series          string               `json:"series"`
	Number          string               `json:"number,omitempty"` // opcional; vacío = consecutivo de la serie
	Date            string               `json:"date"`             // YYYY-MM-DD
	DueDate         string               `json:"due_date,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Items           []InvoiceItemRequest `json:"items"`
	AdditionalTaxes json.RawMessage      `json:"additional_taxes,omitempty"`
	SessionID       string               `json:"session_id,omitempty"`
}

// UpdateInvoiceRequest body para PUT /api/invoices/:id. Mismas reglas que Create.
type UpdateInvoiceRequest struct {
	ClientID        string               `json:"client_id,omitempty"`
	Date            string               `json:"date,omitempty"`
	DueDate         string               `json:"due_date,omitempty"`
	Status          string               `json:"status,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Items           []InvoiceItemRequest `json:"items,omitempty"`
	AdditionalTaxes json.RawMessage      `json:"additional_taxes,omitempty"`
	SessionID       string               `json:"session_id,omitempty"`
}

// InvoiceItemResponse línea en la respuesta.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    string          `json:"subtotal"` // 2 decimales fijos
}

// InvoiceTaxResponse impuesto adicional con su contribución calculada.
// Contribution lleva signo negativo cuando es retención.
type InvoiceTaxResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	IsPercentage  bool            `json:"is_percentage"`
	IsWithholding bool            `json:"is_withholding"`
	Contribution  string          `json:"contribution"`
}

// InvoiceResponse factura completa. Subtotal, Tax, Withholding y Total son
// strings decimales con 2 decimales fijos (contrato del colaborador de
// persistencia del formulario).
type InvoiceResponse struct {
	ID          string                `json:"id"`
	CompanyID   string                `json:"company_id"`
	ClientID    string                `json:"client_id"`
	ClientName  string                `json:"client_name,omitempty"`
	Series      string                `json:"series"`
	Number      string                `json:"number"`
	Date        string                `json:"date"`
	DueDate     string                `json:"due_date,omitempty"`
	Status      string                `json:"status"`
	Subtotal    string                `json:"subtotal"`
	Tax         string                `json:"tax"`
	Withholding string                `json:"withholding"`
	Total       string                `json:"total"`
	Notes       string                `json:"notes,omitempty"`
	Digest      string                `json:"digest,omitempty"`
	Items       []InvoiceItemResponse `json:"items"`
	Taxes       []InvoiceTaxResponse  `json:"additional_taxes"`
}

// InvoiceStatusResponse respuesta ligera para GET /api/invoices/:id/status.
type InvoiceStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Digest string `json:"digest,omitempty"`
}

// SessionResponse estado de una sesión de edición (guarda de envío).
type SessionResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}
