package dto

import "encoding/json"

// CreateTransactionRequest body para POST /api/transactions.
// Amount acepta número o string (misma tolerancia que las líneas de factura).
type CreateTransactionRequest struct {
	Type      string          `json:"type"` // income, expense
	Concept   string          `json:"concept"`
	Category  string          `json:"category,omitempty"`
	Amount    json.RawMessage `json:"amount"`
	Date      string          `json:"date"` // YYYY-MM-DD
	InvoiceID string          `json:"invoice_id,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// UpdateTransactionRequest body para PUT /api/transactions/:id.
type UpdateTransactionRequest struct {
	Type     string          `json:"type,omitempty"`
	Concept  string          `json:"concept,omitempty"`
	Category string          `json:"category,omitempty"`
	Amount   json.RawMessage `json:"amount,omitempty"`
	Date     string          `json:"date,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

// TransactionResponse movimiento en respuestas.
type TransactionResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Type      string `json:"type"`
	Concept   string `json:"concept"`
	Category  string `json:"category,omitempty"`
	Amount    string `json:"amount"` // 2 decimales fijos
	Date      string `json:"date"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Notes     string `json:"notes,omitempty"`
}
