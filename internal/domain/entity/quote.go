package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un presupuesto.
const (
	QuoteStatusPending  = "pending"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
	QuoteStatusInvoiced = "invoiced" // convertido en factura
)

// Quote representa un presupuesto. Misma estructura de importes que Invoice:
// los totales salen del mismo motor de cálculo.
type Quote struct {
	ID          string
	CompanyID   string
	ClientID    string
	Number      string
	Date        time.Time
	ValidUntil  time.Time
	Status      string
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Withholding decimal.Decimal
	Total       decimal.Decimal
	Notes       string
	InvoiceID   string // factura generada al convertir (vacío si no convertido)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QuoteItem representa una línea de un presupuesto.
type QuoteItem struct {
	ID          string
	QuoteID     string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Subtotal    decimal.Decimal
}

// QuoteTax impuesto adicional de un presupuesto.
type QuoteTax struct {
	ID           string
	QuoteID      string
	Name         string
	Amount       decimal.Decimal
	IsPercentage bool
}
