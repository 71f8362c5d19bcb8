package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de registros.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction representa un movimiento contable (ingreso o gasto) registrado
// manualmente o importado del banco. InvoiceID enlaza el cobro de una factura.
type Transaction struct {
	ID        string
	CompanyID string
	Type      string // income, expense
	Concept   string
	Category  string
	Amount    decimal.Decimal // siempre positivo; el signo lo da Type
	Date      time.Time
	InvoiceID string // opcional
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
