package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura.
const (
	InvoiceStatusDraft     = "draft"     // editable, sin numerar definitivamente
	InvoiceStatusSent      = "sent"      // emitida y enviada al cliente
	InvoiceStatusPaid      = "paid"      // cobrada
	InvoiceStatusCancelled = "cancelled" // anulada
)

// Invoice representa la cabecera de una factura emitida.
// Subtotal, Tax, Withholding y Total se persisten redondeados a 2 decimales;
// son siempre salida del motor de totales, nunca valores enviados por el cliente.
type Invoice struct {
	ID          string
	CompanyID   string
	ClientID    string
	Series      string
	Number      string
	Date        time.Time
	DueDate     time.Time
	Status      string
	Subtotal    decimal.Decimal // base imponible
	Tax         decimal.Decimal // IVA de líneas + impuestos adicionales aditivos
	Withholding decimal.Decimal // retención IRPF, se resta del total
	Total       decimal.Decimal
	Notes       string
	XMLFacturae string // XML Facturae 3.2.2 generado (vacío hasta generar)
	Digest      string // SHA-512 del XML canonicalizado (integridad)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InvoiceItem representa una línea de una factura.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // porcentaje (0, 4, 10, 21...)
	Subtotal    decimal.Decimal // quantity × unit_price, redondeado al persistir
}

// InvoiceTax representa un impuesto adicional persistido de la factura
// (IVA adicional, IRPF, gastos fijos).
type InvoiceTax struct {
	ID           string
	InvoiceID    string
	Name         string
	Amount       decimal.Decimal
	IsPercentage bool
}
