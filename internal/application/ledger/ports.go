// Package ledger implementa el libro de registros: filtrado por fechas de
// facturas emitidas y movimientos, y su exportación a CSV y PDF.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Row es una fila del libro de registros ya resuelta (factura o movimiento).
// IRPF se acumula en positivo y se presenta en negativo en los exports.
type Row struct {
	Date    time.Time
	Type    string // invoice, income, expense
	Concept string
	Base    decimal.Decimal
	IVA     decimal.Decimal
	IRPF    decimal.Decimal
	Total   decimal.Decimal
}

// Book es el libro completo con totales agregados.
type Book struct {
	CompanyName string
	From, To    *time.Time
	Rows        []Row
	TotalBase   decimal.Decimal
	TotalIVA    decimal.Decimal
	TotalIRPF   decimal.Decimal
	Total       decimal.Decimal
}

// CSVExporter serializa el libro a CSV.
type CSVExporter interface {
	ExportLedgerCSV(book *Book) ([]byte, error)
}

// PDFGenerator genera el libro en PDF.
type PDFGenerator interface {
	GenerateLedgerPDF(ctx context.Context, book *Book) ([]byte, error)
}
