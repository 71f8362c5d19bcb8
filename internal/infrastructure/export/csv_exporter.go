// Package export serializa el libro de registros a formatos de intercambio.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/facturalia/facturas-api/internal/application/ledger"
)

var _ ledger.CSVExporter = (*CSVExporter)(nil)

// CSVExporter implementa ledger.CSVExporter con encoding/csv.
type CSVExporter struct{}

// NewCSVExporter construye el exportador.
func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

// ExportLedgerCSV serializa el libro: una fila por registro más una fila final
// de totales. IRPF se exporta en negativo.
func (e *CSVExporter) ExportLedgerCSV(book *ledger.Book) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"fecha", "tipo", "concepto", "base", "iva", "irpf", "total"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("csv: escribir cabecera: %w", err)
	}

	for _, row := range book.Rows {
		record := []string{
			row.Date.Format("2006-01-02"),
			row.Type,
			row.Concept,
			row.Base.StringFixed(2),
			row.IVA.StringFixed(2),
			row.IRPF.Neg().StringFixed(2),
			row.Total.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv: escribir fila: %w", err)
		}
	}

	totals := []string{
		"", "TOTALES", "",
		book.TotalBase.StringFixed(2),
		book.TotalIVA.StringFixed(2),
		book.TotalIRPF.Neg().StringFixed(2),
		book.Total.StringFixed(2),
	}
	if err := w.Write(totals); err != nil {
		return nil, fmt.Errorf("csv: escribir totales: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}
