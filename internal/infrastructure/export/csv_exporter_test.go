package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalia/facturas-api/internal/application/ledger"
)

func TestExportLedgerCSV(t *testing.T) {
	book := &ledger.Book{
		Rows: []ledger.Row{
			{
				Date:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
				Type:    "invoice",
				Concept: "Factura A-0001",
				Base:    decimal.NewFromInt(1000),
				IVA:     decimal.NewFromInt(210),
				IRPF:    decimal.NewFromInt(150),
				Total:   decimal.NewFromInt(1060),
			},
			{
				Date:    time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
				Type:    "expense",
				Concept: "Alquiler, oficina centro", // coma en el concepto
				Base:    decimal.NewFromInt(-400),
				Total:   decimal.NewFromInt(-400),
			},
		},
		TotalBase: decimal.NewFromInt(600),
		TotalIVA:  decimal.NewFromInt(210),
		TotalIRPF: decimal.NewFromInt(150),
		Total:     decimal.NewFromInt(660),
	}

	data, err := NewCSVExporter().ExportLedgerCSV(book)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err, "la salida debe ser CSV válido aun con comas en los campos")
	require.Len(t, records, 4) // cabecera + 2 filas + totales

	assert.Equal(t, []string{"fecha", "tipo", "concepto", "base", "iva", "irpf", "total"}, records[0])
	assert.Equal(t, []string{"2026-01-15", "invoice", "Factura A-0001", "1000.00", "210.00", "-150.00", "1060.00"}, records[1])
	assert.Equal(t, "Alquiler, oficina centro", records[2][2])
	assert.Equal(t, "-400.00", records[2][6])
	assert.Equal(t, []string{"", "TOTALES", "", "600.00", "210.00", "-150.00", "660.00"}, records[3])
}

func TestExportLedgerCSV_LibroVacio(t *testing.T) {
	data, err := NewCSVExporter().ExportLedgerCSV(&ledger.Book{
		TotalBase: decimal.Zero,
		TotalIVA:  decimal.Zero,
		TotalIRPF: decimal.Zero,
		Total:     decimal.Zero,
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "cabecera y totales aunque no haya filas")
	assert.Equal(t, "0.00", records[1][3])
}
