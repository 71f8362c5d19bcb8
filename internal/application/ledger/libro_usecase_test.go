package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

const testCompanyID = "company-1"

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type stubInvoiceRepo struct {
	repository.InvoiceRepository
	invoices []*entity.Invoice
}

func (r *stubInvoiceRepo) ListByCompany(companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if f.From != nil && inv.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && inv.Date.After(*f.To) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

type stubTransactionRepo struct {
	repository.TransactionRepository
	txs []*entity.Transaction
}

func (r *stubTransactionRepo) ListByCompany(companyID string, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, tx := range r.txs {
		if tx.CompanyID != companyID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.From != nil && tx.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && tx.Date.After(*f.To) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

type stubCompanyRepo struct {
	repository.CompanyRepository
}

func (r *stubCompanyRepo) GetByID(id string) (*entity.Company, error) {
	return &entity.Company{ID: id, Name: "Facturalia Demo SL"}, nil
}

type stubExporter struct{}

func (stubExporter) ExportLedgerCSV(book *Book) ([]byte, error) { return []byte("csv"), nil }

type stubPDF struct{}

func (stubPDF) GenerateLedgerPDF(ctx context.Context, book *Book) ([]byte, error) {
	return []byte("%PDF"), nil
}

func newLibroForTest(invoices []*entity.Invoice, txs []*entity.Transaction) *LibroUseCase {
	return NewLibroUseCase(
		&stubInvoiceRepo{invoices: invoices},
		&stubTransactionRepo{txs: txs},
		&stubCompanyRepo{},
		stubExporter{},
		stubPDF{},
	)
}

func sentInvoice(id, date, base, iva, irpf string) *entity.Invoice {
	return &entity.Invoice{
		ID:          id,
		CompanyID:   testCompanyID,
		Series:      "A-",
		Number:      "000" + id[len(id)-1:],
		Date:        day(date),
		Status:      entity.InvoiceStatusSent,
		Subtotal:    dec(base),
		Tax:         dec(iva),
		Withholding: dec(irpf),
		Total:       dec(base).Add(dec(iva)).Sub(dec(irpf)),
	}
}

// El libro fusiona facturas y movimientos ordenados por fecha, negando los
// gastos, y acumula los totales.
func TestBuildBook_FusionaYTotaliza(t *testing.T) {
	uc := newLibroForTest(
		[]*entity.Invoice{
			sentInvoice("inv-1", "2026-01-15", "1000", "210", "150"),
		},
		[]*entity.Transaction{
			{ID: "tx-1", CompanyID: testCompanyID, Type: entity.TransactionExpense,
				Concept: "Alquiler oficina", Amount: dec("400"), Date: day("2026-01-05")},
			{ID: "tx-2", CompanyID: testCompanyID, Type: entity.TransactionIncome,
				Concept: "Formación impartida", Amount: dec("250"), Date: day("2026-01-20")},
		},
	)

	book, err := uc.BuildBook(context.Background(), testCompanyID, dto.LedgerQuery{})
	require.NoError(t, err)

	require.Len(t, book.Rows, 3)
	assert.Equal(t, "Alquiler oficina", book.Rows[0].Concept, "orden cronológico")
	assert.Equal(t, "Factura A-0001", book.Rows[1].Concept)
	assert.Equal(t, "Formación impartida", book.Rows[2].Concept)

	assert.True(t, book.Rows[0].Total.Equal(dec("-400")), "los gastos restan")
	assert.True(t, book.TotalBase.Equal(dec("850")))   // 1000 - 400 + 250
	assert.True(t, book.TotalIVA.Equal(dec("210")))
	assert.True(t, book.TotalIRPF.Equal(dec("150")))
	assert.True(t, book.Total.Equal(dec("910")))       // 1060 - 400 + 250
	assert.Equal(t, "Facturalia Demo SL", book.CompanyName)
}

// Borradores y anuladas no forman parte del libro.
func TestBuildBook_IgnoraBorradoresYAnuladas(t *testing.T) {
	draft := sentInvoice("inv-1", "2026-01-10", "100", "21", "0")
	draft.Status = entity.InvoiceStatusDraft
	cancelled := sentInvoice("inv-2", "2026-01-11", "100", "21", "0")
	cancelled.Status = entity.InvoiceStatusCancelled

	uc := newLibroForTest([]*entity.Invoice{draft, cancelled}, nil)

	book, err := uc.BuildBook(context.Background(), testCompanyID, dto.LedgerQuery{})
	require.NoError(t, err)
	assert.Empty(t, book.Rows)
}

// Un movimiento enlazado a una factura es su cobro: la factura ya está en el
// libro y el movimiento no debe contarse dos veces.
func TestBuildBook_CobroDeFacturaNoDuplica(t *testing.T) {
	uc := newLibroForTest(
		[]*entity.Invoice{sentInvoice("inv-1", "2026-01-15", "1000", "210", "0")},
		[]*entity.Transaction{
			{ID: "tx-1", CompanyID: testCompanyID, Type: entity.TransactionIncome,
				Concept: "Cobro factura A-0001", Amount: dec("1210"),
				Date: day("2026-01-30"), InvoiceID: "inv-1"},
		},
	)

	book, err := uc.BuildBook(context.Background(), testCompanyID, dto.LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, book.Rows, 1)
	assert.True(t, book.Total.Equal(dec("1210")))
}

func TestBuildBook_FiltroDeFechas(t *testing.T) {
	uc := newLibroForTest(
		[]*entity.Invoice{
			sentInvoice("inv-1", "2026-01-15", "100", "21", "0"),
			sentInvoice("inv-2", "2026-03-15", "200", "42", "0"),
		},
		nil,
	)

	book, err := uc.BuildBook(context.Background(), testCompanyID, dto.LedgerQuery{
		From: "2026-01-01", To: "2026-01-31",
	})
	require.NoError(t, err)
	require.Len(t, book.Rows, 1)
	assert.True(t, book.TotalBase.Equal(dec("100")))
}

func TestBuildBook_RangoInvertidoRechazado(t *testing.T) {
	uc := newLibroForTest(nil, nil)
	_, err := uc.BuildBook(context.Background(), testCompanyID, dto.LedgerQuery{
		From: "2026-02-01", To: "2026-01-01",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// El filtro type=expense deja fuera las facturas y los ingresos manuales.
func TestBuildBook_FiltroSoloGastos(t *testing.T) {
	uc := newLibroForTest(
		[]*entity.Invoice{sentInvoice("inv-1", "2026-01-15", "100", "21", "0")},
		[]*entity.Transaction{
			{ID: "tx-1", CompanyID: testCompanyID, Type: entity.TransactionExpense,
				Concept: "Gestoría", Amount: dec("90"), Date: day("2026-01-10")},
			{ID: "tx-2", CompanyID: testCompanyID, Type: entity.TransactionIncome,
				Concept: "Otro ingreso", Amount: dec("40"), Date: day("2026-01-12")},
		},
	)

	book, err := uc.BuildBook(context.Background(), testCompanyID, dto.LedgerQuery{Type: "expense"})
	require.NoError(t, err)
	require.Len(t, book.Rows, 1)
	assert.Equal(t, "Gestoría", book.Rows[0].Concept)
	assert.True(t, book.Total.Equal(dec("-90")))
}

// En la respuesta JSON el IRPF se presenta en negativo.
func TestGetLedger_IRPFEnNegativo(t *testing.T) {
	uc := newLibroForTest(
		[]*entity.Invoice{sentInvoice("inv-1", "2026-01-15", "1000", "210", "150")},
		nil,
	)

	resp, err := uc.GetLedger(context.Background(), testCompanyID, dto.LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "-150.00", resp.Rows[0].IRPF)
	assert.Equal(t, "-150.00", resp.TotalIRPF)
	assert.Equal(t, "1060.00", resp.TotalTotal)
}

func TestExport_NombresDeArchivo(t *testing.T) {
	uc := newLibroForTest(nil, nil)

	_, name, err := uc.ExportCSV(context.Background(), testCompanyID, dto.LedgerQuery{})
	require.NoError(t, err)
	assert.Equal(t, "libro_registros.csv", name)

	_, name, err = uc.ExportPDF(context.Background(), testCompanyID, dto.LedgerQuery{
		From: "2026-01-01", To: "2026-03-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "libro_registros_2026-01-01_2026-03-31.pdf", name)
}
