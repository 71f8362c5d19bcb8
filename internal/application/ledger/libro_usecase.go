package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

// LibroUseCase construye el libro de registros: facturas emitidas y
// movimientos dentro de un rango de fechas, ordenados cronológicamente, con
// totales agregados, y lo exporta a CSV o PDF.
type LibroUseCase struct {
	invoiceRepo     repository.InvoiceRepository
	transactionRepo repository.TransactionRepository
	companyRepo     repository.CompanyRepository
	csvExporter     CSVExporter
	pdfGenerator    PDFGenerator
}

// NewLibroUseCase construye el caso de uso.
func NewLibroUseCase(
	invoiceRepo repository.InvoiceRepository,
	transactionRepo repository.TransactionRepository,
	companyRepo repository.CompanyRepository,
	csvExporter CSVExporter,
	pdfGenerator PDFGenerator,
) *LibroUseCase {
	return &LibroUseCase{
		invoiceRepo:     invoiceRepo,
		transactionRepo: transactionRepo,
		companyRepo:     companyRepo,
		csvExporter:     csvExporter,
		pdfGenerator:    pdfGenerator,
	}
}

// parseRange convierte los query params from/to. Vacío = sin límite.
func parseRange(q dto.LedgerQuery) (from, to *time.Time, err error) {
	if q.From != "" {
		d, err := time.Parse(dateLayout, q.From)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: from inválido", domain.ErrInvalidInput)
		}
		from = &d
	}
	if q.To != "" {
		d, err := time.Parse(dateLayout, q.To)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: to inválido", domain.ErrInvalidInput)
		}
		to = &d
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	return from, to, nil
}

// BuildBook arma el libro en el rango pedido. Las facturas en borrador o
// anuladas no forman parte del libro.
func (uc *LibroUseCase) BuildBook(ctx context.Context, companyID string, q dto.LedgerQuery) (*Book, error) {
	from, to, err := parseRange(q)
	if err != nil {
		return nil, err
	}

	book := &Book{
		From:      from,
		To:        to,
		TotalBase: decimal.Zero,
		TotalIVA:  decimal.Zero,
		TotalIRPF: decimal.Zero,
		Total:     decimal.Zero,
	}
	if company, _ := uc.companyRepo.GetByID(companyID); company != nil {
		book.CompanyName = company.Name
	}

	// Facturas emitidas (ingresos con desglose de IVA/IRPF)
	if q.Type == "" || q.Type == entity.TransactionIncome {
		invoices, err := uc.invoiceRepo.ListByCompany(companyID, repository.InvoiceFilter{
			From: from, To: to, Limit: 10_000,
		})
		if err != nil {
			return nil, fmt.Errorf("libro: listar facturas: %w", err)
		}
		for _, inv := range invoices {
			if inv.Status == entity.InvoiceStatusDraft || inv.Status == entity.InvoiceStatusCancelled {
				continue
			}
			book.Rows = append(book.Rows, Row{
				Date:    inv.Date,
				Type:    "invoice",
				Concept: fmt.Sprintf("Factura %s%s", inv.Series, inv.Number),
				Base:    inv.Subtotal,
				IVA:     inv.Tax,
				IRPF:    inv.Withholding,
				Total:   inv.Total,
			})
		}
	}

	// Movimientos manuales/importados
	txs, err := uc.transactionRepo.ListByCompany(companyID, repository.TransactionFilter{
		Type: q.Type, From: from, To: to, Limit: 10_000,
	})
	if err != nil {
		return nil, fmt.Errorf("libro: listar movimientos: %w", err)
	}
	for _, tx := range txs {
		// Los cobros de facturas ya figuran como factura; evitar doble conteo
		if tx.InvoiceID != "" {
			continue
		}
		total := tx.Amount
		if tx.Type == entity.TransactionExpense {
			total = total.Neg()
		}
		book.Rows = append(book.Rows, Row{
			Date:    tx.Date,
			Type:    tx.Type,
			Concept: tx.Concept,
			Base:    total,
			IVA:     decimal.Zero,
			IRPF:    decimal.Zero,
			Total:   total,
		})
	}

	sort.SliceStable(book.Rows, func(i, j int) bool {
		return book.Rows[i].Date.Before(book.Rows[j].Date)
	})
	for _, row := range book.Rows {
		book.TotalBase = book.TotalBase.Add(row.Base)
		book.TotalIVA = book.TotalIVA.Add(row.IVA)
		book.TotalIRPF = book.TotalIRPF.Add(row.IRPF)
		book.Total = book.Total.Add(row.Total)
	}
	return book, nil
}

// GetLedger devuelve el libro como respuesta JSON.
func (uc *LibroUseCase) GetLedger(ctx context.Context, companyID string, q dto.LedgerQuery) (*dto.LedgerResponse, error) {
	book, err := uc.BuildBook(ctx, companyID, q)
	if err != nil {
		return nil, err
	}
	resp := &dto.LedgerResponse{
		From:       q.From,
		To:         q.To,
		Rows:       make([]dto.LedgerRowResponse, 0, len(book.Rows)),
		TotalBase:  book.TotalBase.StringFixed(2),
		TotalIVA:   book.TotalIVA.StringFixed(2),
		TotalIRPF:  book.TotalIRPF.Neg().StringFixed(2),
		TotalTotal: book.Total.StringFixed(2),
	}
	for _, row := range book.Rows {
		resp.Rows = append(resp.Rows, dto.LedgerRowResponse{
			Date:    row.Date.Format(dateLayout),
			Type:    row.Type,
			Concept: row.Concept,
			Base:    row.Base.StringFixed(2),
			IVA:     row.IVA.StringFixed(2),
			IRPF:    row.IRPF.Neg().StringFixed(2),
			Total:   row.Total.StringFixed(2),
		})
	}
	return resp, nil
}

// ExportCSV genera el libro en CSV.
func (uc *LibroUseCase) ExportCSV(ctx context.Context, companyID string, q dto.LedgerQuery) ([]byte, string, error) {
	book, err := uc.BuildBook(ctx, companyID, q)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.csvExporter.ExportLedgerCSV(book)
	if err != nil {
		return nil, "", fmt.Errorf("libro: exportar CSV: %w", err)
	}
	return data, exportFilename(q, "csv"), nil
}

// ExportPDF genera el libro en PDF.
func (uc *LibroUseCase) ExportPDF(ctx context.Context, companyID string, q dto.LedgerQuery) ([]byte, string, error) {
	book, err := uc.BuildBook(ctx, companyID, q)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.pdfGenerator.GenerateLedgerPDF(ctx, book)
	if err != nil {
		return nil, "", fmt.Errorf("libro: exportar PDF: %w", err)
	}
	return data, exportFilename(q, "pdf"), nil
}

func exportFilename(q dto.LedgerQuery, ext string) string {
	name := "libro_registros"
	if q.From != "" || q.To != "" {
		name = fmt.Sprintf("%s_%s_%s", name, q.From, q.To)
	}
	return name + "." + ext
}
