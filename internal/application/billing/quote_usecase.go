package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	domainbilling "github.com/facturalia/facturas-api/internal/domain/billing"
	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

// QuoteUseCase casos de uso de presupuestos, incluida la conversión a factura.
// Los totales salen del mismo motor que las facturas: un presupuesto aceptado
// y su factura no pueden diferir en un céntimo.
type QuoteUseCase struct {
	txRunner   BillingTxRunner
	quoteRepo  repository.QuoteRepository
	clientRepo repository.ClientRepository
}

// NewQuoteUseCase construye el caso de uso.
func NewQuoteUseCase(txRunner BillingTxRunner, quoteRepo repository.QuoteRepository, clientRepo repository.ClientRepository) *QuoteUseCase {
	return &QuoteUseCase{txRunner: txRunner, quoteRepo: quoteRepo, clientRepo: clientRepo}
}

// Create crea un presupuesto calculando totales con el motor compartido.
func (uc *QuoteUseCase) Create(ctx context.Context, companyID string, in dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	if in.ClientID == "" {
		return nil, domain.ErrInvalidInput
	}
	client, err := uc.clientRepo.GetByID(in.ClientID)
	if err != nil || client == nil {
		return nil, domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	items, err := normalizeItems(in.Items)
	if err != nil {
		return nil, err
	}
	taxes := domainbilling.NormalizeAdditionalTaxes(in.AdditionalTaxes)
	totals := domainbilling.ComputeTotals(items, taxes).Rounded()

	date := time.Now()
	if in.Date != "" {
		if date, err = time.Parse(dateLayout, in.Date); err != nil {
			return nil, fmt.Errorf("%w: fecha inválida", domain.ErrInvalidInput)
		}
	}
	validUntil := date.AddDate(0, 1, 0) // validez de un mes por defecto
	if in.ValidUntil != "" {
		if validUntil, err = time.Parse(dateLayout, in.ValidUntil); err != nil {
			return nil, fmt.Errorf("%w: fecha de validez inválida", domain.ErrInvalidInput)
		}
	}

	now := time.Now()
	number := in.Number
	if number == "" {
		number = fmt.Sprintf("P-%d", now.Unix())
	}
	q := &entity.Quote{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ClientID:    in.ClientID,
		Number:      number,
		Date:        date,
		ValidUntil:  validUntil,
		Status:      entity.QuoteStatusPending,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Withholding: totals.Withholding,
		Total:       totals.Total,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var itemRows []*entity.QuoteItem
	var taxRows []*entity.QuoteTax
	err = uc.txRunner.RunBilling(ctx, func(
		_ repository.InvoiceRepository,
		quoteRepo repository.QuoteRepository,
		_ repository.TransactionRepository,
	) error {
		if err := quoteRepo.Create(q); err != nil {
			return err
		}
		itemRows = buildQuoteItemRows(q.ID, items)
		for _, row := range itemRows {
			if err := quoteRepo.CreateItem(row); err != nil {
				return err
			}
		}
		taxRows = buildQuoteTaxRows(q.ID, taxes)
		for _, row := range taxRows {
			if err := quoteRepo.CreateTax(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(q, client.Name, itemRows, taxRows), nil
}

// Get obtiene un presupuesto completo.
func (uc *QuoteUseCase) Get(ctx context.Context, companyID, id string) (*dto.QuoteResponse, error) {
	q, err := uc.quoteRepo.GetByID(id)
	if err != nil || q == nil {
		return nil, domain.ErrNotFound
	}
	if q.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.quoteRepo.GetItemsByQuoteID(id)
	if err != nil {
		return nil, err
	}
	taxes, err := uc.quoteRepo.GetTaxesByQuoteID(id)
	if err != nil {
		return nil, err
	}
	clientName := ""
	if client, _ := uc.clientRepo.GetByID(q.ClientID); client != nil {
		clientName = client.Name
	}
	return toQuoteResponse(q, clientName, items, taxes), nil
}

// List lista presupuestos de la empresa, opcionalmente por estado.
func (uc *QuoteUseCase) List(ctx context.Context, companyID, status string, limit, offset int) ([]*dto.QuoteResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.quoteRepo.ListByCompany(companyID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.QuoteResponse, 0, len(list))
	for _, q := range list {
		out = append(out, toQuoteResponse(q, "", nil, nil))
	}
	return out, nil
}

// UpdateStatus cambia el estado del presupuesto (accepted, rejected).
func (uc *QuoteUseCase) UpdateStatus(ctx context.Context, companyID, id, status string) (*dto.QuoteResponse, error) {
	q, err := uc.quoteRepo.GetByID(id)
	if err != nil || q == nil {
		return nil, domain.ErrNotFound
	}
	if q.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	switch status {
	case entity.QuoteStatusPending, entity.QuoteStatusAccepted, entity.QuoteStatusRejected:
	default:
		return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, status)
	}
	if q.Status == entity.QuoteStatusInvoiced {
		return nil, fmt.Errorf("%w: el presupuesto ya fue facturado", domain.ErrConflict)
	}
	q.Status = status
	q.UpdatedAt = time.Now()
	if err := uc.quoteRepo.Update(q); err != nil {
		return nil, err
	}
	return toQuoteResponse(q, "", nil, nil), nil
}

// ConvertToInvoice crea la factura a partir del presupuesto en una sola
// transacción: factura + líneas + impuestos + marca del presupuesto.
func (uc *QuoteUseCase) ConvertToInvoice(ctx context.Context, companyID, id, series string) (*dto.InvoiceResponse, error) {
	if series == "" {
		return nil, fmt.Errorf("%w: serie requerida para facturar", domain.ErrInvalidInput)
	}
	q, err := uc.quoteRepo.GetByID(id)
	if err != nil || q == nil {
		return nil, domain.ErrNotFound
	}
	if q.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if q.Status == entity.QuoteStatusInvoiced {
		return nil, fmt.Errorf("%w: el presupuesto ya fue facturado", domain.ErrConflict)
	}
	if q.Status == entity.QuoteStatusRejected {
		return nil, fmt.Errorf("%w: un presupuesto rechazado no se factura", domain.ErrConflict)
	}

	qItems, err := uc.quoteRepo.GetItemsByQuoteID(id)
	if err != nil {
		return nil, err
	}
	qTaxes, err := uc.quoteRepo.GetTaxesByQuoteID(id)
	if err != nil {
		return nil, err
	}

	// Reconstruir la entrada del motor desde las líneas guardadas y recalcular:
	// los totales de la factura no se copian del presupuesto.
	items := make([]domainbilling.LineItem, 0, len(qItems))
	for _, it := range qItems {
		items = append(items, domainbilling.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}
	taxes := make([]domainbilling.AdditionalTax, 0, len(qTaxes))
	for _, t := range qTaxes {
		taxes = append(taxes, domainbilling.AdditionalTax{
			Name:         t.Name,
			Amount:       t.Amount,
			IsPercentage: t.IsPercentage,
		})
	}
	totals := domainbilling.ComputeTotals(items, taxes).Rounded()

	now := time.Now()
	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ClientID:    q.ClientID,
		Series:      series,
		Date:        now,
		DueDate:     now.AddDate(0, 1, 0),
		Status:      entity.InvoiceStatusDraft,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Withholding: totals.Withholding,
		Total:       totals.Total,
		Notes:       q.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var itemRows []*entity.InvoiceItem
	var taxRows []*entity.InvoiceTax
	err = uc.txRunner.RunBilling(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		quoteRepo repository.QuoteRepository,
		_ repository.TransactionRepository,
	) error {
		number, err := invoiceRepo.NextNumber(companyID, series)
		if err != nil {
			return fmt.Errorf("asignar número: %w", err)
		}
		inv.Number = number
		if err := invoiceRepo.Create(inv); err != nil {
			return err
		}
		itemRows = buildItemRows(inv.ID, items)
		for _, row := range itemRows {
			if err := invoiceRepo.CreateItem(row); err != nil {
				return err
			}
		}
		taxRows = buildTaxRows(inv.ID, taxes)
		for _, row := range taxRows {
			if err := invoiceRepo.CreateTax(row); err != nil {
				return err
			}
		}
		q.Status = entity.QuoteStatusInvoiced
		q.InvoiceID = inv.ID
		q.UpdatedAt = now
		return quoteRepo.Update(q)
	})
	if err != nil {
		return nil, err
	}

	clientName := ""
	if client, _ := uc.clientRepo.GetByID(inv.ClientID); client != nil {
		clientName = client.Name
	}
	return toInvoiceResponse(inv, clientName, itemRows, taxRows), nil
}

func buildQuoteItemRows(quoteID string, items []domainbilling.LineItem) []*entity.QuoteItem {
	rows := make([]*entity.QuoteItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, &entity.QuoteItem{
			ID:          uuid.New().String(),
			QuoteID:     quoteID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			Subtotal:    domainbilling.LineSubtotal(item).Round(2),
		})
	}
	return rows
}

func buildQuoteTaxRows(quoteID string, taxes []domainbilling.AdditionalTax) []*entity.QuoteTax {
	rows := make([]*entity.QuoteTax, 0, len(taxes))
	for _, t := range taxes {
		rows = append(rows, &entity.QuoteTax{
			ID:           uuid.New().String(),
			QuoteID:      quoteID,
			Name:         t.Name,
			Amount:       t.Amount,
			IsPercentage: t.IsPercentage,
		})
	}
	return rows
}

func toQuoteResponse(q *entity.Quote, clientName string, items []*entity.QuoteItem, taxes []*entity.QuoteTax) *dto.QuoteResponse {
	resp := &dto.QuoteResponse{
		ID:          q.ID,
		CompanyID:   q.CompanyID,
		ClientID:    q.ClientID,
		ClientName:  clientName,
		Number:      q.Number,
		Date:        q.Date.Format(dateLayout),
		Status:      q.Status,
		Subtotal:    q.Subtotal.StringFixed(2),
		Tax:         q.Tax.StringFixed(2),
		Withholding: q.Withholding.StringFixed(2),
		Total:       q.Total.StringFixed(2),
		Notes:       q.Notes,
		InvoiceID:   q.InvoiceID,
		Items:       make([]dto.InvoiceItemResponse, 0, len(items)),
		Taxes:       make([]dto.InvoiceTaxResponse, 0, len(taxes)),
	}
	if !q.ValidUntil.IsZero() {
		resp.ValidUntil = q.ValidUntil.Format(dateLayout)
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Subtotal:    it.Subtotal.StringFixed(2),
		})
	}
	for _, t := range taxes {
		contribution := t.Amount
		if t.IsPercentage {
			contribution = q.Subtotal.Mul(t.Amount).Div(decimal.NewFromInt(100))
		}
		isRet := domainbilling.IsWithholding(t.Name)
		if isRet {
			contribution = contribution.Abs().Neg()
		}
		resp.Taxes = append(resp.Taxes, dto.InvoiceTaxResponse{
			ID:            t.ID,
			Name:          t.Name,
			Amount:        t.Amount,
			IsPercentage:  t.IsPercentage,
			IsWithholding: isRet,
			Contribution:  contribution.Round(2).StringFixed(2),
		})
	}
	return resp
}
