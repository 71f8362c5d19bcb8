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

const dateLayout = "2006-01-02"

// InvoiceUseCase casos de uso de facturas: creación, edición, consulta y
// listado. Los totales se recalculan SIEMPRE en el servidor con el motor de
// internal/domain/billing; cualquier subtotal/tax/total enviado por el cliente
// se descarta. Histórico: cada variante del formulario recalculaba por su
// cuenta y las cifras divergían entre vistas.
type InvoiceUseCase struct {
	txRunner    BillingTxRunner
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	sessions    *SessionUseCase
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	txRunner BillingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	sessions *SessionUseCase,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		sessions:    sessions,
	}
}

// normalizeItems coacciona las líneas crudas del formulario a LineItem y valida
// lo que el motor no valida: descripción no vacía, cantidad > 0, precio ≥ 0.
func normalizeItems(raw []dto.InvoiceItemRequest) ([]domainbilling.LineItem, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: la factura necesita al menos una línea", domain.ErrInvalidInput)
	}
	items := make([]domainbilling.LineItem, 0, len(raw))
	for i, r := range raw {
		if r.Description == "" {
			return nil, fmt.Errorf("%w: línea %d sin descripción", domain.ErrInvalidInput, i+1)
		}
		item := domainbilling.LineItem{
			Description: r.Description,
			Quantity:    domainbilling.CoerceDecimal(r.Quantity),
			UnitPrice:   domainbilling.CoerceDecimal(r.UnitPrice),
			TaxRate:     domainbilling.CoerceDecimal(r.TaxRate),
		}
		if !item.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: línea %d con cantidad no positiva", domain.ErrInvalidInput, i+1)
		}
		if item.UnitPrice.LessThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidInput, i+1)
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateInvoice valida, calcula totales y persiste factura, líneas e impuestos
// en una sola transacción. Si llega SessionID, el envío pasa por la guarda de
// estados (un diálogo hijo abierto lo rechaza con ErrSubmitBlocked).
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, companyID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if in.ClientID == "" || in.Series == "" {
		return nil, domain.ErrInvalidInput
	}

	if in.SessionID != "" {
		if err := uc.sessions.Submit(in.SessionID); err != nil {
			return nil, err
		}
		defer uc.sessions.Finish(in.SessionID)
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
	dueDate := date
	if in.DueDate != "" {
		if dueDate, err = time.Parse(dateLayout, in.DueDate); err != nil {
			return nil, fmt.Errorf("%w: fecha de vencimiento inválida", domain.ErrInvalidInput)
		}
	}

	now := time.Now()
	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ClientID:    in.ClientID,
		Series:      in.Series,
		Number:      in.Number,
		Date:        date,
		DueDate:     dueDate,
		Status:      entity.InvoiceStatusDraft,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Withholding: totals.Withholding,
		Total:       totals.Total,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var itemRows []*entity.InvoiceItem
	var taxRows []*entity.InvoiceTax
	err = uc.txRunner.RunBilling(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.QuoteRepository,
		_ repository.TransactionRepository,
	) error {
		if inv.Number == "" {
			number, err := invoiceRepo.NextNumber(companyID, in.Series)
			if err != nil {
				return fmt.Errorf("asignar número: %w", err)
			}
			inv.Number = number
		}
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
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toInvoiceResponse(inv, client.Name, itemRows, taxRows), nil
}

// UpdateInvoice reescribe líneas e impuestos y recalcula totales. Solo las
// facturas en borrador admiten cambios de contenido; sobre el resto solo se
// permiten transiciones de estado.
func (uc *InvoiceUseCase) UpdateInvoice(ctx context.Context, companyID, id string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	if in.SessionID != "" {
		if err := uc.sessions.Submit(in.SessionID); err != nil {
			return nil, err
		}
		defer uc.sessions.Finish(in.SessionID)
	}

	contentChange := len(in.Items) > 0 || len(in.AdditionalTaxes) > 0 || in.ClientID != "" || in.Date != ""
	if contentChange && inv.Status != entity.InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: solo un borrador admite cambios de contenido", domain.ErrConflict)
	}

	if in.Status != "" && in.Status != inv.Status {
		if !validInvoiceStatus(in.Status) {
			return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, in.Status)
		}
		if !validStatusTransition(inv.Status, in.Status) {
			return nil, fmt.Errorf("%w: de %q a %q", domainbilling.ErrInvalidTransition, inv.Status, in.Status)
		}
		inv.Status = in.Status
	}
	if in.ClientID != "" {
		client, err := uc.clientRepo.GetByID(in.ClientID)
		if err != nil || client == nil {
			return nil, domain.ErrNotFound
		}
		if client.CompanyID != companyID {
			return nil, domain.ErrForbidden
		}
		inv.ClientID = in.ClientID
	}
	if in.Date != "" {
		d, err := time.Parse(dateLayout, in.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: fecha inválida", domain.ErrInvalidInput)
		}
		inv.Date = d
	}
	if in.DueDate != "" {
		d, err := time.Parse(dateLayout, in.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: fecha de vencimiento inválida", domain.ErrInvalidInput)
		}
		inv.DueDate = d
	}
	if in.Notes != "" {
		inv.Notes = in.Notes
	}

	// Un body con items reescribe líneas e impuestos; un body solo con
	// additional_taxes reescribe los impuestos y recalcula sobre las líneas
	// guardadas. En ambos casos los totales salen del motor, nunca del body.
	var items []domainbilling.LineItem
	var taxes []domainbilling.AdditionalTax
	rewriteItems := len(in.Items) > 0
	rewriteTaxes := rewriteItems || len(in.AdditionalTaxes) > 0
	if rewriteTaxes {
		if rewriteItems {
			if items, err = normalizeItems(in.Items); err != nil {
				return nil, err
			}
		} else {
			stored, err := uc.invoiceRepo.GetItemsByInvoiceID(inv.ID)
			if err != nil {
				return nil, err
			}
			items = lineItemsFromRows(stored)
		}
		taxes = domainbilling.NormalizeAdditionalTaxes(in.AdditionalTaxes)
		totals := domainbilling.ComputeTotals(items, taxes).Rounded()
		inv.Subtotal = totals.Subtotal
		inv.Tax = totals.Tax
		inv.Withholding = totals.Withholding
		inv.Total = totals.Total
	}
	inv.UpdatedAt = time.Now()

	var itemRows []*entity.InvoiceItem
	var taxRows []*entity.InvoiceTax
	err = uc.txRunner.RunBilling(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.QuoteRepository,
		_ repository.TransactionRepository,
	) error {
		if err := invoiceRepo.Update(inv); err != nil {
			return err
		}
		if rewriteItems {
			if err := invoiceRepo.DeleteItems(inv.ID); err != nil {
				return err
			}
			itemRows = buildItemRows(inv.ID, items)
			for _, row := range itemRows {
				if err := invoiceRepo.CreateItem(row); err != nil {
					return err
				}
			}
		}
		if rewriteTaxes {
			if err := invoiceRepo.DeleteTaxes(inv.ID); err != nil {
				return err
			}
			taxRows = buildTaxRows(inv.ID, taxes)
			for _, row := range taxRows {
				if err := invoiceRepo.CreateTax(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !rewriteItems {
		if itemRows, err = uc.invoiceRepo.GetItemsByInvoiceID(inv.ID); err != nil {
			return nil, err
		}
	}
	if !rewriteTaxes {
		if taxRows, err = uc.invoiceRepo.GetTaxesByInvoiceID(inv.ID); err != nil {
			return nil, err
		}
	}
	clientName := ""
	if client, _ := uc.clientRepo.GetByID(inv.ClientID); client != nil {
		clientName = client.Name
	}
	return toInvoiceResponse(inv, clientName, itemRows, taxRows), nil
}

// GetInvoice obtiene una factura con líneas e impuestos.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(id)
	if err != nil {
		return nil, err
	}
	taxes, err := uc.invoiceRepo.GetTaxesByInvoiceID(id)
	if err != nil {
		return nil, err
	}
	clientName := ""
	if client, _ := uc.clientRepo.GetByID(inv.ClientID); client != nil {
		clientName = client.Name
	}
	return toInvoiceResponse(inv, clientName, items, taxes), nil
}

// GetStatus consulta ligera del estado (polling del frontend).
func (uc *InvoiceUseCase) GetStatus(ctx context.Context, companyID, id string) (*dto.InvoiceStatusResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return &dto.InvoiceStatusResponse{ID: inv.ID, Status: inv.Status, Digest: inv.Digest}, nil
}

// ListInvoices lista facturas de la empresa con filtros de estado y fechas.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, companyID string, f repository.InvoiceFilter) ([]*dto.InvoiceResponse, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	list, err := uc.invoiceRepo.ListByCompany(companyID, f)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		// listado sin líneas; el detalle completo va por GetInvoice
		out = append(out, toInvoiceResponse(inv, "", nil, nil))
	}
	return out, nil
}

// DeleteInvoice elimina una factura. Solo borradores: una factura emitida se
// anula (status cancelled), no se borra.
func (uc *InvoiceUseCase) DeleteInvoice(ctx context.Context, companyID, id string) error {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil || inv == nil {
		return domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return domain.ErrForbidden
	}
	if inv.Status != entity.InvoiceStatusDraft {
		return fmt.Errorf("%w: una factura emitida se anula, no se elimina", domain.ErrConflict)
	}
	return uc.invoiceRepo.Delete(id)
}

func validInvoiceStatus(s string) bool {
	switch s {
	case entity.InvoiceStatusDraft, entity.InvoiceStatusSent, entity.InvoiceStatusPaid, entity.InvoiceStatusCancelled:
		return true
	}
	return false
}

// validStatusTransition ciclo de vida draft → sent → paid. Cualquier estado
// admite anulación; una factura anulada o pagada no vuelve a borrador.
func validStatusTransition(from, to string) bool {
	if to == entity.InvoiceStatusCancelled {
		return from != entity.InvoiceStatusCancelled
	}
	switch from {
	case entity.InvoiceStatusDraft:
		return to == entity.InvoiceStatusSent
	case entity.InvoiceStatusSent:
		return to == entity.InvoiceStatusPaid
	}
	return false
}

// lineItemsFromRows reconstruye las líneas del motor a partir de las filas
// guardadas, para recalcular totales sin que el body traiga items.
func lineItemsFromRows(rows []*entity.InvoiceItem) []domainbilling.LineItem {
	items := make([]domainbilling.LineItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, domainbilling.LineItem{
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			TaxRate:     r.TaxRate,
		})
	}
	return items
}

func buildItemRows(invoiceID string, items []domainbilling.LineItem) []*entity.InvoiceItem {
	rows := make([]*entity.InvoiceItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, &entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   invoiceID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			Subtotal:    domainbilling.LineSubtotal(item).Round(2),
		})
	}
	return rows
}

func buildTaxRows(invoiceID string, taxes []domainbilling.AdditionalTax) []*entity.InvoiceTax {
	rows := make([]*entity.InvoiceTax, 0, len(taxes))
	for _, t := range taxes {
		rows = append(rows, &entity.InvoiceTax{
			ID:           uuid.New().String(),
			InvoiceID:    invoiceID,
			Name:         t.Name,
			Amount:       t.Amount,
			IsPercentage: t.IsPercentage,
		})
	}
	return rows
}

func toInvoiceResponse(inv *entity.Invoice, clientName string, items []*entity.InvoiceItem, taxes []*entity.InvoiceTax) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:          inv.ID,
		CompanyID:   inv.CompanyID,
		ClientID:    inv.ClientID,
		ClientName:  clientName,
		Series:      inv.Series,
		Number:      inv.Number,
		Date:        inv.Date.Format(dateLayout),
		Status:      inv.Status,
		Subtotal:    inv.Subtotal.StringFixed(2),
		Tax:         inv.Tax.StringFixed(2),
		Withholding: inv.Withholding.StringFixed(2),
		Total:       inv.Total.StringFixed(2),
		Notes:       inv.Notes,
		Digest:      inv.Digest,
		Items:       make([]dto.InvoiceItemResponse, 0, len(items)),
		Taxes:       make([]dto.InvoiceTaxResponse, 0, len(taxes)),
	}
	if !inv.DueDate.IsZero() {
		resp.DueDate = inv.DueDate.Format(dateLayout)
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
			contribution = inv.Subtotal.Mul(t.Amount).Div(decimal.NewFromInt(100))
		}
		isRet := domainbilling.IsWithholding(t.Name)
		if isRet {
			contribution = contribution.Abs().Neg() // desglose: retención siempre en negativo
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
