package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/facturalia/facturas-api/internal/domain"
	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, company_id, client_id, series, number, date, due_date, status,
	subtotal, tax, withholding, total, notes, COALESCE(xml_facturae, ''), COALESCE(digest, ''), created_at, updated_at`

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, company_id, client_id, series, number, date, due_date, status,
			subtotal, tax, withholding, total, notes, xml_facturae, digest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID, invoice.CompanyID, invoice.ClientID, invoice.Series, invoice.Number,
		invoice.Date, invoice.DueDate, invoice.Status,
		invoice.Subtotal, invoice.Tax, invoice.Withholding, invoice.Total,
		invoice.Notes, nullIfEmpty(invoice.XMLFacturae), nullIfEmpty(invoice.Digest),
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número de factura ya existe", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la factura.
func (r *InvoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, tax_rate, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice,
		item.TaxRate, item.Subtotal,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// CreateTax persiste un impuesto adicional de la factura.
func (r *InvoiceRepo) CreateTax(tax *entity.InvoiceTax) error {
	if tax.ID == "" {
		tax.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_taxes (id, invoice_id, name, amount, is_percentage)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query,
		tax.ID, tax.InvoiceID, tax.Name, tax.Amount, tax.IsPercentage,
	)
	if err != nil {
		return fmt.Errorf("insert invoice tax: %w", err)
	}
	return nil
}

// Update actualiza la cabecera de la factura.
func (r *InvoiceRepo) Update(invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET client_id    = $2,
		    date         = $3,
		    due_date     = $4,
		    status       = $5,
		    subtotal     = $6,
		    tax          = $7,
		    withholding  = $8,
		    total        = $9,
		    notes        = $10,
		    xml_facturae = $11,
		    digest       = $12,
		    updated_at   = $13
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID, invoice.ClientID, invoice.Date, invoice.DueDate, invoice.Status,
		invoice.Subtotal, invoice.Tax, invoice.Withholding, invoice.Total,
		invoice.Notes, nullIfEmpty(invoice.XMLFacturae), nullIfEmpty(invoice.Digest),
		invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID. Devuelve (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	var inv entity.Invoice
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.ClientID, &inv.Series, &inv.Number,
		&inv.Date, &inv.DueDate, &inv.Status,
		&inv.Subtotal, &inv.Tax, &inv.Withholding, &inv.Total,
		&inv.Notes, &inv.XMLFacturae, &inv.Digest,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

// GetItemsByInvoiceID devuelve las líneas de una factura.
func (r *InvoiceRepo) GetItemsByInvoiceID(invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, tax_rate, subtotal
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	var items []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TaxRate, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// GetTaxesByInvoiceID devuelve los impuestos adicionales de una factura.
func (r *InvoiceRepo) GetTaxesByInvoiceID(invoiceID string) ([]*entity.InvoiceTax, error) {
	query := `
		SELECT id, invoice_id, name, amount, is_percentage
		FROM invoice_taxes WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice taxes: %w", err)
	}
	defer rows.Close()

	var taxes []*entity.InvoiceTax
	for rows.Next() {
		var t entity.InvoiceTax
		if err := rows.Scan(&t.ID, &t.InvoiceID, &t.Name, &t.Amount, &t.IsPercentage); err != nil {
			return nil, fmt.Errorf("scan invoice tax: %w", err)
		}
		taxes = append(taxes, &t)
	}
	return taxes, rows.Err()
}

// ListByCompany lista facturas de una empresa aplicando el filtro.
func (r *InvoiceRepo) ListByCompany(companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1`
	args := []any{companyID}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC, number DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.CompanyID, &inv.ClientID, &inv.Series, &inv.Number,
			&inv.Date, &inv.DueDate, &inv.Status,
			&inv.Subtotal, &inv.Tax, &inv.Withholding, &inv.Total,
			&inv.Notes, &inv.XMLFacturae, &inv.Digest,
			&inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, &inv)
	}
	return list, rows.Err()
}

// NextNumber devuelve el siguiente número consecutivo de la serie, con cero
// padding a 4 dígitos. Los números libres que el usuario haya tecleado (p. ej.
// "INV-7") no cuentan para el consecutivo: el filtro ~ evita que el cast a int
// reviente la consulta. El número queda reservado al insertarse la factura; si
// dos peticiones concurrentes obtienen el mismo, el constraint único de
// (company_id, series, number) hace fallar la segunda.
func (r *InvoiceRepo) NextNumber(companyID, series string) (string, error) {
	query := `
		SELECT COALESCE(MAX(number::int), 0) + 1
		FROM invoices
		WHERE company_id = $1 AND series = $2 AND number ~ '^[0-9]+$'`
	var next int
	if err := r.q.QueryRow(context.Background(), query, companyID, series).Scan(&next); err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("%04d", next), nil
}

// DeleteItems limpia las líneas antes de reescribirlas en Update.
func (r *InvoiceRepo) DeleteItems(invoiceID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	return nil
}

// DeleteTaxes limpia los impuestos adicionales antes de reescribirlos en Update.
func (r *InvoiceRepo) DeleteTaxes(invoiceID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM invoice_taxes WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("delete invoice taxes: %w", err)
	}
	return nil
}

// Delete elimina una factura (las líneas e impuestos caen por ON DELETE CASCADE).
func (r *InvoiceRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}
