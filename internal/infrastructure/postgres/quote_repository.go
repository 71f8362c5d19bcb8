package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/facturalia/facturas-api/internal/domain"
	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

var _ repository.QuoteRepository = (*QuoteRepo)(nil)

// QuoteRepo implementación de QuoteRepository (usable con pool o tx).
type QuoteRepo struct {
	q Querier
}

// NewQuoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuoteRepository(q Querier) *QuoteRepo {
	return &QuoteRepo{q: q}
}

const quoteColumns = `id, company_id, client_id, number, date, valid_until, status,
	subtotal, tax, withholding, total, notes, COALESCE(invoice_id, ''), created_at, updated_at`

func scanQuote(row interface{ Scan(dest ...any) error }) (*entity.Quote, error) {
	var q entity.Quote
	err := row.Scan(
		&q.ID, &q.CompanyID, &q.ClientID, &q.Number, &q.Date, &q.ValidUntil, &q.Status,
		&q.Subtotal, &q.Tax, &q.Withholding, &q.Total, &q.Notes, &q.InvoiceID,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create persiste la cabecera del presupuesto.
func (r *QuoteRepo) Create(quote *entity.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	query := `
		INSERT INTO quotes (id, company_id, client_id, number, date, valid_until, status,
			subtotal, tax, withholding, total, notes, invoice_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		quote.ID, quote.CompanyID, quote.ClientID, quote.Number,
		quote.Date, quote.ValidUntil, quote.Status,
		quote.Subtotal, quote.Tax, quote.Withholding, quote.Total,
		quote.Notes, nullIfEmpty(quote.InvoiceID),
		quote.CreatedAt, quote.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número de presupuesto ya existe", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// CreateItem persiste una línea del presupuesto.
func (r *QuoteRepo) CreateItem(item *entity.QuoteItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO quote_items (id, quote_id, description, quantity, unit_price, tax_rate, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.QuoteID, item.Description, item.Quantity, item.UnitPrice,
		item.TaxRate, item.Subtotal,
	)
	if err != nil {
		return fmt.Errorf("insert quote item: %w", err)
	}
	return nil
}

// CreateTax persiste un impuesto adicional del presupuesto.
func (r *QuoteRepo) CreateTax(tax *entity.QuoteTax) error {
	if tax.ID == "" {
		tax.ID = uuid.New().String()
	}
	query := `
		INSERT INTO quote_taxes (id, quote_id, name, amount, is_percentage)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query,
		tax.ID, tax.QuoteID, tax.Name, tax.Amount, tax.IsPercentage,
	)
	if err != nil {
		return fmt.Errorf("insert quote tax: %w", err)
	}
	return nil
}

// Update actualiza la cabecera del presupuesto.
func (r *QuoteRepo) Update(quote *entity.Quote) error {
	query := `
		UPDATE quotes
		SET client_id   = $2,
		    date        = $3,
		    valid_until = $4,
		    status      = $5,
		    subtotal    = $6,
		    tax         = $7,
		    withholding = $8,
		    total       = $9,
		    notes       = $10,
		    invoice_id  = $11,
		    updated_at  = $12
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		quote.ID, quote.ClientID, quote.Date, quote.ValidUntil, quote.Status,
		quote.Subtotal, quote.Tax, quote.Withholding, quote.Total,
		quote.Notes, nullIfEmpty(quote.InvoiceID), quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	return nil
}

// GetByID obtiene un presupuesto por ID. Devuelve (nil, nil) si no existe.
func (r *QuoteRepo) GetByID(id string) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	q, err := scanQuote(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return q, nil
}

// GetItemsByQuoteID devuelve las líneas de un presupuesto.
func (r *QuoteRepo) GetItemsByQuoteID(quoteID string) ([]*entity.QuoteItem, error) {
	query := `
		SELECT id, quote_id, description, quantity, unit_price, tax_rate, subtotal
		FROM quote_items WHERE quote_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("list quote items: %w", err)
	}
	defer rows.Close()

	var items []*entity.QuoteItem
	for rows.Next() {
		var it entity.QuoteItem
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TaxRate, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan quote item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// GetTaxesByQuoteID devuelve los impuestos adicionales de un presupuesto.
func (r *QuoteRepo) GetTaxesByQuoteID(quoteID string) ([]*entity.QuoteTax, error) {
	query := `
		SELECT id, quote_id, name, amount, is_percentage
		FROM quote_taxes WHERE quote_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("list quote taxes: %w", err)
	}
	defer rows.Close()

	var taxes []*entity.QuoteTax
	for rows.Next() {
		var t entity.QuoteTax
		if err := rows.Scan(&t.ID, &t.QuoteID, &t.Name, &t.Amount, &t.IsPercentage); err != nil {
			return nil, fmt.Errorf("scan quote tax: %w", err)
		}
		taxes = append(taxes, &t)
	}
	return taxes, rows.Err()
}

// ListByCompany lista presupuestos de una empresa, opcionalmente por estado.
func (r *QuoteRepo) ListByCompany(companyID string, status string, limit, offset int) ([]*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE company_id = $1`
	args := []any{companyID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var list []*entity.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// DeleteItems limpia las líneas antes de reescribirlas en Update.
func (r *QuoteRepo) DeleteItems(quoteID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM quote_items WHERE quote_id = $1`, quoteID)
	if err != nil {
		return fmt.Errorf("delete quote items: %w", err)
	}
	return nil
}

// DeleteTaxes limpia los impuestos adicionales antes de reescribirlos en Update.
func (r *QuoteRepo) DeleteTaxes(quoteID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM quote_taxes WHERE quote_id = $1`, quoteID)
	if err != nil {
		return fmt.Errorf("delete quote taxes: %w", err)
	}
	return nil
}

// Delete elimina un presupuesto (líneas e impuestos caen por ON DELETE CASCADE).
func (r *QuoteRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	return nil
}
