package billing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

// Fakes en memoria para los tests de los use cases. Implementan los puertos
// de repositorio sin tocar PostgreSQL.

type fakeInvoiceRepo struct {
	invoices map[string]*entity.Invoice
	items    map[string][]*entity.InvoiceItem
	taxes    map[string][]*entity.InvoiceTax
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: map[string]*entity.Invoice{},
		items:    map[string][]*entity.InvoiceItem{},
		taxes:    map[string][]*entity.InvoiceTax{},
	}
}

func (r *fakeInvoiceRepo) Create(inv *entity.Invoice) error {
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	cp := *item
	r.items[item.InvoiceID] = append(r.items[item.InvoiceID], &cp)
	return nil
}

func (r *fakeInvoiceRepo) CreateTax(tax *entity.InvoiceTax) error {
	cp := *tax
	r.taxes[tax.InvoiceID] = append(r.taxes[tax.InvoiceID], &cp)
	return nil
}

func (r *fakeInvoiceRepo) Update(inv *entity.Invoice) error {
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetItemsByInvoiceID(invoiceID string) ([]*entity.InvoiceItem, error) {
	return r.items[invoiceID], nil
}

func (r *fakeInvoiceRepo) GetTaxesByInvoiceID(invoiceID string) ([]*entity.InvoiceTax, error) {
	return r.taxes[invoiceID], nil
}

func (r *fakeInvoiceRepo) ListByCompany(companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// NextNumber imita al repositorio de Postgres: MAX sobre los números
// puramente numéricos de la serie; los números libres no cuentan.
func (r *fakeInvoiceRepo) NextNumber(companyID, series string) (string, error) {
	max := 0
	for _, inv := range r.invoices {
		if inv.CompanyID != companyID || inv.Series != series {
			continue
		}
		n, err := strconv.Atoi(inv.Number)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%04d", max+1), nil
}

func (r *fakeInvoiceRepo) DeleteItems(invoiceID string) error {
	delete(r.items, invoiceID)
	return nil
}

func (r *fakeInvoiceRepo) DeleteTaxes(invoiceID string) error {
	delete(r.taxes, invoiceID)
	return nil
}

func (r *fakeInvoiceRepo) Delete(id string) error {
	delete(r.invoices, id)
	delete(r.items, id)
	delete(r.taxes, id)
	return nil
}

type fakeClientRepo struct {
	clients map[string]*entity.Client
}

func newFakeClientRepo(clients ...*entity.Client) *fakeClientRepo {
	r := &fakeClientRepo{clients: map[string]*entity.Client{}}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *fakeClientRepo) Create(c *entity.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *fakeClientRepo) GetByID(id string) (*entity.Client, error) {
	return r.clients[id], nil
}

func (r *fakeClientRepo) GetByCompanyAndTaxID(companyID, taxID string) (*entity.Client, error) {
	for _, c := range r.clients {
		if c.CompanyID == companyID && c.TaxID == taxID {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeClientRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Client, error) {
	var out []*entity.Client
	for _, c := range r.clients {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClientRepo) Update(c *entity.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *fakeClientRepo) Delete(id string) error {
	delete(r.clients, id)
	return nil
}

type fakeQuoteRepo struct {
	quotes map[string]*entity.Quote
	items  map[string][]*entity.QuoteItem
	taxes  map[string][]*entity.QuoteTax
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{
		quotes: map[string]*entity.Quote{},
		items:  map[string][]*entity.QuoteItem{},
		taxes:  map[string][]*entity.QuoteTax{},
	}
}

func (r *fakeQuoteRepo) Create(q *entity.Quote) error {
	cp := *q
	r.quotes[q.ID] = &cp
	return nil
}

func (r *fakeQuoteRepo) CreateItem(item *entity.QuoteItem) error {
	cp := *item
	r.items[item.QuoteID] = append(r.items[item.QuoteID], &cp)
	return nil
}

func (r *fakeQuoteRepo) CreateTax(tax *entity.QuoteTax) error {
	cp := *tax
	r.taxes[tax.QuoteID] = append(r.taxes[tax.QuoteID], &cp)
	return nil
}

func (r *fakeQuoteRepo) Update(q *entity.Quote) error {
	cp := *q
	r.quotes[q.ID] = &cp
	return nil
}

func (r *fakeQuoteRepo) GetByID(id string) (*entity.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuoteRepo) GetItemsByQuoteID(quoteID string) ([]*entity.QuoteItem, error) {
	return r.items[quoteID], nil
}

func (r *fakeQuoteRepo) GetTaxesByQuoteID(quoteID string) ([]*entity.QuoteTax, error) {
	return r.taxes[quoteID], nil
}

func (r *fakeQuoteRepo) ListByCompany(companyID, status string, limit, offset int) ([]*entity.Quote, error) {
	var out []*entity.Quote
	for _, q := range r.quotes {
		if q.CompanyID != companyID {
			continue
		}
		if status != "" && q.Status != status {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *fakeQuoteRepo) DeleteItems(quoteID string) error {
	delete(r.items, quoteID)
	return nil
}

func (r *fakeQuoteRepo) DeleteTaxes(quoteID string) error {
	delete(r.taxes, quoteID)
	return nil
}

func (r *fakeQuoteRepo) Delete(id string) error {
	delete(r.quotes, id)
	return nil
}

type fakeTransactionRepo struct {
	txs map[string]*entity.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txs: map[string]*entity.Transaction{}}
}

func (r *fakeTransactionRepo) Create(tx *entity.Transaction) error {
	cp := *tx
	r.txs[tx.ID] = &cp
	return nil
}

func (r *fakeTransactionRepo) GetByID(id string) (*entity.Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (r *fakeTransactionRepo) ListByCompany(companyID string, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, tx := range r.txs {
		if tx.CompanyID == companyID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) Update(tx *entity.Transaction) error {
	cp := *tx
	r.txs[tx.ID] = &cp
	return nil
}

func (r *fakeTransactionRepo) Delete(id string) error {
	delete(r.txs, id)
	return nil
}

// fakeTxRunner ejecuta fn directamente sobre los fakes, sin transacción real.
type fakeTxRunner struct {
	invoiceRepo     *fakeInvoiceRepo
	quoteRepo       *fakeQuoteRepo
	transactionRepo *fakeTransactionRepo
}

func (r *fakeTxRunner) RunBilling(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	quoteRepo repository.QuoteRepository,
	transactionRepo repository.TransactionRepository,
) error) error {
	return fn(r.invoiceRepo, r.quoteRepo, r.transactionRepo)
}
