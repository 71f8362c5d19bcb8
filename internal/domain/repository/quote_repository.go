package repository

import "github.com/facturalia/facturas-api/internal/domain/entity"

// QuoteRepository define el puerto de persistencia para presupuestos.
type QuoteRepository interface {
	Create(quote *entity.Quote) error
	CreateItem(item *entity.QuoteItem) error
	CreateTax(tax *entity.QuoteTax) error
	Update(quote *entity.Quote) error
	GetByID(id string) (*entity.Quote, error)
	GetItemsByQuoteID(quoteID string) ([]*entity.QuoteItem, error)
	GetTaxesByQuoteID(quoteID string) ([]*entity.QuoteTax, error)
	ListByCompany(companyID string, status string, limit, offset int) ([]*entity.Quote, error)
	DeleteItems(quoteID string) error
	DeleteTaxes(quoteID string) error
	Delete(id string) error
}
