package repository

import (
	"time"

	"github.com/facturalia/facturas-api/internal/domain/entity"
)

// InvoiceFilter criterios de listado de facturas.
type InvoiceFilter struct {
	Status string     // vacío = todos
	From   *time.Time // fecha mínima (inclusive)
	To     *time.Time // fecha máxima (inclusive)
	Limit  int
	Offset int
}

// InvoiceRepository define el puerto de persistencia para facturas, sus líneas
// y sus impuestos adicionales.
type InvoiceRepository interface {
	Create(invoice *entity.Invoice) error
	CreateItem(item *entity.InvoiceItem) error
	CreateTax(tax *entity.InvoiceTax) error
	Update(invoice *entity.Invoice) error
	GetByID(id string) (*entity.Invoice, error)
	GetItemsByInvoiceID(invoiceID string) ([]*entity.InvoiceItem, error)
	GetTaxesByInvoiceID(invoiceID string) ([]*entity.InvoiceTax, error)
	ListByCompany(companyID string, f InvoiceFilter) ([]*entity.Invoice, error)
	// NextNumber devuelve el siguiente número consecutivo de la serie.
	NextNumber(companyID, series string) (string, error)
	// DeleteItems y DeleteTaxes limpian las líneas antes de reescribirlas en Update.
	DeleteItems(invoiceID string) error
	DeleteTaxes(invoiceID string) error
	Delete(id string) error
}
