package billing

import (
	"context"

	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con los repos
// de facturación atados a la tx. Si fn retorna error se hace rollback.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		quoteRepo repository.QuoteRepository,
		transactionRepo repository.TransactionRepository,
	) error) error
}

// InvoicePDFGenerator genera la representación gráfica (PDF) de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(
		ctx context.Context,
		invoice *entity.Invoice,
		company *entity.Company,
		client *entity.Client,
		items []*entity.InvoiceItem,
		taxes []*entity.InvoiceTax,
	) ([]byte, error)
}

// FacturaeBuilder construye el XML Facturae 3.2.2 de una factura y su digest
// canónico. Si hay certificado configurado, Sign añade la firma XAdES.
type FacturaeBuilder interface {
	Build(invoice *entity.Invoice, company *entity.Company, client *entity.Client,
		items []*entity.InvoiceItem, taxes []*entity.InvoiceTax) ([]byte, error)
	Digest(xml []byte) (string, error)
	Sign(xml []byte) ([]byte, error)
}
