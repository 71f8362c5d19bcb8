package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/facturalia/facturas-api/internal/domain"
	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

// FacturaeUseCase genera el XML Facturae 3.2.2 de una factura emitida, calcula
// su digest canónico y, si hay certificado configurado, lo firma (XAdES). El
// XML y el digest se guardan en la propia factura.
type FacturaeUseCase struct {
	invoiceRepo repository.InvoiceRepository
	companyRepo repository.CompanyRepository
	clientRepo  repository.ClientRepository
	builder     FacturaeBuilder
	signEnabled bool
}

// NewFacturaeUseCase construye el caso de uso. signEnabled depende de que la
// configuración traiga ruta de certificado.
func NewFacturaeUseCase(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	clientRepo repository.ClientRepository,
	builder FacturaeBuilder,
	signEnabled bool,
) *FacturaeUseCase {
	return &FacturaeUseCase{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		clientRepo:  clientRepo,
		builder:     builder,
		signEnabled: signEnabled,
	}
}

// GenerateXML construye (y opcionalmente firma) el Facturae de la factura.
// Solo facturas emitidas: un borrador aún puede cambiar.
func (uc *FacturaeUseCase) GenerateXML(ctx context.Context, companyID, invoiceID string) ([]byte, string, error) {
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("facturae: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}
	if inv.Status == entity.InvoiceStatusDraft {
		return nil, "", fmt.Errorf("%w: emita la factura antes de generar el Facturae", domain.ErrConflict)
	}

	// Ya generado: devolver el guardado (el XML de una factura emitida es inmutable)
	if inv.XMLFacturae != "" {
		return []byte(inv.XMLFacturae), facturaeFilename(inv), nil
	}

	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil || company == nil {
		return nil, "", fmt.Errorf("facturae: obtener empresa: %w", err)
	}
	client, err := uc.clientRepo.GetByID(inv.ClientID)
	if err != nil || client == nil {
		return nil, "", fmt.Errorf("facturae: obtener cliente: %w", err)
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(invoiceID)
	if err != nil {
		return nil, "", err
	}
	taxes, err := uc.invoiceRepo.GetTaxesByInvoiceID(invoiceID)
	if err != nil {
		return nil, "", err
	}

	xmlBytes, err := uc.builder.Build(inv, company, client, items, taxes)
	if err != nil {
		return nil, "", fmt.Errorf("facturae: construir XML: %w", err)
	}
	if uc.signEnabled {
		if xmlBytes, err = uc.builder.Sign(xmlBytes); err != nil {
			return nil, "", fmt.Errorf("facturae: firmar XML: %w", err)
		}
	}
	digest, err := uc.builder.Digest(xmlBytes)
	if err != nil {
		return nil, "", fmt.Errorf("facturae: calcular digest: %w", err)
	}

	inv.XMLFacturae = string(xmlBytes)
	inv.Digest = digest
	inv.UpdatedAt = time.Now()
	if err := uc.invoiceRepo.Update(inv); err != nil {
		return nil, "", fmt.Errorf("facturae: guardar XML: %w", err)
	}
	return xmlBytes, facturaeFilename(inv), nil
}

func facturaeFilename(inv *entity.Invoice) string {
	return fmt.Sprintf("facturae_%s%s.xsig.xml", inv.Series, inv.Number)
}
