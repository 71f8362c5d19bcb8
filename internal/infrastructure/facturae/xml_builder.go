// Package facturae construye, canonicaliza y firma el XML Facturae 3.2.2
// de una factura emitida.
package facturae

import (
	"bytes"
	"crypto/tls"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturalia/facturas-api/internal/application/billing"
	domainbilling "github.com/facturalia/facturas-api/internal/domain/billing"
	"github.com/facturalia/facturas-api/internal/domain/entity"
)

// Namespaces oficiales Facturae 3.2.2 y firma XMLDSig.
const (
	// Namespace del esquema Facturae 3.2.2
	NsFacturae = "http://www.facturae.gob.es/formato/Versiones/Facturaev3_2_2.xml"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES (para la firma)
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
)

// Códigos de impuesto de la AEAT usados en TaxesOutputs/TaxesWithheld.
const (
	TaxCodeIVA  = "01" // IVA: Impuesto sobre el Valor Añadido
	TaxCodeIRPF = "04" // IRPF: retención del Impuesto sobre la Renta
)

var _ billing.FacturaeBuilder = (*Service)(nil)

// Service implementa billing.FacturaeBuilder: Build genera el XML sin firma,
// Digest calcula la huella canónica y Sign añade la firma XAdES enveloped.
type Service struct {
	cert tls.Certificate
}

// NewService construye el servicio. El certificado puede estar vacío: en ese
// caso Sign devuelve error y la API solo genera XML sin firmar.
func NewService(cert tls.Certificate) *Service {
	return &Service{cert: cert}
}

// Build genera el []byte del documento fe:Facturae según el esquema 3.2.2.
func (s *Service) Build(
	invoice *entity.Invoice,
	company *entity.Company,
	client *entity.Client,
	items []*entity.InvoiceItem,
	taxes []*entity.InvoiceTax,
) ([]byte, error) {
	if invoice == nil || company == nil || client == nil {
		return nil, fmt.Errorf("facturae: faltan invoice, company o client")
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	// Root <fe:Facturae> con Id para la Reference de la firma XAdES.
	root := xml.StartElement{
		Name: xml.Name{Local: "fe:Facturae"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "Id"}, Value: FacturaeElementID},
			{Name: xml.Name{Local: "xmlns:fe"}, Value: NsFacturae},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:xades"}, Value: NsXades},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	s.writeFileHeader(enc, invoice)
	s.writeParties(enc, company, client)
	if err := s.writeInvoices(enc, invoice, items, taxes); err != nil {
		return nil, err
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileHeader: versión del esquema, modalidad individual y lote con los
// importes totales de la factura.
func (s *Service) writeFileHeader(enc *xml.Encoder, invoice *entity.Invoice) {
	start(enc, "FileHeader")
	writeEl(enc, "SchemaVersion", "3.2.2")
	writeEl(enc, "Modality", "I") // individual: una factura por fichero
	writeEl(enc, "InvoiceIssuerType", "EM")

	start(enc, "Batch")
	writeEl(enc, "BatchIdentifier", invoice.Series+invoice.Number)
	writeEl(enc, "InvoicesCount", "1")
	writeAmount(enc, "TotalInvoicesAmount", invoice.Total)
	writeAmount(enc, "TotalOutstandingAmount", invoice.Total)
	writeAmount(enc, "TotalExecutableAmount", invoice.Total)
	writeEl(enc, "InvoiceCurrencyCode", "EUR")
	end(enc, "Batch")

	end(enc, "FileHeader")
}

// writeParties: emisor (SellerParty) y receptor (BuyerParty) con su
// identificación fiscal.
func (s *Service) writeParties(enc *xml.Encoder, company *entity.Company, client *entity.Client) {
	start(enc, "Parties")

	start(enc, "SellerParty")
	s.writeTaxIdentification(enc, company.TaxID)
	start(enc, "LegalEntity")
	writeEl(enc, "CorporateName", company.Name)
	if company.Address != "" {
		start(enc, "AddressInSpain")
		writeEl(enc, "Address", company.Address)
		end(enc, "AddressInSpain")
	}
	end(enc, "LegalEntity")
	end(enc, "SellerParty")

	start(enc, "BuyerParty")
	s.writeTaxIdentification(enc, client.TaxID)
	start(enc, "LegalEntity")
	writeEl(enc, "CorporateName", client.Name)
	if client.Address != "" {
		start(enc, "AddressInSpain")
		writeEl(enc, "Address", client.Address)
		end(enc, "AddressInSpain")
	}
	end(enc, "LegalEntity")
	end(enc, "BuyerParty")

	end(enc, "Parties")
}

func (s *Service) writeTaxIdentification(enc *xml.Encoder, taxID string) {
	start(enc, "TaxIdentification")
	writeEl(enc, "PersonTypeCode", personTypeFromTaxID(taxID))
	writeEl(enc, "ResidenceTypeCode", "R") // residente en España
	writeEl(enc, "TaxIdentificationNumber", taxID)
	end(enc, "TaxIdentification")
}

// writeInvoices: el bloque Invoices con la única factura del lote.
func (s *Service) writeInvoices(enc *xml.Encoder, invoice *entity.Invoice, items []*entity.InvoiceItem, taxes []*entity.InvoiceTax) error {
	start(enc, "Invoices")
	start(enc, "Invoice")

	// Cabecera: número, serie, completa (FC) y original (OO)
	start(enc, "InvoiceHeader")
	writeEl(enc, "InvoiceNumber", invoice.Number)
	if invoice.Series != "" {
		writeEl(enc, "InvoiceSeriesCode", invoice.Series)
	}
	writeEl(enc, "InvoiceDocumentType", "FC")
	writeEl(enc, "InvoiceClass", "OO")
	end(enc, "InvoiceHeader")

	start(enc, "InvoiceIssueData")
	writeEl(enc, "IssueDate", invoice.Date.Format("2006-01-02"))
	writeEl(enc, "InvoiceCurrencyCode", "EUR")
	writeEl(enc, "TaxCurrencyCode", "EUR")
	writeEl(enc, "LanguageName", "es")
	end(enc, "InvoiceIssueData")

	s.writeTaxesOutputs(enc, invoice, items, taxes)
	s.writeTaxesWithheld(enc, invoice)
	s.writeInvoiceTotals(enc, invoice)

	start(enc, "Items")
	for _, it := range items {
		s.writeInvoiceLine(enc, it)
	}
	end(enc, "Items")

	end(enc, "Invoice")
	end(enc, "Invoices")
	return nil
}

// writeTaxesOutputs: IVA repercutido desglosado por tipo impositivo, más los
// impuestos adicionales aditivos.
func (s *Service) writeTaxesOutputs(enc *xml.Encoder, invoice *entity.Invoice, items []*entity.InvoiceItem, taxes []*entity.InvoiceTax) {
	start(enc, "TaxesOutputs")

	// Agrupar líneas por tipo de IVA manteniendo orden de aparición
	type group struct {
		rate decimal.Decimal
		base decimal.Decimal
	}
	var groups []group
	for _, it := range items {
		found := false
		for i := range groups {
			if groups[i].rate.Equal(it.TaxRate) {
				groups[i].base = groups[i].base.Add(it.Subtotal)
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, group{rate: it.TaxRate, base: it.Subtotal})
		}
	}
	for _, g := range groups {
		start(enc, "Tax")
		writeEl(enc, "TaxTypeCode", TaxCodeIVA)
		writeEl(enc, "TaxRate", g.rate.StringFixed(2))
		start(enc, "TaxableBase")
		writeAmount(enc, "TotalAmount", g.base)
		end(enc, "TaxableBase")
		start(enc, "TaxAmount")
		writeAmount(enc, "TotalAmount", g.base.Mul(g.rate).Div(decimal.NewFromInt(100)))
		end(enc, "TaxAmount")
		end(enc, "Tax")
	}

	// Impuestos adicionales aditivos (los de retención van en TaxesWithheld)
	for _, t := range taxes {
		if domainbilling.IsWithholding(t.Name) {
			continue
		}
		amount := t.Amount
		if t.IsPercentage {
			amount = invoice.Subtotal.Mul(t.Amount).Div(decimal.NewFromInt(100))
		}
		start(enc, "Tax")
		writeEl(enc, "TaxTypeCode", TaxCodeIVA)
		writeEl(enc, "TaxRate", "0.00")
		start(enc, "TaxableBase")
		writeAmount(enc, "TotalAmount", invoice.Subtotal)
		end(enc, "TaxableBase")
		start(enc, "TaxAmount")
		writeAmount(enc, "TotalAmount", amount)
		end(enc, "TaxAmount")
		end(enc, "Tax")
	}

	end(enc, "TaxesOutputs")
}

// writeTaxesWithheld: la retención IRPF si la factura la lleva.
func (s *Service) writeTaxesWithheld(enc *xml.Encoder, invoice *entity.Invoice) {
	if invoice.Withholding.IsZero() {
		return
	}
	start(enc, "TaxesWithheld")
	start(enc, "Tax")
	writeEl(enc, "TaxTypeCode", TaxCodeIRPF)
	rate := decimal.Zero
	if invoice.Subtotal.IsPositive() {
		rate = invoice.Withholding.Div(invoice.Subtotal).Mul(decimal.NewFromInt(100)).Round(2)
	}
	writeEl(enc, "TaxRate", rate.StringFixed(2))
	start(enc, "TaxableBase")
	writeAmount(enc, "TotalAmount", invoice.Subtotal)
	end(enc, "TaxableBase")
	start(enc, "TaxAmount")
	writeAmount(enc, "TotalAmount", invoice.Withholding)
	end(enc, "TaxAmount")
	end(enc, "Tax")
	end(enc, "TaxesWithheld")
}

func (s *Service) writeInvoiceTotals(enc *xml.Encoder, invoice *entity.Invoice) {
	start(enc, "InvoiceTotals")
	writeAmount(enc, "TotalGrossAmount", invoice.Subtotal)
	writeAmount(enc, "TotalGrossAmountBeforeTaxes", invoice.Subtotal)
	writeAmount(enc, "TotalTaxOutputs", invoice.Tax)
	writeAmount(enc, "TotalTaxesWithheld", invoice.Withholding)
	writeAmount(enc, "InvoiceTotal", invoice.Subtotal.Add(invoice.Tax))
	writeAmount(enc, "TotalOutstandingAmount", invoice.Total)
	writeAmount(enc, "TotalExecutableAmount", invoice.Total)
	end(enc, "InvoiceTotals")
}

func (s *Service) writeInvoiceLine(enc *xml.Encoder, item *entity.InvoiceItem) {
	start(enc, "InvoiceLine")
	writeEl(enc, "ItemDescription", item.Description)
	writeEl(enc, "Quantity", item.Quantity.String())
	writeEl(enc, "UnitOfMeasure", "01") // unidades
	writeAmount(enc, "UnitPriceWithoutTax", item.UnitPrice)
	writeAmount(enc, "TotalCost", item.Subtotal)
	writeAmount(enc, "GrossAmount", item.Subtotal)

	start(enc, "TaxesOutputs")
	start(enc, "Tax")
	writeEl(enc, "TaxTypeCode", TaxCodeIVA)
	writeEl(enc, "TaxRate", item.TaxRate.StringFixed(2))
	start(enc, "TaxableBase")
	writeAmount(enc, "TotalAmount", item.Subtotal)
	end(enc, "TaxableBase")
	end(enc, "Tax")
	end(enc, "TaxesOutputs")

	end(enc, "InvoiceLine")
}

// ── helpers de serialización ──────────────────────────────────────────────────

func start(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func end(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeEl(enc *xml.Encoder, local, value string) {
	start(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, local)
}

func writeAmount(enc *xml.Encoder, local string, d decimal.Decimal) {
	writeEl(enc, local, d.Round(2).StringFixed(2))
}

// personTypeFromTaxID: F = persona física (NIF empieza por dígito o X/Y/Z),
// J = persona jurídica (CIF empieza por letra de forma societaria).
func personTypeFromTaxID(taxID string) string {
	if taxID == "" {
		return "J"
	}
	c := taxID[0]
	if c >= '0' && c <= '9' {
		return "F"
	}
	switch c {
	case 'X', 'Y', 'Z', 'x', 'y', 'z': // NIE de extranjeros
		return "F"
	}
	return "J"
}
