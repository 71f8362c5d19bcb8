package facturae

import (
	"crypto/tls"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalia/facturas-api/internal/domain/entity"
)

func testInvoiceFixture() (*entity.Invoice, *entity.Company, *entity.Client, []*entity.InvoiceItem, []*entity.InvoiceTax) {
	inv := &entity.Invoice{
		ID:          "inv-1",
		CompanyID:   "company-1",
		ClientID:    "client-1",
		Series:      "A",
		Number:      "0001",
		Date:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Status:      entity.InvoiceStatusSent,
		Subtotal:    decimal.NewFromInt(1000),
		Tax:         decimal.NewFromInt(210),
		Withholding: decimal.NewFromInt(150),
		Total:       decimal.NewFromInt(1060),
	}
	company := &entity.Company{
		ID:      "company-1",
		Name:    "Facturalia Demo SL",
		TaxID:   "B87654321",
		Address: "Calle Mayor 1, Madrid",
	}
	client := &entity.Client{
		ID:        "client-1",
		CompanyID: "company-1",
		Name:      "Laura Pérez",
		TaxID:     "12345678Z",
		Address:   "Avenida del Sol 2, Sevilla",
	}
	items := []*entity.InvoiceItem{
		{
			ID: "item-1", InvoiceID: "inv-1", Description: "Desarrollo web",
			Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100),
			TaxRate: decimal.NewFromInt(21), Subtotal: decimal.NewFromInt(1000),
		},
	}
	taxes := []*entity.InvoiceTax{
		{ID: "tax-1", InvoiceID: "inv-1", Name: "IRPF", Amount: decimal.NewFromInt(15), IsPercentage: true},
	}
	return inv, company, client, items, taxes
}

func TestBuild_EstructuraFacturae(t *testing.T) {
	svc := NewService(tls.Certificate{})
	inv, company, client, items, taxes := testInvoiceFixture()

	out, err := svc.Build(inv, company, client, items, taxes)
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, NsFacturae)
	assert.Contains(t, xml, `Id="facturae-root"`)
	assert.Contains(t, xml, "<SchemaVersion>3.2.2</SchemaVersion>")
	assert.Contains(t, xml, "<BatchIdentifier>A0001</BatchIdentifier>")
	assert.Contains(t, xml, "<InvoiceNumber>0001</InvoiceNumber>")
	assert.Contains(t, xml, "<InvoiceSeriesCode>A</InvoiceSeriesCode>")
	assert.Contains(t, xml, "<TaxIdentificationNumber>B87654321</TaxIdentificationNumber>")
	assert.Contains(t, xml, "<TaxIdentificationNumber>12345678Z</TaxIdentificationNumber>")
	assert.Contains(t, xml, "<TotalGrossAmount>1000.00</TotalGrossAmount>")
	assert.Contains(t, xml, "<TotalTaxesWithheld>150.00</TotalTaxesWithheld>")
	assert.Contains(t, xml, "<TotalOutstandingAmount>1060.00</TotalOutstandingAmount>")
	// IVA al 21 e IRPF con sus códigos de impuesto
	assert.Contains(t, xml, `<TaxTypeCode>`+TaxCodeIVA+`</TaxTypeCode>`)
	assert.Contains(t, xml, `<TaxTypeCode>`+TaxCodeIRPF+`</TaxTypeCode>`)
}

// NIF de persona física → F; CIF de sociedad → J.
func TestBuild_TipoDePersonaPorNIF(t *testing.T) {
	svc := NewService(tls.Certificate{})
	inv, company, client, items, taxes := testInvoiceFixture()

	out, err := svc.Build(inv, company, client, items, taxes)
	require.NoError(t, err)
	xml := string(out)

	// El emisor es sociedad (B...), el cliente persona física (...Z)
	assert.Contains(t, xml, "<PersonTypeCode>J</PersonTypeCode>")
	assert.Contains(t, xml, "<PersonTypeCode>F</PersonTypeCode>")
}

// El digest es el SHA-512 del XML canonicalizado: estable entre invocaciones y
// sensible a cualquier cambio de contenido.
func TestDigest_DeterministaYSensible(t *testing.T) {
	svc := NewService(tls.Certificate{})
	inv, company, client, items, taxes := testInvoiceFixture()

	out, err := svc.Build(inv, company, client, items, taxes)
	require.NoError(t, err)

	d1, err := svc.Digest(out)
	require.NoError(t, err)
	d2, err := svc.Digest(out)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 128, "SHA-512 en hexadecimal")
	assert.Equal(t, strings.ToLower(d1), d1)

	inv.Total = decimal.NewFromInt(2060)
	out2, err := svc.Build(inv, company, client, items, taxes)
	require.NoError(t, err)
	d3, err := svc.Digest(out2)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

// Sin certificado cargado, Sign falla en vez de producir una firma vacía.
func TestSign_SinCertificado(t *testing.T) {
	svc := NewService(tls.Certificate{})
	inv, company, client, items, taxes := testInvoiceFixture()

	out, err := svc.Build(inv, company, client, items, taxes)
	require.NoError(t, err)

	_, err = svc.Sign(out)
	assert.Error(t, err)
}
