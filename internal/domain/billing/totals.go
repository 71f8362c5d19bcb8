// Package billing contiene la lógica pura de facturación: cálculo de totales
// (base imponible, IVA, retenciones) y la máquina de estados de envío del
// formulario de factura. Sin dependencias de red ni de persistencia.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem es una línea de factura o presupuesto tal como la edita el usuario.
// TaxRate es un porcentaje (0, 4, 10, 21...); un valor negativo representa una
// retención a nivel de línea y su contribución negativa es intencional.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
}

// AdditionalTax es un impuesto adicional de la factura (IVA adicional, IRPF,
// recargos, gastos fijos). Si IsPercentage, Amount es un porcentaje sobre la
// base imponible; si no, un importe monetario absoluto.
type AdditionalTax struct {
	Name         string
	Amount       decimal.Decimal
	IsPercentage bool
}

// Totals es el resultado del cálculo. Los importes se acumulan sin redondear;
// el redondeo a 2 decimales se aplica solo en Rounded(), en la frontera de
// presentación/persistencia, para no arrastrar error de redondeo entre líneas.
type Totals struct {
	Subtotal    decimal.Decimal // base imponible: Σ cantidad × precio unitario
	Tax         decimal.Decimal // IVA de líneas + impuestos adicionales no-retención
	Withholding decimal.Decimal // retenciones (IRPF), siempre ≥ 0
	Total       decimal.Decimal // Subtotal + Tax − Withholding; puede ser negativo
}

// Rounded devuelve los totales redondeados a 2 decimales (half-up).
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:    t.Subtotal.Round(2),
		Tax:         t.Tax.Round(2),
		Withholding: t.Withholding.Round(2),
		Total:       t.Total.Round(2),
	}
}

// LineSubtotal calcula cantidad × precio unitario de una línea, sin redondear.
func LineSubtotal(item LineItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// BaseAmount suma los subtotales de todas las líneas (la "base imponible").
// Siempre se recalcula desde cantidad × precio; nunca desde un subtotal
// almacenado, para evitar deriva. Lista vacía → 0.
func BaseAmount(items []LineItem) decimal.Decimal {
	base := decimal.Zero
	for _, item := range items {
		base = base.Add(LineSubtotal(item))
	}
	return base
}

// ItemsTax suma el impuesto de cada línea: subtotal × TaxRate / 100.
// Un TaxRate negativo produce una contribución negativa y no se recorta.
func ItemsTax(items []LineItem) decimal.Decimal {
	cien := decimal.NewFromInt(100)
	tax := decimal.Zero
	for _, item := range items {
		tax = tax.Add(LineSubtotal(item).Mul(item.TaxRate).Div(cien))
	}
	return tax
}

// IsWithholding clasifica un impuesto adicional como retención cuando su nombre
// contiene "irpf" o "retención" (sin distinguir mayúsculas). La clasificación
// por nombre prevalece sobre el signo del importe.
func IsWithholding(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "irpf") ||
		strings.Contains(n, "retención") ||
		strings.Contains(n, "retencion")
}

// AdditionalTaxes reparte los impuestos adicionales entre aditivos y retenciones.
// Las retenciones se acumulan en valor absoluto: tanto 15 como -15 de IRPF
// terminan restando del total — el usuario no puede convertir una retención en
// suma (ni doblarla) solo con el signo. Los impuestos no-retención conservan su
// signo tal cual, así que un importe negativo no-IRPF sí reduce el total.
func AdditionalTaxes(taxes []AdditionalTax, base decimal.Decimal) (additional, withholding decimal.Decimal) {
	cien := decimal.NewFromInt(100)
	additional = decimal.Zero
	withholding = decimal.Zero
	for _, t := range taxes {
		contribution := t.Amount
		if t.IsPercentage {
			contribution = base.Mul(t.Amount).Div(cien)
		}
		if IsWithholding(t.Name) {
			withholding = withholding.Add(contribution.Abs())
			continue
		}
		additional = additional.Add(contribution)
	}
	return additional, withholding
}

// ComputeTotals es el punto de entrada del motor de totales. El campo Tax
// agrupa IVA de líneas más impuestos adicionales aditivos; la retención NO
// forma parte de Tax, solo se resta en el paso final. Función pura: la misma
// entrada produce siempre el mismo resultado.
func ComputeTotals(items []LineItem, taxes []AdditionalTax) Totals {
	subtotal := BaseAmount(items)
	itemsTax := ItemsTax(items)
	additional, withholding := AdditionalTaxes(taxes, subtotal)
	tax := itemsTax.Add(additional)
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		Withholding: withholding,
		Total:       subtotal.Add(tax).Sub(withholding),
	}
}
