package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalia/facturas-api/internal/domain/billing"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func item(desc, qty, price, rate string) billing.LineItem {
	return billing.LineItem{
		Description: desc,
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
		TaxRate:     dec(rate),
	}
}

func TestComputeTotals_FacturaVacia(t *testing.T) {
	got := billing.ComputeTotals(nil, nil)

	assert.True(t, got.Subtotal.IsZero(), "subtotal de factura vacía debe ser 0")
	assert.True(t, got.Tax.IsZero(), "tax de factura vacía debe ser 0")
	assert.True(t, got.Withholding.IsZero())
	assert.True(t, got.Total.IsZero(), "total de factura vacía debe ser 0")
}

func TestBaseAmount_SumaIndependienteDelOrden(t *testing.T) {
	a := item("A", "2", "10.50", "21")
	b := item("B", "3", "7", "10")
	c := item("C", "1", "0.01", "0")

	base1 := billing.BaseAmount([]billing.LineItem{a, b, c})
	base2 := billing.BaseAmount([]billing.LineItem{c, a, b})

	assert.True(t, base1.Equal(dec("42.01")), "base = 2×10.50 + 3×7 + 0.01, got %s", base1)
	assert.True(t, base1.Equal(base2), "la base no depende del orden de las líneas")
}

func TestComputeTotals_IVASimple(t *testing.T) {
	items := []billing.LineItem{item("Servicio", "1", "100", "21")}

	got := billing.ComputeTotals(items, nil).Rounded()

	assert.Equal(t, "100.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "21.00", got.Tax.StringFixed(2))
	assert.Equal(t, "121.00", got.Total.StringFixed(2))
}

func TestComputeTotals_ImpuestoAdicionalPorcentual(t *testing.T) {
	items := []billing.LineItem{item("Base", "1", "100", "0")}
	taxes := []billing.AdditionalTax{
		{Name: "IVA adicional", Amount: dec("21"), IsPercentage: true},
	}

	got := billing.ComputeTotals(items, taxes).Rounded()

	assert.Equal(t, "21.00", got.Tax.StringFixed(2))
	assert.Equal(t, "121.00", got.Total.StringFixed(2))
}

// El IRPF resta siempre, sin importar el signo con el que se capturó el
// porcentaje: 15 y -15 producen exactamente el mismo total.
func TestComputeTotals_IRPFIndependienteDelSigno(t *testing.T) {
	items := []billing.LineItem{item("Honorarios", "1", "1000", "0")}

	for _, amount := range []string{"15", "-15"} {
		taxes := []billing.AdditionalTax{
			{Name: "IRPF", Amount: dec(amount), IsPercentage: true},
		}
		got := billing.ComputeTotals(items, taxes).Rounded()

		assert.Equal(t, "150.00", got.Withholding.StringFixed(2), "amount=%s", amount)
		assert.Equal(t, "850.00", got.Total.StringFixed(2), "amount=%s", amount)
		assert.Equal(t, "0.00", got.Tax.StringFixed(2),
			"la retención no forma parte del campo tax (amount=%s)", amount)
	}
}

func TestIsWithholding_DeteccionPorNombre(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"IRPF", true},
		{"irpf 15%", true},
		{"Retención IRPF", true},
		{"retención", true},
		{"retencion", true}, // sin tilde, como aparece en datos antiguos
		{"IVA", false},
		{"Recargo de equivalencia", false},
		{"Gastos de gestión", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, billing.IsWithholding(tt.name), "nombre: %q", tt.name)
	}
}

func TestComputeTotals_ImpuestoFijo(t *testing.T) {
	items := []billing.LineItem{item("Base", "1", "100", "0")}
	taxes := []billing.AdditionalTax{
		{Name: "Gastos de gestión", Amount: dec("25"), IsPercentage: false},
	}

	got := billing.ComputeTotals(items, taxes).Rounded()

	assert.Equal(t, "25.00", got.Tax.StringFixed(2))
	assert.Equal(t, "125.00", got.Total.StringFixed(2))
}

// Un impuesto negativo que NO es retención reduce el total con su signo tal
// cual (descuentos capturados como impuesto adicional).
func TestComputeTotals_ImpuestoNegativoNoRetencion(t *testing.T) {
	items := []billing.LineItem{item("Base", "1", "100", "0")}
	taxes := []billing.AdditionalTax{
		{Name: "Descuento comercial", Amount: dec("-10"), IsPercentage: true},
	}

	got := billing.ComputeTotals(items, taxes).Rounded()

	assert.Equal(t, "-10.00", got.Tax.StringFixed(2))
	assert.Equal(t, "90.00", got.Total.StringFixed(2))
}

// Una retención que supera base+impuestos deja el total negativo y no se
// recorta a cero: es un estado de negocio legítimo.
func TestComputeTotals_TotalNegativoPermitido(t *testing.T) {
	items := []billing.LineItem{item("Base", "1", "100", "0")}
	taxes := []billing.AdditionalTax{{Name: "IRPF", Amount: dec("50"), IsPercentage: true}}
	got := billing.ComputeTotals(items, taxes).Rounded()
	assert.Equal(t, "50.00", got.Withholding.StringFixed(2))
	assert.Equal(t, "50.00", got.Total.StringFixed(2))

	items = []billing.LineItem{item("Base", "1", "10", "0")}
	taxes = []billing.AdditionalTax{{Name: "IRPF", Amount: dec("200"), IsPercentage: true}}
	got = billing.ComputeTotals(items, taxes).Rounded()
	assert.Equal(t, "-10.00", got.Total.StringFixed(2), "el total negativo no debe recortarse a 0")
}

// TaxRate negativo a nivel de línea (retención incrustada en la línea en
// algunos datos antiguos) produce contribución negativa sin recorte.
func TestItemsTax_TasaNegativaNoSeRecorta(t *testing.T) {
	items := []billing.LineItem{
		item("Servicio", "1", "100", "21"),
		item("Retención línea", "1", "100", "-15"),
	}

	tax := billing.ItemsTax(items)

	assert.Equal(t, "6.00", tax.Round(2).StringFixed(2), "21 − 15")
}

func TestComputeTotals_Determinista(t *testing.T) {
	build := func() ([]billing.LineItem, []billing.AdditionalTax) {
		return []billing.LineItem{
				item("Consultoría", "10", "50", "21"),
				item("Licencia", "1", "200", "21"),
			}, []billing.AdditionalTax{
				{Name: "IRPF", Amount: dec("-15"), IsPercentage: true},
			}
	}

	i1, t1 := build()
	i2, t2 := build()
	got1 := billing.ComputeTotals(i1, t1)
	got2 := billing.ComputeTotals(i2, t2)

	assert.True(t, got1.Subtotal.Equal(got2.Subtotal))
	assert.True(t, got1.Tax.Equal(got2.Tax))
	assert.True(t, got1.Withholding.Equal(got2.Withholding))
	assert.True(t, got1.Total.Equal(got2.Total))
}

// Escenario completo: dos líneas al 21% más IRPF -15%.
func TestComputeTotals_EscenarioCompleto(t *testing.T) {
	items := []billing.LineItem{
		item("Consultoría", "10", "50", "21"), // subtotal 500, IVA 105
		item("Licencia", "1", "200", "21"),    // subtotal 200, IVA 42
	}
	taxes := []billing.AdditionalTax{
		{Name: "IRPF", Amount: dec("-15"), IsPercentage: true},
	}

	got := billing.ComputeTotals(items, taxes).Rounded()

	require.Equal(t, "700.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "147.00", got.Tax.StringFixed(2))
	assert.Equal(t, "105.00", got.Withholding.StringFixed(2), "15% de 700")
	assert.Equal(t, "742.00", got.Total.StringFixed(2), "700 + 147 − 105")
}

// El redondeo se aplica una sola vez al final, no por línea: 3 líneas de
// 0.333 × 1 al 0% suman 0.999 → total 1.00, no 0.99.
func TestTotals_RedondeoSoloEnLaFrontera(t *testing.T) {
	items := []billing.LineItem{
		item("a", "1", "0.333", "0"),
		item("b", "1", "0.333", "0"),
		item("c", "1", "0.333", "0"),
	}

	got := billing.ComputeTotals(items, nil)

	assert.Equal(t, "0.999", got.Total.String(), "acumulación interna sin redondear")
	assert.Equal(t, "1.00", got.Rounded().Total.StringFixed(2))
}
