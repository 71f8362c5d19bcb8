package billing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalia/facturas-api/internal/domain/billing"
)

func TestCoerceDecimal_EntradasInvalidasVanACero(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"número", `12.5`, "12.5"},
		{"número como string", `"12.5"`, "12.5"},
		{"negativo", `-15`, "-15"},
		{"texto", `"abc"`, "0"},
		{"vacío", `""`, "0"},
		{"null", `null`, "0"},
		{"nada", ``, "0"},
		{"a medio teclear", `"12."`, "0"},
		{"espacios", `"  7 "`, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.CoerceDecimal(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNormalizeAdditionalTaxes_Array(t *testing.T) {
	data := `[{"name":"IVA","amount":21,"is_percentage":true},{"name":"IRPF","amount":"-15","is_percentage":true}]`

	got := billing.NormalizeAdditionalTaxes([]byte(data))

	require.Len(t, got, 2)
	assert.Equal(t, "IVA", got[0].Name)
	assert.Equal(t, "21", got[0].Amount.String())
	assert.True(t, got[0].IsPercentage)
	assert.Equal(t, "-15", got[1].Amount.String())
}

func TestNormalizeAdditionalTaxes_ObjetoSuelto(t *testing.T) {
	data := `{"name":"IRPF","amount":15,"is_percentage":true}`

	got := billing.NormalizeAdditionalTaxes([]byte(data))

	require.Len(t, got, 1)
	assert.Equal(t, "IRPF", got[0].Name)
}

// Algunos registros antiguos guardaron el array serializado dentro de un string.
func TestNormalizeAdditionalTaxes_StringConJSONEmbebido(t *testing.T) {
	data := `"[{\"name\":\"IVA\",\"amount\":21,\"is_percentage\":true}]"`

	got := billing.NormalizeAdditionalTaxes([]byte(data))

	require.Len(t, got, 1)
	assert.Equal(t, "IVA", got[0].Name)
	assert.Equal(t, "21", got[0].Amount.String())
}

func TestNormalizeAdditionalTaxes_AliasCamelCase(t *testing.T) {
	data := `[{"name":"IVA","amount":10,"isPercentage":true}]`

	got := billing.NormalizeAdditionalTaxes([]byte(data))

	require.Len(t, got, 1)
	assert.True(t, got[0].IsPercentage)
}

func TestNormalizeAdditionalTaxes_BasuraDevuelveNil(t *testing.T) {
	for _, data := range []string{"", "null", "esto no es json", "[{corrupto"} {
		assert.Nil(t, billing.NormalizeAdditionalTaxes([]byte(data)), "entrada: %q", data)
	}
}

// Importe no numérico dentro de un impuesto: se coacciona a 0, el resto del
// array sobrevive.
func TestNormalizeAdditionalTaxes_ImporteInvalidoACero(t *testing.T) {
	data := `[{"name":"IRPF","amount":"abc","is_percentage":true},{"name":"IVA","amount":21,"is_percentage":true}]`

	got := billing.NormalizeAdditionalTaxes([]byte(data))

	require.Len(t, got, 2)
	assert.True(t, got[0].Amount.IsZero())
	assert.Equal(t, "21", got[1].Amount.String())
}
