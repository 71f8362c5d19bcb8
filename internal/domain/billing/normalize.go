package billing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// La capa de persistencia histórica guardó additional_taxes con forma variable:
// a veces un array JSON, a veces un objeto suelto, a veces todo el valor
// serializado dentro de un string. Este archivo normaliza cualquiera de esas
// formas a []AdditionalTax antes de que el dato llegue al motor de totales,
// cuyo contrato asume una secuencia ya tipada.

// rawAdditionalTax acepta amount numérico o string; is_percentage con ambos
// nombres vistos en los datos guardados.
type rawAdditionalTax struct {
	Name         string          `json:"name"`
	Amount       json.RawMessage `json:"amount"`
	IsPercentage bool            `json:"is_percentage"`
	IsPercent    *bool           `json:"isPercentage,omitempty"`
}

// CoerceDecimal convierte un valor JSON crudo a decimal. Entradas no numéricas,
// vacías o malformadas (el usuario puede estar a mitad de teclear) se degradan
// a 0 en vez de propagar un error: el motor se reinvoca en cada cambio.
func CoerceDecimal(raw json.RawMessage) decimal.Decimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeAdditionalTaxes acepta las tres formas observadas (array, objeto
// suelto, string con JSON embebido) y devuelve la secuencia tipada. Entradas
// vacías o irreconocibles devuelven nil, nunca error.
func NormalizeAdditionalTaxes(data []byte) []AdditionalTax {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}

	// Forma string: el array/objeto viene serializado dentro de un string JSON
	if strings.HasPrefix(s, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil
		}
		return NormalizeAdditionalTaxes([]byte(inner))
	}

	var raws []rawAdditionalTax
	switch {
	case strings.HasPrefix(s, "["):
		if err := json.Unmarshal([]byte(s), &raws); err != nil {
			return nil
		}
	case strings.HasPrefix(s, "{"):
		var one rawAdditionalTax
		if err := json.Unmarshal([]byte(s), &one); err != nil {
			return nil
		}
		raws = []rawAdditionalTax{one}
	default:
		return nil
	}

	out := make([]AdditionalTax, 0, len(raws))
	for _, r := range raws {
		isPct := r.IsPercentage
		if r.IsPercent != nil {
			isPct = *r.IsPercent
		}
		out = append(out, AdditionalTax{
			Name:         r.Name,
			Amount:       CoerceDecimal(r.Amount),
			IsPercentage: isPct,
		})
	}
	return out
}
