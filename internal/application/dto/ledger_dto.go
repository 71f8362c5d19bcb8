package dto

// LedgerQuery filtros del libro de registros (query params).
type LedgerQuery struct {
	From string `query:"from"` // YYYY-MM-DD, vacío = sin límite
	To   string `query:"to"`
	Type string `query:"type"` // income, expense o vacío
}

// LedgerRowResponse una fila del libro de registros. Importes con 2 decimales
// fijos; IRPF se muestra con signo negativo.
type LedgerRowResponse struct {
	Date    string `json:"date"`
	Type    string `json:"type"`    // invoice, income, expense
	Concept string `json:"concept"` // "Factura A-0001 — Cliente" o concepto del movimiento
	Base    string `json:"base"`
	IVA     string `json:"iva"`
	IRPF    string `json:"irpf"`
	Total   string `json:"total"`
}

// LedgerResponse libro completo con totales agregados.
type LedgerResponse struct {
	From       string              `json:"from,omitempty"`
	To         string              `json:"to,omitempty"`
	Rows       []LedgerRowResponse `json:"rows"`
	TotalBase  string              `json:"total_base"`
	TotalIVA   string              `json:"total_iva"`
	TotalIRPF  string              `json:"total_irpf"`
	TotalTotal string              `json:"total"`
}
