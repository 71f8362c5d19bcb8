package billing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	domainbilling "github.com/facturalia/facturas-api/internal/domain/billing"
	"github.com/facturalia/facturas-api/internal/domain/entity"
)

const (
	ucCompanyID = "company-1"
	ucClientID  = "client-1"
)

func newInvoiceUseCaseForTest() (*InvoiceUseCase, *fakeInvoiceRepo, *SessionUseCase) {
	invoiceRepo := newFakeInvoiceRepo()
	clientRepo := newFakeClientRepo(&entity.Client{
		ID:        ucClientID,
		CompanyID: ucCompanyID,
		Name:      "Estudio Mérida SL",
		TaxID:     "B12345678",
	})
	sessions := NewSessionUseCase()
	runner := &fakeTxRunner{
		invoiceRepo:     invoiceRepo,
		quoteRepo:       newFakeQuoteRepo(),
		transactionRepo: newFakeTransactionRepo(),
	}
	uc := NewInvoiceUseCase(runner, invoiceRepo, clientRepo, sessions)
	return uc, invoiceRepo, sessions
}

func item(desc, qty, price, rate string) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{
		Description: desc,
		Quantity:    json.RawMessage(qty),
		UnitPrice:   json.RawMessage(price),
		TaxRate:     json.RawMessage(rate),
	}
}

// El caso típico de un autónomo: una línea al 21% de IVA con retención de
// IRPF del 15% como impuesto adicional. Los totales los calcula el servidor.
func TestCreateInvoice_TotalesConIRPF(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	resp, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Date:     "2026-01-15",
		Items: []dto.InvoiceItemRequest{
			item("Desarrollo web", `10`, `"100"`, `21`),
		},
		AdditionalTaxes: json.RawMessage(`[{"name":"IRPF","amount":-15,"isPercentage":true}]`),
	})
	require.NoError(t, err)

	assert.Equal(t, "1000.00", resp.Subtotal)
	assert.Equal(t, "210.00", resp.Tax)
	assert.Equal(t, "150.00", resp.Withholding)
	assert.Equal(t, "1060.00", resp.Total) // 1000 + 210 - 150
	assert.Equal(t, "0001", resp.Number, "sin número explícito se asigna el consecutivo de la serie")
	assert.Equal(t, entity.InvoiceStatusDraft, resp.Status)
}

// El IRPF se detecta por nombre, no por signo: enviado en positivo resta igual.
func TestCreateInvoice_IRPFPositivoRestaIgual(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	resp, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items: []dto.InvoiceItemRequest{
			item("Consultoría", `1`, `1000`, `21`),
		},
		AdditionalTaxes: json.RawMessage(`[{"name":"Retención IRPF","amount":15,"isPercentage":true}]`),
	})
	require.NoError(t, err)

	assert.Equal(t, "150.00", resp.Withholding)
	assert.Equal(t, "1060.00", resp.Total)
}

// additional_taxes llega a veces como objeto único o como string con JSON
// embebido; la frontera lo normaliza en los tres casos.
func TestCreateInvoice_ImpuestosAdicionalesFormaVariable(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	for name, raw := range map[string]string{
		"objeto": `{"name":"IRPF","amount":15,"isPercentage":true}`,
		"string": `"[{\"name\":\"IRPF\",\"amount\":15,\"isPercentage\":true}]"`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
				ClientID:        ucClientID,
				Series:          "B",
				Items:           []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `0`)},
				AdditionalTaxes: json.RawMessage(raw),
			})
			require.NoError(t, err)
			assert.Equal(t, "15.00", resp.Withholding)
			assert.Equal(t, "85.00", resp.Total)
		})
	}
}

// Basura a medio teclear en cantidad se coacciona a 0 y la validación de
// negocio la rechaza antes de tocar la base de datos.
func TestCreateInvoice_CantidadBasuraRechazada(t *testing.T) {
	uc, repo, _ := newInvoiceUseCaseForTest()

	_, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `"12,,3"`, `100`, `21`)},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, repo.invoices, "no debe persistirse nada")
}

// Con un diálogo hijo abierto en la sesión, el envío se rechaza en el servidor.
func TestCreateInvoice_SesionConDialogoAbiertoBloquea(t *testing.T) {
	uc, repo, sessions := newInvoiceUseCaseForTest()

	sess, err := sessions.Open()
	require.NoError(t, err)
	_, err = sessions.OpenDialog(sess.ID)
	require.NoError(t, err)

	_, err = uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID:  ucClientID,
		Series:    "A",
		Items:     []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
		SessionID: sess.ID,
	})
	require.ErrorIs(t, err, domainbilling.ErrSubmitBlocked)
	assert.Empty(t, repo.invoices)

	// Cerrado el diálogo, el mismo envío pasa.
	_, err = sessions.CloseDialog(sess.ID)
	require.NoError(t, err)
	_, err = uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID:  ucClientID,
		Series:    "A",
		Items:     []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
		SessionID: sess.ID,
	})
	require.NoError(t, err)
	assert.Len(t, repo.invoices, 1)
}

func TestCreateInvoice_ClienteDeOtraEmpresa(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	_, err := uc.CreateInvoice(context.Background(), "otra-empresa", dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Cada factura de la misma serie recibe el siguiente consecutivo.
func TestCreateInvoice_NumeracionConsecutivaPorSerie(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	mk := func(series string) string {
		resp, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
			ClientID: ucClientID,
			Series:   series,
			Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
		})
		require.NoError(t, err)
		return resp.Number
	}

	assert.Equal(t, "0001", mk("A"))
	assert.Equal(t, "0002", mk("A"))
	assert.Equal(t, "0001", mk("B"), "cada serie numera por su cuenta")
}

func TestUpdateInvoice_RecalculaTotales(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	created, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	require.NoError(t, err)

	updated, err := uc.UpdateInvoice(context.Background(), ucCompanyID, created.ID, dto.UpdateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{
			item("Servicio", `2`, `100`, `21`),
			item("Hosting", `1`, `"50"`, `21`),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "250.00", updated.Subtotal)
	assert.Equal(t, "52.50", updated.Tax)
	assert.Equal(t, "302.50", updated.Total)
	assert.Len(t, updated.Items, 2, "las líneas se reescriben, no se acumulan")
}

// Una factura emitida no admite cambios de contenido, solo de estado.
func TestUpdateInvoice_EmitidaSoloCambiaEstado(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	created, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	require.NoError(t, err)

	_, err = uc.UpdateInvoice(context.Background(), ucCompanyID, created.ID, dto.UpdateInvoiceRequest{
		Status: entity.InvoiceStatusSent,
	})
	require.NoError(t, err)

	_, err = uc.UpdateInvoice(context.Background(), ucCompanyID, created.ID, dto.UpdateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{item("Otra cosa", `1`, `999`, `21`)},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	resp, err := uc.UpdateInvoice(context.Background(), ucCompanyID, created.ID, dto.UpdateInvoiceRequest{
		Status: entity.InvoiceStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, resp.Status)
}

func TestDeleteInvoice_SoloBorradores(t *testing.T) {
	uc, repo, _ := newInvoiceUseCaseForTest()

	created, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	require.NoError(t, err)

	_, err = uc.UpdateInvoice(context.Background(), ucCompanyID, created.ID, dto.UpdateInvoiceRequest{
		Status: entity.InvoiceStatusSent,
	})
	require.NoError(t, err)

	err = uc.DeleteInvoice(context.Background(), ucCompanyID, created.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "una emitida se anula, no se borra")
	assert.Len(t, repo.invoices, 1)
}

// Un body solo con additional_taxes también reescribe los impuestos y
// recalcula totales sobre las líneas guardadas.
func TestUpdateInvoice_SoloImpuestosRecalcula(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	created, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID:        ucClientID,
		Series:          "A",
		Items:           []dto.InvoiceItemRequest{item("Desarrollo web", `10`, `100`, `21`)},
		AdditionalTaxes: json.RawMessage(`[{"name":"IRPF","amount":15,"isPercentage":true}]`),
	})
	require.NoError(t, err)
	require.Equal(t, "1060.00", created.Total)

	updated, err := uc.UpdateInvoice(context.Background(), ucCompanyID, created.ID, dto.UpdateInvoiceRequest{
		AdditionalTaxes: json.RawMessage(`[{"name":"IRPF","amount":7,"isPercentage":true}]`),
	})
	require.NoError(t, err)

	assert.Equal(t, "1000.00", updated.Subtotal)
	assert.Equal(t, "70.00", updated.Withholding)
	assert.Equal(t, "1140.00", updated.Total) // 1000 + 210 - 70
	assert.Len(t, updated.Items, 1, "las líneas guardadas no se tocan")
	require.Len(t, updated.Taxes, 1)
	assert.Equal(t, "-70.00", updated.Taxes[0].Contribution)
}

// Un array vacío de additional_taxes elimina los impuestos guardados.
func TestUpdateInvoice_ImpuestosVaciadosRecalcula(t *testing.T) {
	uc, repo, _ := newInvoiceUseCaseForTest()

	created, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID:        ucClientID,
		Series:          "A",
		Items:           []dto.InvoiceItemRequest{item("Desarrollo web", `10`, `100`, `21`)},
		AdditionalTaxes: json.RawMessage(`[{"name":"IRPF","amount":15,"isPercentage":true}]`),
	})
	require.NoError(t, err)

	updated, err := uc.UpdateInvoice(context.Background(), ucCompanyID, created.ID, dto.UpdateInvoiceRequest{
		AdditionalTaxes: json.RawMessage(`[]`),
	})
	require.NoError(t, err)

	assert.Equal(t, "0.00", updated.Withholding)
	assert.Equal(t, "1210.00", updated.Total)
	stored, _ := repo.GetTaxesByInvoiceID(created.ID)
	assert.Empty(t, stored)
}

// Un número libre tecleado por el usuario no participa del consecutivo ni
// rompe la numeración automática de la serie.
func TestCreateInvoice_NumeroLibreNoRompeNumeracion(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	manual, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Number:   "INV-7",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-7", manual.Number)

	auto1, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "0001", auto1.Number)

	auto2, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "0002", auto2.Number)
}

// El ciclo de vida es draft → sent → paid, con anulación desde cualquier
// estado; una pagada o anulada no vuelve a borrador.
func TestUpdateInvoice_TransicionesDeEstado(t *testing.T) {
	uc, _, _ := newInvoiceUseCaseForTest()

	setStatus := func(id, status string) error {
		_, err := uc.UpdateInvoice(context.Background(), ucCompanyID, id, dto.UpdateInvoiceRequest{
			Status: status,
		})
		return err
	}

	created, err := uc.CreateInvoice(context.Background(), ucCompanyID, dto.CreateInvoiceRequest{
		ClientID: ucClientID,
		Series:   "A",
		Items:    []dto.InvoiceItemRequest{item("Servicio", `1`, `100`, `21`)},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, setStatus(created.ID, entity.InvoiceStatusPaid), domainbilling.ErrInvalidTransition,
		"un borrador no pasa directamente a pagada")

	require.NoError(t, setStatus(created.ID, entity.InvoiceStatusSent))
	require.NoError(t, setStatus(created.ID, entity.InvoiceStatusPaid))

	assert.ErrorIs(t, setStatus(created.ID, entity.InvoiceStatusDraft), domainbilling.ErrInvalidTransition,
		"una pagada no se reabre como borrador")
	require.NoError(t, setStatus(created.ID, entity.InvoiceStatusCancelled))
	assert.ErrorIs(t, setStatus(created.ID, entity.InvoiceStatusSent), domainbilling.ErrInvalidTransition)
}
