package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/application/ledger"
)

// LedgerHandler expone el libro de registros y sus exportaciones.
type LedgerHandler struct {
	uc *ledger.LibroUseCase
}

// NewLedgerHandler construye el handler del libro de registros.
func NewLedgerHandler(uc *ledger.LibroUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

func ledgerQuery(c *fiber.Ctx) dto.LedgerQuery {
	return dto.LedgerQuery{
		From: c.Query("from"),
		To:   c.Query("to"),
		Type: c.Query("type"),
	}
}

// Get godoc
// @Summary      Libro de registros
// @Description  Facturas emitidas y movimientos manuales fusionados y ordenados por fecha, con totales agregados.
// @Tags         ledger
// @Produce      json
// @Param        from  query    string  false  "fecha mínima YYYY-MM-DD"
// @Param        to    query    string  false  "fecha máxima YYYY-MM-DD"
// @Param        type  query    string  false  "income o expense"
// @Success      200   {object}  dto.LedgerResponse
// @Security     BearerAuth
// @Router       /api/ledger [get]
func (h *LedgerHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetLedger(c.UserContext(), GetCompanyID(c), ledgerQuery(c))
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// ExportCSV godoc
// @Summary      Exportar libro en CSV
// @Tags         ledger
// @Produce      text/csv
// @Param        from  query  string  false  "fecha mínima YYYY-MM-DD"
// @Param        to    query  string  false  "fecha máxima YYYY-MM-DD"
// @Param        type  query  string  false  "income o expense"
// @Success      200   {file}  file
// @Security     BearerAuth
// @Router       /api/ledger/export.csv [get]
func (h *LedgerHandler) ExportCSV(c *fiber.Ctx) error {
	data, filename, err := h.uc.ExportCSV(c.UserContext(), GetCompanyID(c), ledgerQuery(c))
	if err != nil {
		return invoiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// ExportPDF godoc
// @Summary      Exportar libro en PDF
// @Tags         ledger
// @Produce      application/pdf
// @Param        from  query  string  false  "fecha mínima YYYY-MM-DD"
// @Param        to    query  string  false  "fecha máxima YYYY-MM-DD"
// @Param        type  query  string  false  "income o expense"
// @Success      200   {file}  file
// @Security     BearerAuth
// @Router       /api/ledger/export.pdf [get]
func (h *LedgerHandler) ExportPDF(c *fiber.Ctx) error {
	data, filename, err := h.uc.ExportPDF(c.UserContext(), GetCompanyID(c), ledgerQuery(c))
	if err != nil {
		return invoiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
