package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturalia/facturas-api/internal/application/billing"
	"github.com/facturalia/facturas-api/internal/application/dto"
)

// QuoteHandler maneja presupuestos y su conversión a factura.
type QuoteHandler struct {
	uc *billing.QuoteUseCase
}

// NewQuoteHandler construye el handler de presupuestos.
func NewQuoteHandler(uc *billing.QuoteUseCase) *QuoteHandler {
	return &QuoteHandler{uc: uc}
}

// Create godoc
// @Summary      Crear presupuesto
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateQuoteRequest  true  "presupuesto con líneas"
// @Success      201   {object}  dto.QuoteResponse
// @Security     BearerAuth
// @Router       /api/quotes [post]
func (h *QuoteHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateQuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener presupuesto
// @Tags         quotes
// @Produce      json
// @Param        id   path      string  true  "ID del presupuesto"
// @Success      200  {object}  dto.QuoteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/quotes/{id} [get]
func (h *QuoteHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar presupuestos
// @Tags         quotes
// @Produce      json
// @Param        status  query    string  false  "pending, accepted, rejected, invoiced"
// @Param        limit   query    int     false  "máximo de resultados"
// @Param        offset  query    int     false  "desplazamiento"
// @Success      200     {array}  dto.QuoteResponse
// @Security     BearerAuth
// @Router       /api/quotes [get]
func (h *QuoteHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), c.Query("status"), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado del presupuesto
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del presupuesto"
// @Param        body  body  object  true  "{\"status\": \"pending|accepted|rejected\"}"
// @Success      200   {object}  dto.QuoteResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/quotes/{id}/status [put]
func (h *QuoteHandler) UpdateStatus(c *fiber.Ctx) error {
	var in struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UpdateStatus(c.UserContext(), GetCompanyID(c), c.Params("id"), in.Status)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// Convert godoc
// @Summary      Convertir presupuesto en factura
// @Description  Crea la factura copiando líneas e impuestos y marca el presupuesto como facturado, todo en una transacción.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del presupuesto"
// @Param        body  body  object  false  "{\"series\": \"A\"}"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      409   {object}  dto.ErrorResponse  "presupuesto ya facturado o rechazado"
// @Security     BearerAuth
// @Router       /api/quotes/{id}/convert [post]
func (h *QuoteHandler) Convert(c *fiber.Ctx) error {
	var in struct {
		Series string `json:"series"`
	}
	// body opcional; sin body se usa la serie por defecto
	_ = c.BodyParser(&in)
	out, err := h.uc.ConvertToInvoice(c.UserContext(), GetCompanyID(c), c.Params("id"), in.Series)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
