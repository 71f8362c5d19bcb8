package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facturalia/facturas-api/internal/application/billing"
	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	domainbilling "github.com/facturalia/facturas-api/internal/domain/billing"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

// InvoiceHandler maneja facturas: CRUD, estado, PDF y XML Facturae.
type InvoiceHandler struct {
	uc       *billing.InvoiceUseCase
	pdf      *billing.PDFUseCase
	facturae *billing.FacturaeUseCase
}

// NewInvoiceHandler construye el handler de facturas.
func NewInvoiceHandler(uc *billing.InvoiceUseCase, pdf *billing.PDFUseCase, facturae *billing.FacturaeUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, pdf: pdf, facturae: facturae}
}

// Create godoc
// @Summary      Crear factura
// @Description  Los totales se recalculan en el servidor; subtotales del cliente se ignoran.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "factura con líneas e impuestos adicionales"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      409   {object}  dto.ErrorResponse  "envío bloqueado por la sesión de edición"
// @Security     BearerAuth
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.CreateInvoice(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar factura
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la factura"
// @Param        body  body  dto.UpdateInvoiceRequest  true  "campos a actualizar"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UpdateInvoice(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener factura
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetInvoice(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// GetStatus godoc
// @Summary      Estado de la factura
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/{id}/status [get]
func (h *InvoiceHandler) GetStatus(c *fiber.Ctx) error {
	out, err := h.uc.GetStatus(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Produce      json
// @Param        status  query    string  false  "draft, sent, paid, cancelled"
// @Param        from    query    string  false  "fecha mínima YYYY-MM-DD"
// @Param        to      query    string  false  "fecha máxima YYYY-MM-DD"
// @Param        limit   query    int     false  "máximo de resultados"
// @Param        offset  query    int     false  "desplazamiento"
// @Success      200     {array}  dto.InvoiceResponse
// @Security     BearerAuth
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	f := repository.InvoiceFilter{
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if s := c.Query("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser YYYY-MM-DD"})
		}
		f.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser YYYY-MM-DD"})
		}
		f.To = &t
	}
	out, err := h.uc.ListInvoices(c.UserContext(), GetCompanyID(c), f)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar factura en borrador
// @Tags         invoices
// @Param        id  path  string  true  "ID de la factura"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse  "solo se eliminan borradores"
// @Security     BearerAuth
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteInvoice(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return invoiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadPDF godoc
// @Summary      Descargar PDF de la factura
// @Tags         invoices
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.pdf.DownloadInvoicePDF(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return invoiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// DownloadFacturae godoc
// @Summary      Generar XML Facturae 3.2.2
// @Description  Genera (y firma si hay certificado) el XML Facturae y persiste su huella SHA-512.
// @Tags         invoices
// @Produce      application/xml
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      409  {object}  dto.ErrorResponse  "la factura sigue en borrador"
// @Security     BearerAuth
// @Router       /api/invoices/{id}/facturae [get]
func (h *InvoiceHandler) DownloadFacturae(c *fiber.Ctx) error {
	xmlBytes, filename, err := h.facturae.GenerateXML(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return invoiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(xmlBytes)
}

// invoiceError mapea errores de dominio a respuestas HTTP. ErrInvalidInput
// llega envuelto con detalle de la línea, de ahí errors.Is.
func invoiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domainbilling.ErrSubmitBlocked):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SUBMIT_BLOCKED", Message: err.Error()})
	case errors.Is(err, domainbilling.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "la factura pertenece a otra empresa"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
