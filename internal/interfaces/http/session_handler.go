package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/facturalia/facturas-api/internal/application/billing"
	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	domainbilling "github.com/facturalia/facturas-api/internal/domain/billing"
)

// SessionHandler expone las sesiones de edición del formulario de factura.
// El frontend abre una sesión al montar el formulario, notifica la apertura y
// cierre de diálogos hijos (alta rápida de cliente, selector de impuestos) y
// referencia la sesión al enviar la factura.
type SessionHandler struct {
	uc *billing.SessionUseCase
}

// NewSessionHandler construye el handler de sesiones.
func NewSessionHandler(uc *billing.SessionUseCase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// Open godoc
// @Summary      Abrir sesión de edición
// @Tags         sessions
// @Produce      json
// @Success      201  {object}  dto.SessionResponse
// @Security     BearerAuth
// @Router       /api/invoices/sessions [post]
func (h *SessionHandler) Open(c *fiber.Ctx) error {
	out, err := h.uc.Open()
	if err != nil {
		return sessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Estado de la sesión
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(out)
}

// OpenDialog godoc
// @Summary      Notificar diálogo hijo abierto
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/sessions/{id}/dialog/open [post]
func (h *SessionHandler) OpenDialog(c *fiber.Ctx) error {
	out, err := h.uc.OpenDialog(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(out)
}

// CloseDialog godoc
// @Summary      Notificar diálogo hijo cerrado
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/sessions/{id}/dialog/close [post]
func (h *SessionHandler) CloseDialog(c *fiber.Ctx) error {
	out, err := h.uc.CloseDialog(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(out)
}

// Abort godoc
// @Summary      Descartar sesión
// @Tags         sessions
// @Param        id  path  string  true  "ID de la sesión"
// @Success      204
// @Security     BearerAuth
// @Router       /api/invoices/sessions/{id} [delete]
func (h *SessionHandler) Abort(c *fiber.Ctx) error {
	h.uc.Abort(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "sesión no encontrada o expirada"})
	case errors.Is(err, domainbilling.ErrSubmitBlocked):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SUBMIT_BLOCKED", Message: err.Error()})
	case errors.Is(err, domainbilling.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
