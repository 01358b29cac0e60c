package handler

import (
	"net/http"

	"topneum/internal/dto"
	"topneum/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct {
	svc        service.ProductoService
	cotizacion service.CotizacionService
}

func NewProductosHandler(svc service.ProductoService, cotizacion service.CotizacionService) *ProductosHandler {
	return &ProductosHandler{svc: svc, cotizacion: cotizacion}
}

func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cotizacion godoc
// @Summary Escalera de precios de un producto con la tarifa vigente
// @Tags productos
// @Produce json
// @Param id path string true "ID de producto"
// @Success 200 {object} dto.CotizacionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/productos/{id}/cotizacion [get]
func (h *ProductosHandler) Cotizacion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.cotizacion.CotizarPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
