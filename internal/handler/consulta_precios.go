package handler

import (
	"net/http"

	"topneum/internal/service"

	"github.com/gin-gonic/gin"
)

// ConsultaPreciosHandler serves the public price check endpoint used by the
// storefront. No authentication and no side effects besides the quote cache.
type ConsultaPreciosHandler struct {
	svc service.CotizacionService
}

func NewConsultaPreciosHandler(svc service.CotizacionService) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{svc: svc}
}

// PrecioPorCodigo godoc
// @Summary Consulta de precio por codigo de producto (sin autenticacion)
// @Tags precio
// @Produce json
// @Param codigo path string true "Codigo de producto"
// @Success 200 {object} dto.CotizacionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precio/{codigo} [get]
func (h *ConsultaPreciosHandler) PrecioPorCodigo(c *gin.Context) {
	resp, err := h.svc.CotizarPorCodigo(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
