package handler

import (
	"net/http"

	"topneum/internal/dto"
	"topneum/internal/service"

	"github.com/gin-gonic/gin"
)

// StockHandler is the entry point of the external inventory source.
type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// Sincronizar godoc
// @Summary Sobrescribir el stock de un producto
// @Description Identificar por producto_id o por codigo. stock null deja el producto sin limite.
// @Tags stock
// @Accept json
// @Produce json
// @Param body body dto.SyncStockRequest true "Stock absoluto"
// @Success 200 {object} dto.ProductoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/stock/sync [put]
func (h *StockHandler) Sincronizar(c *gin.Context) {
	var req dto.SyncStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Sincronizar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SincronizarLote godoc
// @Summary Sincronizar stock en lote
// @Description Cada fila se aplica por separado y reporta su propio resultado.
// @Tags stock
// @Accept json
// @Produce json
// @Param body body dto.SyncStockLoteRequest true "Filas"
// @Success 200 {object} dto.SyncStockLoteResponse
// @Router /v1/stock/sync/lote [post]
func (h *StockHandler) SincronizarLote(c *gin.Context) {
	var req dto.SyncStockLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SincronizarLote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoStockFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
