package handler

import (
	"net/http"

	"topneum/internal/dto"
	"topneum/internal/service"

	"github.com/gin-gonic/gin"
)

type TarifasHandler struct{ svc service.TarifaService }

func NewTarifasHandler(svc service.TarifaService) *TarifasHandler {
	return &TarifasHandler{svc: svc}
}

// Crear godoc
// @Summary Crear tarifa
// @Description Con activa=true la tarifa se crea y se publica en la misma transaccion.
// @Tags tarifas
// @Accept json
// @Produce json
// @Param body body dto.CrearTarifaRequest true "Tarifa"
// @Success 201 {object} dto.TarifaResponse
// @Failure 422 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/tarifas [post]
func (h *TarifasHandler) Crear(c *gin.Context) {
	var req dto.CrearTarifaRequest
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

// Listar godoc
// @Summary Listar tarifas
// @Tags tarifas
// @Produce json
// @Success 200 {array} dto.TarifaResponse
// @Router /v1/tarifas [get]
func (h *TarifasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activa godoc
// @Summary Tarifa vigente
// @Tags tarifas
// @Produce json
// @Success 200 {object} dto.TarifaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tarifas/activa [get]
func (h *TarifasHandler) Activa(c *gin.Context) {
	resp, err := h.svc.ObtenerActiva(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TarifasHandler) ObtenerPorID(c *gin.Context) {
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

// Actualizar godoc
// @Summary Actualizar parametros de una tarifa
// @Description Solo se modifican los campos enviados. El estado activo no se cambia por aca.
// @Tags tarifas
// @Accept json
// @Produce json
// @Param id path string true "ID de tarifa"
// @Param body body dto.ActualizarTarifaRequest true "Campos a modificar"
// @Success 200 {object} dto.TarifaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/tarifas/{id} [patch]
func (h *TarifasHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.ActualizarTarifaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Publicar godoc
// @Summary Publicar tarifa
// @Description Desactiva la tarifa vigente y activa esta, atomicamente.
// @Tags tarifas
// @Produce json
// @Param id path string true "ID de tarifa"
// @Success 200 {object} dto.TarifaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/tarifas/{id}/publicar [post]
func (h *TarifasHandler) Publicar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Publicar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PreviewParametros godoc
// @Summary Vista previa de precios con parametros sin guardar
// @Tags tarifas
// @Accept json
// @Produce json
// @Param body body dto.PreviewRequest true "Parametros"
// @Success 200 {object} dto.PreviewResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/tarifas/preview [post]
func (h *TarifasHandler) PreviewParametros(c *gin.Context) {
	var req dto.PreviewRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PreviewParametros(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Preview godoc
// @Summary Vista previa de precios de una tarifa guardada
// @Tags tarifas
// @Produce json
// @Param id path string true "ID de tarifa"
// @Param muestra query int false "Cantidad de productos (1-50, default 10)"
// @Param semilla query int false "Semilla para reproducir el jitter"
// @Success 200 {object} dto.PreviewResponse
// @Router /v1/tarifas/{id}/preview [get]
func (h *TarifasHandler) Preview(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var q dto.PreviewQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Preview(c.Request.Context(), id, q.Muestra, q.Semilla)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
