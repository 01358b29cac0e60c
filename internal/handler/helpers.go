package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"topneum/internal/apierror"
	"topneum/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0 work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their wire name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeInvalidInput, "JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeInvalidInput, "Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeInvalidInput, err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[campo(fe)] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// campo drops the root struct from the namespace: "items[0].cantidad".
func campo(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// respondError maps service error kinds to status codes and the error
// envelope. Unknown errors are left to middleware.ErrorHandler.
func respondError(c *gin.Context, err error) {
	var (
		verr  *service.ValidacionError
		serr  *service.StockInsuficienteError
		nferr *service.ProductoNoEncontradoError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(verr.Campos))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode(apierror.CodeInvalidInput, err.Error()))
	case errors.As(err, &serr):
		resp := apierror.WithCode(apierror.CodeInsufficientStock, "Stock insuficiente")
		for _, f := range serr.Faltantes {
			resp.Productos = append(resp.Productos, apierror.ProductoDetalle{
				ProductoID: f.ProductoID,
				Codigo:     f.Codigo,
				Solicitado: f.Solicitado,
				Disponible: f.Disponible,
			})
		}
		c.JSON(http.StatusConflict, resp)
	case errors.As(err, &nferr):
		resp := apierror.WithCode(apierror.CodeProductNotFound, "Producto no encontrado o inactivo")
		for _, id := range nferr.IDs {
			resp.Productos = append(resp.Productos, apierror.ProductoDetalle{ProductoID: id})
		}
		c.JSON(http.StatusNotFound, resp)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.WithCode(apierror.CodeNotFound, err.Error()))
	case errors.Is(err, service.ErrConflictingPublish):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeConflictingPublish, "Otra publicacion de tarifa esta en curso, reintente"))
	case errors.Is(err, service.ErrStorage):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("storage failure")
		detalle := "Error de almacenamiento"
		if strings.Contains(err.Error(), "resultado desconocido") {
			detalle = "Error de almacenamiento: resultado desconocido, verifique antes de reintentar"
		}
		c.JSON(http.StatusServiceUnavailable, apierror.WithCode(apierror.CodeStorageFailure, detalle))
	default:
		_ = c.Error(err)
	}
}

// paramID parses the :id path parameter, answering 400 when it is not a uuid.
func paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeInvalidInput, "ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}
