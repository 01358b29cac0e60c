// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// Machine-checkable error codes. Clients branch on Code, never on Detail.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeProductNotFound    = "product_not_found"
	CodeInsufficientStock  = "insufficient_stock"
	CodeConflictingPublish = "conflicting_publish"
	CodeStorageFailure     = "storage_failure"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Code   string            `json:"code,omitempty"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
	// Productos carries per-product detail for stock and lookup failures.
	Productos []ProductoDetalle `json:"productos,omitempty"`
}

// ProductoDetalle names a product involved in a failed operation.
type ProductoDetalle struct {
	ProductoID string `json:"producto_id"`
	Codigo     string `json:"codigo,omitempty"`
	Solicitado int    `json:"solicitado,omitempty"`
	Disponible *int   `json:"disponible,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCode builds an envelope carrying a machine-checkable code.
func WithCode(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

// NewValidation wraps multiple field errors.
func NewValidation(fields map[string]string) *APIError {
	return &APIError{Code: CodeInvalidInput, Detail: "Error de validacion", Fields: fields}
}
