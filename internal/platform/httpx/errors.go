package httpx

import (
	"errors"
	"net/http"

	"github.com/medishop/medishop/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var v *shared.ValidationError
	switch {
	case errors.As(err, &v):
		fields := make(map[string]string, len(v.Fields))
		for _, f := range v.Fields {
			fields[f.Field] = f.Message
		}
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: v.Error(),
			Fields: fields,
		})
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrStockIntegrity):
		Problem(w, http.StatusConflict, "Stock Integrity", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
