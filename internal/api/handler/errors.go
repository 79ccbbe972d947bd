package handler

import (
	"net/http"

	"github.com/microparty/microparty/internal/api/apierr"
)

// WriteError writes an error response using the apierr package
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
