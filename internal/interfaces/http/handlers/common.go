// Package handlers contains the gin HTTP handlers of the alphabet query
// server.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForCode maps application error codes to HTTP status codes.
func statusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBadRequest, errors.ErrCodeValidation,
		errors.ErrCodeInvalidSMILES, errors.ErrCodeInvalidAtom,
		errors.ErrCodeMalformedSignature:
		return http.StatusBadRequest
	case errors.ErrCodeConflict, errors.ErrCodeIncompatibleAlphabet:
		return http.StatusConflict
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a structured error response.  Internal errors are
// masked so stack details never leave the process.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = errors.DefaultMessageForCode(errors.ErrCodeInternal)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code.String(), Message: msg})
}
