package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appalphabet "github.com/turtacn/MolSig-Alphabet/internal/application/alphabet"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// SignatureHandler serves signature computation requests.
type SignatureHandler struct {
	service appalphabet.Service
}

// NewSignatureHandler creates a SignatureHandler over the given service.
func NewSignatureHandler(service appalphabet.Service) *SignatureHandler {
	return &SignatureHandler{service: service}
}

// SignatureRequest is the body of POST /api/v1/signatures.
type SignatureRequest struct {
	Notation string `json:"notation" binding:"required"`
}

// SignatureResponse is the body of POST /api/v1/signatures.
type SignatureResponse struct {
	Notation  string `json:"notation"`
	Signature string `json:"signature"`
}

// Build handles POST /api/v1/signatures.
func (h *SignatureHandler) Build(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body"))
		return
	}

	sig, err := h.service.Signature(c.Request.Context(), req.Notation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SignatureResponse{Notation: req.Notation, Signature: sig})
}

// VectorResponse is the body of POST /api/v1/signatures/vector.
type VectorResponse struct {
	Notation string   `json:"notation"`
	Counts   []int    `json:"counts"`
	Unknown  []string `json:"unknown,omitempty"`
}

// OccurrenceVector handles POST /api/v1/signatures/vector.  It projects the
// molecule's signature onto the alphabet's signature index.
func (h *SignatureHandler) OccurrenceVector(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body"))
		return
	}

	counts, unknown, err := h.service.OccurrenceVector(c.Request.Context(), req.Notation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, VectorResponse{Notation: req.Notation, Counts: counts, Unknown: unknown})
}
