package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appalphabet "github.com/turtacn/MolSig-Alphabet/internal/application/alphabet"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// AlphabetHandler serves read-only alphabet queries.
type AlphabetHandler struct {
	service appalphabet.Service
}

// NewAlphabetHandler creates an AlphabetHandler over the given service.
func NewAlphabetHandler(service appalphabet.Service) *AlphabetHandler {
	return &AlphabetHandler{service: service}
}

// Info handles GET /api/v1/alphabet.
func (h *AlphabetHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Info())
}

// BitResponse is the body of GET /api/v1/alphabet/bits/:bit.
type BitResponse struct {
	Bit        uint32   `json:"bit"`
	Signatures []string `json:"signatures"`
}

// SignaturesForBit handles GET /api/v1/alphabet/bits/:bit.
func (h *AlphabetHandler) SignaturesForBit(c *gin.Context) {
	bit64, err := strconv.ParseUint(c.Param("bit"), 10, 32)
	if err != nil {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "bit must be an unsigned integer"))
		return
	}

	sigs, err := h.service.SignaturesForBit(uint32(bit64))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BitResponse{Bit: uint32(bit64), Signatures: sigs})
}
