package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appalphabet "github.com/turtacn/MolSig-Alphabet/internal/application/alphabet"
	domain "github.com/turtacn/MolSig-Alphabet/internal/domain/alphabet"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSig-Alphabet/internal/interfaces/http/handlers"
)

func newTestRouter(t *testing.T) (*gin.Engine, appalphabet.Service) {
	t.Helper()

	svc := appalphabet.NewService(domain.DefaultConfig(), appalphabet.Options{})
	_, err := svc.Fill(context.Background(), []string{"CCO", "CO"})
	require.NoError(t, err)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "molsig",
	}, logging.NewNopLogger())
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Mode:             gin.TestMode,
		AlphabetHandler:  handlers.NewAlphabetHandler(svc),
		SignatureHandler: handlers.NewSignatureHandler(svc),
		HealthHandler:    handlers.NewHealthHandler("test"),
		Logger:           logging.NewNopLogger(),
		Metrics:          prometheus.NewAppMetrics(collector),
		MetricsCollector: collector,
	}), svc
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "test", resp.Version)

	w = doRequest(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AlphabetInfo(t *testing.T) {
	r, svc := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/alphabet", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info appalphabet.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, svc.Info().Entries, info.Entries)
	assert.Greater(t, info.Entries, 0)
}

func TestRouter_SignaturesForBit(t *testing.T) {
	r, svc := newTestRouter(t)

	bits := svc.Snapshot().Bits()
	require.NotEmpty(t, bits)

	w := doRequest(r, http.MethodGet, "/api/v1/alphabet/bits/"+itoa(bits[0]), "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.BitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, bits[0], resp.Bit)
	assert.NotEmpty(t, resp.Signatures)
}

func TestRouter_SignaturesForBit_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/alphabet/bits/notanumber", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Within uint32 range but beyond the configured bit width.
	w = doRequest(r, http.MethodGet, "/api/v1/alphabet/bits/999999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_BuildSignature(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/signatures", `{"notation":"CCO"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.SignatureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CCO", resp.Notation)
	assert.Contains(t, resp.Signature, " ## ")

	w = doRequest(r, http.MethodPost, "/api/v1/signatures", `{"notation":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/signatures", `{"notation":"not-a-molecule"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_OccurrenceVector(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/signatures/vector", `{"notation":"CCO"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.VectorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Unknown)

	sum := 0
	for _, c := range resp.Counts {
		sum += c
	}
	assert.Equal(t, 3, sum)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// Generate one request so the counters carry samples.
	_ = doRequest(r, http.MethodGet, "/api/v1/alphabet", "")

	w := doRequest(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "molsig_http_requests_total")
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
