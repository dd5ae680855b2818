package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"swap_engine/internal/modules/health/service"

	"github.com/stretchr/testify/assert"
)

type sourceStub struct{}

func (sourceStub) Status() service.Status {
	return service.Status{Running: true, Positions: 2, Equity: 100}
}

func TestReadyzFollowsState(t *testing.T) {
	st := service.NewState()
	mux := NewMux(MuxParams{State: st})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	st.SetReady(true)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzIncludesEngineStatus(t *testing.T) {
	mux := NewMux(MuxParams{State: service.NewState(), Source: sourceStub{}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"positions":2`)
	assert.Contains(t, rec.Body.String(), `"running":true`)
}
