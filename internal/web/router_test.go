package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"clinic-booking-api/internal/metrics"
)

var okBridge = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	r := NewRouter(okBridge, Options{})
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	r = NewRouter(okBridge, Options{Ready: func(context.Context) error { return errors.New("db down") }})
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db down")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBooking(reg)
	m.ObserveBooking("ok")

	r := NewRouter(okBridge, Options{Gatherer: reg})
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clinic_scheduler_bookings_total{result="ok"} 1`)
}

func TestBridgeMount(t *testing.T) {
	r := NewRouter(okBridge, Options{})

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/booking.v1.BookingService/Login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/booking.v1.BookingService/Login", rec.Header().Get("X-Path"))

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/other.v1.Service/Login", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := NewRouter(okBridge, Options{CORSOrigins: []string{"https://app.clinic.io"}})

	req := httptest.NewRequest(http.MethodOptions, "/booking.v1.BookingService/Login", nil)
	req.Header.Set("Origin", "https://app.clinic.io")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-grpc-web")
	rec := serve(r, req)

	assert.Equal(t, "https://app.clinic.io", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "x-grpc-web"))
}

func TestRateLimit(t *testing.T) {
	r := NewRouter(okBridge, Options{RatePerMinute: 2})
	codes := make([]int, 3)
	for i := range codes {
		codes[i] = serve(r, httptest.NewRequest(http.MethodPost, "/booking.v1.BookingService/Login", nil)).Code
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	// health checks are not throttled
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}
