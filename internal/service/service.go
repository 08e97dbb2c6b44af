package service

import (
	"context"
	"encoding/json"
	"net/http"
	"wcprobe/internal/components/assert"
	"wcprobe/internal/components/chrono"
	"wcprobe/internal/components/telemetry"
	"wcprobe/internal/probe"
	"wcprobe/internal/store"
)

const (
	report_service_record   = "service.record"
	report_service_response = "service.response"
)

const NoCheckUrlMessage = "No check URL provided"

// Prober is what the service needs to fingerprint a storefront.
type Prober interface {
	Probe(ctx context.Context, target string) (probe.Result, error)
}

// Service exposes probing over HTTP and records the outcomes.
//
// note: scheduled re-probing is not started in here, whatever owns the Service
// decides when to call ProbeAndRecord.
type Service struct {
	prober Prober
	qry    *store.Queries
	time   chrono.API
	tel    telemetry.API
}

// NewService creates a Service, `qry` can be nil in which case nothing is recorded.
func NewService(prober Prober, qry *store.Queries, time chrono.API, tel telemetry.API) Service {
	assert.NotNil(prober, "prober")
	assert.NotNil(time, "time")
	assert.NotNil(tel, "tel")

	return Service{
		prober: prober,
		qry:    qry,
		time:   time,
		tel:    telemetry.NewScopedAPI("service", tel),
	}
}

// ProbeAndRecord probes `target` and stores the outcome when a store is configured.
// A failure to store is reported but does not affect the returned outcome.
func (s Service) ProbeAndRecord(ctx context.Context, target string) (probe.Result, error) {
	result, err := s.prober.Probe(ctx, target)
	if s.qry == nil {
		return result, err
	}

	row, ok := store.FromResult(target, s.time.Now(), result, err)
	if !ok {
		return result, err
	}
	_, storeErr := s.qry.InsertProbe(ctx, row)
	if storeErr != nil {
		s.tel.ReportBroken(report_service_record, storeErr, target)
	}
	return result, err
}

// Handler returns the HTTP surface of the service.
//   - GET /?check=<url> responds with the probe record as JSON.
//   - GET /healthz responds with "ok".
func (s Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleCheck)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return mux
}

func (s Service) handleCheck(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("check")
	if target == "" {
		http.Error(w, NoCheckUrlMessage, http.StatusBadRequest)
		return
	}

	result, err := s.ProbeAndRecord(r.Context(), target)

	w.Header().Set("content-type", "application/json")
	err = json.NewEncoder(w).Encode(probe.Report(result, err))
	if err != nil {
		s.tel.ReportWarning(report_service_response, err, target)
	}
}
