// Package web exposes the engine's status over HTTP: a JSON snapshot, an
// SSE stream of tick outcomes and a minimal HTML page consuming both.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/services/engine"
	"github.com/vadiminshakov/seesaw/pkg/indicators"
	"golang.org/x/crypto/acme/autocert"
)

const (
	tickPollInterval = 2 * time.Second
	emaPeriod        = 20
	rsiPeriod        = 14
)

type engineObserver interface {
	Status() engine.Status
	TicksAfter(after uint64) []engine.TickRecord
}

// Server exposes HTTP endpoints for one engine.
type Server struct {
	Addr   string
	Engine engineObserver
	RunID  string
}

// NewServer creates a new status server instance.
func NewServer(addr string, eng engineObserver, runID string) *Server {
	return &Server{Addr: addr, Engine: eng, RunID: runID}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via
// ACME, plus an HTTP server on port 80 for the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = httpsSrv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("acme http server: %v", err)
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ticks/stream", s.handleTickStream)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

type assetStatus struct {
	Rate           *decimal.Decimal    `json:"rate,omitempty"`
	RelativeChange *decimal.Decimal    `json:"relative_change,omitempty"`
	Indicators     indicators.Snapshot `json:"indicators"`
}

type statusResponse struct {
	RunID           string                 `json:"run_id"`
	Pair            string                 `json:"pair"`
	LastExecutedKey string                 `json:"last_executed_key,omitempty"`
	LastTriggerAt   *time.Time             `json:"last_trigger_at,omitempty"`
	Assets          map[string]assetStatus `json:"assets"`
	LastTick        *engine.TickRecord     `json:"last_tick,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.Engine == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}

	status := s.Engine.Status()
	resp := statusResponse{
		RunID:           s.RunID,
		Pair:            status.Pair.String(),
		LastExecutedKey: status.State.LastExecutedKey,
		Assets:          make(map[string]assetStatus, 2),
		LastTick:        status.LastTick,
	}
	if !status.State.LastTriggerAt.IsZero() {
		at := status.State.LastTriggerAt
		resp.LastTriggerAt = &at
	}

	for _, asset := range status.Pair.Assets() {
		st := assetStatus{
			Indicators: indicators.Compute(status.RateSeries[asset], emaPeriod, rsiPeriod),
		}
		if rate, ok := status.LatestRates[asset]; ok {
			st.Rate = &rate
		}
		if change, ok := status.RelativeChanges[asset]; ok {
			st.RelativeChange = &change
		}
		resp.Assets[asset] = st
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("status encode: %v", err)
	}
}

func (s *Server) handleTickStream(w http.ResponseWriter, r *http.Request) {
	if s.Engine == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(tickPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendTicks := func() error {
		for _, record := range s.Engine.TicksAfter(lastIndex) {
			payload, err := json.Marshal(record)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: tick\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendTicks(); err != nil {
		http.Error(w, "failed to load ticks", http.StatusInternalServerError)
		log.Printf("tick stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendTicks(); err != nil {
				log.Printf("tick stream poll err: %v", err)
			}
		}
	}
}
