package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SwingScreener/internal/collector"
	"SwingScreener/internal/model"
	"SwingScreener/internal/scanner"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Screener runs and recalls market scans.
type Screener interface {
	Scan(ctx context.Context, market string, maxStocks int) (*model.ScanResult, error)
	Cached(ctx context.Context, market, scope string) (*model.ScanResult, bool, error)
}

// Server exposes scan results over a JSON API.
type Server struct {
	Screener      Screener
	DefaultMarket string
	MaxStocks     int
}

// New creates a Server.
func New(sc Screener, defaultMarket string, maxStocks int) *Server {
	return &Server{Screener: sc, DefaultMarket: defaultMarket, MaxStocks: maxStocks}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/markets", s.handleMarkets)
	r.Get("/api/results", s.handleResults)
	r.Get("/api/results/{symbol}", s.handleCandidate)
	r.Get("/api/scan", s.handleScan)
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown api server: %v", err)
		}
	}()

	log.Printf("[INFO] api server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type marketInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	US   bool   `json:"us"`
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	keys := collector.Markets()
	out := make([]marketInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, marketInfo{Key: k, Name: collector.MarketName(k), US: collector.IsUSMarket(k)})
	}
	writeJSON(w, http.StatusOK, out)
}

// market reads the market query parameter, writing a 400 for unknown keys.
func (s *Server) market(w http.ResponseWriter, r *http.Request) (string, bool) {
	market := strings.ToLower(r.URL.Query().Get("market"))
	if market == "" {
		market = s.DefaultMarket
	}
	if !collector.KnownMarket(market) {
		writeError(w, http.StatusBadRequest, "unknown market: "+market)
		return "", false
	}
	return market, true
}

func (s *Server) scope(r *http.Request) string {
	if scope := r.URL.Query().Get("scope"); scope != "" {
		return scope
	}
	return scanner.Scope(s.MaxStocks)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	market, ok := s.market(w, r)
	if !ok {
		return
	}
	res, found, err := s.Screener.Cached(r.Context(), market, s.scope(r))
	if err != nil {
		log.Printf("[ERROR] read cached scan %s: %v", market, err)
		writeError(w, http.StatusInternalServerError, "failed to read cached results")
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"cached": false})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCandidate(w http.ResponseWriter, r *http.Request) {
	market, ok := s.market(w, r)
	if !ok {
		return
	}
	symbol := chi.URLParam(r, "symbol")
	res, found, err := s.Screener.Cached(r.Context(), market, s.scope(r))
	if err != nil {
		log.Printf("[ERROR] read cached scan %s: %v", market, err)
		writeError(w, http.StatusInternalServerError, "failed to read cached results")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no scan for "+market+" today")
		return
	}
	for _, c := range res.Candidates {
		if strings.EqualFold(c.Symbol, symbol) {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeError(w, http.StatusNotFound, symbol+" is not a candidate")
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	market, ok := s.market(w, r)
	if !ok {
		return
	}
	maxStocks := s.MaxStocks
	if v := r.URL.Query().Get("max_stocks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid max_stocks: "+v)
			return
		}
		maxStocks = n
	}

	res, err := s.Screener.Scan(r.Context(), market, maxStocks)
	if err != nil {
		log.Printf("[ERROR] scan %s: %v", market, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
