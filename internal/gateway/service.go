// Package gateway exposes the console over HTTP and websocket: cached reads
// from the read model, and transaction actions through the signing client.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/yashhsm/morpho-on-solana/internal/config"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
	"github.com/yashhsm/morpho-on-solana/internal/readmodel"
)

// ReadModel is the query surface the gateway serves. Satisfied by
// *readmodel.Service.
type ReadModel interface {
	Protocol(ctx context.Context) (readmodel.ProtocolView, error)
	Markets(ctx context.Context) ([]readmodel.MarketView, error)
	Positions(ctx context.Context, owner solana.PublicKey) ([]readmodel.PositionView, error)
}

type Service struct {
	cfg              config.GatewayConfig
	logger           *slog.Logger
	readModel        ReadModel
	actions          Actions
	allowAllOrigins  bool
	allowedOriginSet map[string]struct{}
}

// New builds the gateway. actions may be nil for a read-only deployment;
// action routes then respond 403 instead of signing anything.
func New(cfg config.GatewayConfig, readModel ReadModel, actions Actions, logger *slog.Logger) *Service {
	allowAllOrigins := false
	allowedOriginSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAllOrigins = true
			continue
		}
		allowedOriginSet[trimmed] = struct{}{}
	}
	if len(allowedOriginSet) == 0 && !allowAllOrigins {
		allowAllOrigins = true
	}

	return &Service{
		cfg:              cfg,
		logger:           logger,
		readModel:        readModel,
		actions:          actions,
		allowAllOrigins:  allowAllOrigins,
		allowedOriginSet: allowedOriginSet,
	}
}

func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/protocol", s.handleProtocol)
	mux.HandleFunc("/api/v1/markets", s.handleMarkets)
	mux.HandleFunc("/api/v1/markets/", s.handleMarketByID)
	mux.HandleFunc("/api/v1/positions", s.handlePositions)
	mux.HandleFunc("/api/v1/actions/", s.handleAction)
	mux.HandleFunc("/ws", s.handleWebsocket)

	handler := s.withCORS(mux)
	server := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	s.logger.Info("gateway started",
		"listen_addr", s.cfg.ListenAddr,
		"signing_enabled", s.actions != nil,
		"allowed_origins", strings.Join(s.cfg.AllowedOrigins, ","),
	)

	select {
	case <-ctx.Done():
		s.logger.Info("gateway stopping")
		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown gateway: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	}
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	s.respondJSON(w, http.StatusOK, healthResponse{OK: true})
}

func (s *Service) handleProtocol(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}

	view, err := s.readModel.Protocol(r.Context())
	if err != nil {
		s.logger.Error("read protocol failed", "err", err)
		s.respondError(w, http.StatusBadGateway, "failed to read protocol state")
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

type marketListResponse struct {
	Items []readmodel.MarketView `json:"items"`
}

func (s *Service) handleMarkets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}

	views, err := s.readModel.Markets(r.Context())
	if err != nil {
		s.logger.Error("list markets failed", "err", err)
		s.respondError(w, http.StatusBadGateway, "failed to list markets")
		return
	}
	s.respondJSON(w, http.StatusOK, marketListResponse{Items: views})
}

func (s *Service) handleMarketByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/markets/")
	id, err := morpho.MarketIDFromHex(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "market id must be 64 hex characters")
		return
	}

	views, err := s.readModel.Markets(r.Context())
	if err != nil {
		s.logger.Error("list markets failed", "err", err)
		s.respondError(w, http.StatusBadGateway, "failed to list markets")
		return
	}
	for _, view := range views {
		if view.ID == id.String() {
			s.respondJSON(w, http.StatusOK, view)
			return
		}
	}
	s.respondError(w, http.StatusNotFound, "market not found")
}

type positionListResponse struct {
	Owner string                   `json:"owner"`
	Items []readmodel.PositionView `json:"items"`
}

func (s *Service) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}

	rawOwner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if rawOwner == "" {
		s.respondError(w, http.StatusBadRequest, "owner is required")
		return
	}
	owner, err := solana.PublicKeyFromBase58(rawOwner)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid owner")
		return
	}

	views, err := s.readModel.Positions(r.Context(), owner)
	if err != nil {
		s.logger.Error("list positions failed", "err", err, "owner", owner)
		s.respondError(w, http.StatusBadGateway, "failed to list positions")
		return
	}
	s.respondJSON(w, http.StatusOK, positionListResponse{Owner: owner.String(), Items: views})
}

func (s *Service) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			allowed := s.allowAllOrigins
			if !allowed {
				_, allowed = s.allowedOriginSet[origin]
			}

			if allowed {
				if s.allowAllOrigins {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) isOriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	if s.allowAllOrigins {
		return true
	}
	_, ok := s.allowedOriginSet[origin]
	return ok
}

func (s *Service) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to write JSON response", "err", err)
	}
}

func (s *Service) respondError(w http.ResponseWriter, code int, message string) {
	s.respondJSON(w, code, errorResponse{Error: message})
}

func (s *Service) respondMethodNotAllowed(w http.ResponseWriter) {
	s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSONBody(r *http.Request, out any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
