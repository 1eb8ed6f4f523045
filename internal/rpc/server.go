package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/exeNyx7/ethereal-sub001/config"
	"github.com/exeNyx7/ethereal-sub001/internal/engine"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// Server is the HTTP/websocket surface the UI layer calls into. It carries
// no resolution logic of its own; every operation delegates to the engine.
type Server struct {
	logger log.Logger
	eng    *engine.Engine
	cfg    *config.RPCConfig
	instr  *config.InstrumentationConfig

	srv *http.Server
	ln  net.Listener
}

// NewServer creates an RPC server over the engine.
func NewServer(logger log.Logger, eng *engine.Engine, cfg *config.RPCConfig, instr *config.InstrumentationConfig) *Server {
	return &Server{logger: logger, eng: eng, cfg: cfg, instr: instr}
}

// Start listens on the configured address and serves until Stop. It returns
// once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/claims", s.handlePostClaim)
	mux.HandleFunc("/v1/votes", s.handleCastVote)
	mux.HandleFunc("/v1/oppositions", s.handleOpposeClaim)
	mux.HandleFunc("/v1/resolve", s.handleResolve)
	mux.HandleFunc("/v1/settle", s.handleSettle)
	mux.HandleFunc("/v1/ghost", s.handleGhost)
	mux.HandleFunc("/v1/ghost-status", s.handleGhostStatus)
	mux.HandleFunc("/v1/scheduler/start", s.handleSchedulerStart)
	mux.HandleFunc("/v1/scheduler/stop", s.handleSchedulerStop)
	mux.HandleFunc("/v1/feed", s.handleFeed(ctx))
	if s.instr != nil && s.instr.Prometheus {
		mux.Handle("/metrics", promhttp.Handler())
	}

	var handler http.Handler = mux
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}).Handler(mux)
	}

	addr := strings.TrimPrefix(s.cfg.ListenAddress, "tcp://")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.ln = ln

	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("rpc server stopped", "err", err)
		}
	}()

	s.logger.Info("rpc server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, useful when the configured port
// was 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down, draining in-flight requests.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

type postClaimRequest struct {
	Domain        string `json:"domain"`
	PosterID      string `json:"posterId"`
	Body          string `json:"body"`
	WindowSeconds int64  `json:"windowSeconds"`
	ParentClaimID string `json:"parentClaimId"`
	Signature     string `json:"signature"`
}

func (s *Server) handlePostClaim(w http.ResponseWriter, r *http.Request) {
	var req postClaimRequest
	if !decode(w, r, &req) {
		return
	}
	claim, err := s.eng.PostClaim(r.Context(), req.Domain, req.PosterID, req.Body,
		time.Duration(req.WindowSeconds)*time.Second, req.ParentClaimID, req.Signature)
	respond(w, claim, err)
}

type castVoteRequest struct {
	Domain    string `json:"domain"`
	TargetID  string `json:"targetId"`
	VoterID   string `json:"voterId"`
	Direction int8   `json:"direction"`
	Signature string `json:"signature"`
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if !decode(w, r, &req) {
		return
	}
	vote, err := s.eng.CastVote(r.Context(), req.Domain, req.TargetID, req.VoterID,
		types.VoteDirection(req.Direction), req.Signature)
	respond(w, vote, err)
}

type opposeRequest struct {
	Domain        string `json:"domain"`
	ClaimID       string `json:"claimId"`
	ChallengerID  string `json:"challengerId"`
	Reason        string `json:"reason"`
	WindowSeconds int64  `json:"windowSeconds"`
}

func (s *Server) handleOpposeClaim(w http.ResponseWriter, r *http.Request) {
	var req opposeRequest
	if !decode(w, r, &req) {
		return
	}
	opp, err := s.eng.OpposeClaim(r.Context(), req.Domain, req.ClaimID, req.ChallengerID,
		req.Reason, time.Duration(req.WindowSeconds)*time.Second)
	respond(w, opp, err)
}

type claimRequest struct {
	Domain  string `json:"domain"`
	ClaimID string `json:"claimId"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.eng.ResolveClaim(r.Context(), req.Domain, req.ClaimID)
	respond(w, res, err)
}

type settleRequest struct {
	Domain  string `json:"domain"`
	ClaimID string `json:"claimId"`
	Verdict string `json:"verdict"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.eng.SettleKarma(r.Context(), req.Domain, req.ClaimID, types.Verdict(req.Verdict))
	respond(w, map[string]bool{"ok": err == nil}, err)
}

func (s *Server) handleGhost(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.eng.GhostClaim(r.Context(), req.Domain, req.ClaimID)
	respond(w, map[string]bool{"ok": err == nil}, err)
}

func (s *Server) handleGhostStatus(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	claimID := r.URL.Query().Get("claim")
	if domain == "" || claimID == "" {
		respond(w, nil, fmt.Errorf("ghost-status requires domain and claim query params"))
		return
	}
	claim, err := s.eng.Store().GetClaim(r.Context(), domain, claimID)
	if err != nil {
		respond(w, nil, err)
		return
	}
	respond(w, s.eng.CheckGhostStatus(r.Context(), domain, claim), nil)
}

type schedulerRequest struct {
	Domain string `json:"domain"`
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	var req schedulerRequest
	if !decode(w, r, &req) {
		return
	}
	// the scheduler outlives the request, so it runs on the server context
	err := s.eng.StartScheduler(context.Background(), req.Domain)
	respond(w, map[string]bool{"ok": err == nil}, err)
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	err := s.eng.StopScheduler()
	respond(w, map[string]bool{"ok": err == nil}, err)
}

func decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		respond(w, nil, fmt.Errorf("malformed request body: %w", err))
		return false
	}
	return true
}

func respond(w http.ResponseWriter, result interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = enc.Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = enc.Encode(map[string]interface{}{"result": result})
}
