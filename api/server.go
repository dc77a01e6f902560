package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/config"
	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/service"
	"github.com/wricardo/hextactics/game/session"
	"github.com/wricardo/hextactics/game/turn"
	"github.com/wricardo/hextactics/transport/websocket"
)

// maxTickElapsed caps the elapsed time a single tick request may claim.
const maxTickElapsed = 5 * time.Second

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	if hub != nil {
		hub.SetMessageHandler(s.handleClientMessage)
	}
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Match operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/attack", s.handleAttack).Methods("POST")
	api.HandleFunc("/sessions/{id}/equip", s.handleEquip).Methods("POST")
	api.HandleFunc("/sessions/{id}/craft", s.handleCraft).Methods("POST")
	api.HandleFunc("/sessions/{id}/draw", s.handleDrawCard).Methods("POST")
	api.HandleFunc("/sessions/{id}/transform", s.handleTransform).Methods("POST")
	api.HandleFunc("/sessions/{id}/end-turn", s.handleEndTurn).Methods("POST")
	api.HandleFunc("/sessions/{id}/auto-turn", s.handleAutoTurn).Methods("POST")
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/log", s.handleGetLog).Methods("GET")

	// Queries
	api.HandleFunc("/sessions/{id}/movement-range", s.handleMovementRange).Methods("GET")
	api.HandleFunc("/sessions/{id}/attack-range", s.handleAttackRange).Methods("GET")
	api.HandleFunc("/sessions/{id}/unit-ranges", s.handleUnitRanges).Methods("GET")
	api.HandleFunc("/sessions/{id}/path", s.handleFindPath).Methods("GET")
	api.HandleFunc("/sessions/{id}/line-of-sight", s.handleLineOfSight).Methods("GET")

	// Content
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")
	api.HandleFunc("/levels/{name}", s.handleSaveLevel).Methods("PUT")
	api.HandleFunc("/cards", s.handleListCards).Methods("GET")
	api.HandleFunc("/campaigns", s.handleListCampaigns).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message, "code": status})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, engine.ErrConfigNotFound),
		errors.Is(err, service.ErrNoUnit):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, turn.ErrUnknownAttack),
		errors.Is(err, engine.ErrInvalidLevel),
		errors.Is(err, engine.ErrInvalidCard),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBody reads an optional JSON body into v
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseCoord reads "row,column" from a query parameter
func parseCoord(r *http.Request, name string) (hex.Coord, error) {
	raw := r.URL.Query().Get(name)
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return hex.Coord{}, fmt.Errorf("%s must be row,column", name)
	}
	row, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	col, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return hex.Coord{}, fmt.Errorf("%s must be row,column", name)
	}
	return hex.Coord{Row: row, Col: col}, nil
}

// broadcast pushes a new state to the session's WebSocket clients
func (s *Server) broadcast(sessionID string, state *engine.MatchState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

func (s *Server) broadcastEvents(sessionID string, events []service.GameEvent) {
	if s.hub == nil {
		return
	}
	for _, ev := range events {
		if ev.Type != "log" {
			s.hub.BroadcastEvent(sessionID, ev.Type, ev)
		}
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOptions
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.Info("session created", zap.String("session", info.ID), zap.String("level", info.LevelID))
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	// Set defaults
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if ti.Equal(tj) {
			return sessions[i].ID < sessions[j].ID
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Match Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// respondAction broadcasts and returns the result of a player action
func (s *Server) respondAction(w http.ResponseWriter, sessionID, action string, result *service.ActionResponse, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.State)
	s.broadcastEvents(sessionID, result.Events)

	s.logger.Debug("action",
		zap.String("session", sessionID),
		zap.String("action", action),
		zap.Bool("success", result.Success),
		zap.String("message", result.Message))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		To hex.Coord `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req.To)
	s.respondAction(w, sessionID, "move", result, err)
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Attack string    `json:"attack"`
		Target hex.Coord `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Attack == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body: attack and target are required")
		return
	}

	result, err := s.service.Attack(r.Context(), sessionID, req.Attack, req.Target)
	s.respondAction(w, sessionID, "attack", result, err)
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		CardID string `json:"card_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body: card_id is required")
		return
	}

	result, err := s.service.Equip(r.Context(), sessionID, req.CardID)
	s.respondAction(w, sessionID, "equip", result, err)
}

func (s *Server) handleCraft(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		CardID    string   `json:"card_id"`
		Materials []string `json:"materials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body: card_id is required")
		return
	}

	result, err := s.service.Craft(r.Context(), sessionID, req.CardID, req.Materials)
	s.respondAction(w, sessionID, "craft", result, err)
}

func (s *Server) handleDrawCard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		At hex.Coord `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.DrawCard(r.Context(), sessionID, req.At)
	s.respondAction(w, sessionID, "draw", result, err)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		At hex.Coord `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Transform(r.Context(), sessionID, req.At)
	s.respondAction(w, sessionID, "transform", result, err)
}

func (s *Server) handleAutoTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.AutoTurn(r.Context(), sessionID)
	s.respondAction(w, sessionID, "auto_turn", result, err)
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		FastForward bool `json:"fast_forward"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.EndTurn(r.Context(), sessionID, req.FastForward)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.State)
	s.broadcastEvents(sessionID, result.Events)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		ElapsedMS int `json:"elapsed_ms"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.tick(r.Context(), sessionID, req.ElapsedMS)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// tick advances a session and broadcasts when anything moved
func (s *Server) tick(ctx context.Context, sessionID string, elapsedMS int) (*service.TickResponse, error) {
	elapsed := time.Duration(elapsedMS) * time.Millisecond
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > maxTickElapsed {
		elapsed = maxTickElapsed
	}

	result, err := s.service.Tick(ctx, sessionID, elapsed)
	if err != nil {
		return nil, err
	}
	if result.Stepped || result.State.Animating {
		s.broadcast(sessionID, result.State)
		s.broadcastEvents(sessionID, result.Events)
	}
	return result, nil
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, state)
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, "reset", nil)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Match reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	// Parse query parameters
	opts := service.LogOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	entries, err := s.service.GetLog(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// Query Handlers

func (s *Server) handleMovementRange(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.MovementRange(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAttackRange(w http.ResponseWriter, r *http.Request) {
	attack := r.URL.Query().Get("attack")
	if attack == "" {
		respondError(w, http.StatusBadRequest, "attack parameter required")
		return
	}

	result, err := s.service.AttackRange(r.Context(), mux.Vars(r)["id"], attack)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleUnitRanges(w http.ResponseWriter, r *http.Request) {
	at, err := parseCoord(r, "at")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.UnitRanges(r.Context(), mux.Vars(r)["id"], at)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	from, err := parseCoord(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseCoord(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.FindPath(r.Context(), mux.Vars(r)["id"], from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleLineOfSight(w http.ResponseWriter, r *http.Request) {
	from, err := parseCoord(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseCoord(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.LineOfSight(r.Context(), mux.Vars(r)["id"], from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Content Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, levels)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	level, err := s.service.LoadLevel(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, level)
}

func (s *Server) handleSaveLevel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var level engine.LevelConfig
	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.SaveLevel(r.Context(), name, &level); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Level saved successfully",
		"level_id": engine.ContentID(name),
	})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.service.ListCards(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.service.ListCampaigns(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, campaigns)
}

// WebSocket Handlers

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}

	// Verify session exists
	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// handleClientMessage serves requests sent over a session's WebSocket
func (s *Server) handleClientMessage(sessionID string, msg websocket.ClientMessage) {
	ctx := context.Background()
	var err error

	switch msg.Action {
	case "tick":
		_, err = s.tick(ctx, sessionID, msg.ElapsedMS)
	case "end_turn":
		var result *service.EndTurnResponse
		if result, err = s.service.EndTurn(ctx, sessionID, false); err == nil {
			s.broadcast(sessionID, result.State)
			s.broadcastEvents(sessionID, result.Events)
		}
	case "auto_turn":
		var result *service.ActionResponse
		if result, err = s.service.AutoTurn(ctx, sessionID); err == nil {
			s.broadcast(sessionID, result.State)
			s.broadcastEvents(sessionID, result.Events)
		}
	default:
		s.logger.Debug("unknown client action", zap.String("session", sessionID), zap.String("action", msg.Action))
		return
	}

	if err != nil {
		s.logger.Warn("client action failed", zap.String("session", sessionID), zap.String("action", msg.Action), zap.Error(err))
	}
}

// RunTicker advances every session with connected WebSocket clients once per
// interval until ctx is done.
func (s *Server) RunTicker(ctx context.Context, interval time.Duration) {
	if s.hub == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.hub.ActiveSessions() {
				if _, err := s.tick(ctx, id, int(interval/time.Millisecond)); err != nil {
					s.logger.Debug("tick failed", zap.String("session", id), zap.Error(err))
				}
			}
		}
	}
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
