package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	votingledger "electra/contexts/election-core/voting-ledger"
	"electra/contexts/election-core/voting-ledger/application/commands"
	"electra/contexts/election-core/voting-ledger/domain/entities"
	domainerrors "electra/contexts/election-core/voting-ledger/domain/errors"
	ledgerhttp "electra/contexts/election-core/voting-ledger/transport/http"
	"electra/internal/platform/eventbus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "electra/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	ledger   votingledger.Module
	events   *eventbus.Bus
	gatherer prometheus.Gatherer
}

func New(
	ledger votingledger.Module,
	events *eventbus.Bus,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		ledger:   ledger,
		events:   events,
		gatherer: gatherer,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the assembled mux. Used by tests via httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.mux.HandleFunc("POST /v1/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /v1/elections", s.handleListElections)
	s.mux.HandleFunc("GET /v1/elections/{election_id}", s.handleGetElection)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/votes/{voter_id}", s.handleVoteStatus)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/transactions", s.handleElectionTransactions)
	s.mux.HandleFunc("GET /v1/transactions", s.handleTransactionHistory)
	s.mux.HandleFunc("GET /v1/chain/candidates/count", s.handleCandidateCount)
	s.mux.HandleFunc("GET /v1/chain/candidates/{candidate_id}/tally", s.handleCandidateTally)
	s.mux.HandleFunc("GET /v1/events", s.handleEventStream)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req ledgerhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.CreateElectionHandler(r.Context(), actor, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	resp, err := s.ledger.Handler.ListElectionsHandler(r.Context(), statusFilter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.ledger.Handler.GetElectionHandler(r.Context(), electionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req ledgerhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	electionID := r.PathValue("election_id")
	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), actor, electionID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVoteStatus(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	voterID := r.PathValue("voter_id")
	resp, err := s.ledger.Handler.VoteStatusHandler(r.Context(), electionID, voterID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionTransactions(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.ledger.Handler.ElectionTransactionsHandler(r.Context(), electionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	resp, err := s.ledger.Handler.TransactionHistoryHandler(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCandidateCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.CandidateCountHandler(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCandidateTally(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("candidate_id")
	resp, err := s.ledger.Handler.CandidateTallyHandler(r.Context(), candidateID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEventStream streams snapshot events over SSE. Clients pick event
// types with ?types=a,b; the default set covers the ledger read models.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotImplemented, "events_disabled", "event streaming is not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	eventTypes := defaultEventTypes()
	if raw := strings.TrimSpace(r.URL.Query().Get("types")); raw != "" {
		eventTypes = eventTypes[:0]
		for _, item := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				eventTypes = append(eventTypes, trimmed)
			}
		}
	}
	if len(eventTypes) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_types", "types must name at least one event type")
		return
	}

	merged := make(chan eventbus.Event, 16)
	done := r.Context().Done()
	for _, eventType := range eventTypes {
		subID, ch := s.events.Subscribe(eventType)
		defer s.events.Unsubscribe(eventType, subID)
		go func(ch <-chan eventbus.Event) {
			for evt := range ch {
				select {
				case merged <- evt:
				case <-done:
					return
				}
			}
		}(ch)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-done:
			return
		case evt := <-merged:
			payload, err := json.Marshal(evt.Payload)
			if err != nil {
				s.logger.Error("encode event payload",
					"event", "sse_encode_failed",
					"module", "internal/platform/httpserver",
					"layer", "platform",
					"type", evt.Type,
					"error", err,
				)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
			flusher.Flush()
		}
	}
}

func defaultEventTypes() []string {
	return []string{
		commands.EventElectionCreated,
		commands.EventElectionUpdated,
		commands.EventVoteRecorded,
		commands.EventTransactionAppended,
		commands.EventAccountChanged,
		commands.EventNetworkChanged,
	}
}

// actorFromRequest builds the request identity from headers. Role defaults
// to voter; admin must be claimed explicitly.
func actorFromRequest(r *http.Request) (entities.Actor, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return entities.Actor{}, false
	}
	role := entities.RoleVoter
	if strings.EqualFold(strings.TrimSpace(r.Header.Get("X-User-Role")), string(entities.RoleAdmin)) {
		role = entities.RoleAdmin
	}
	return entities.Actor{
		ActorID: userID,
		Role:    role,
		Account: strings.TrimSpace(r.Header.Get("X-Account")),
	}, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidElectionDraft):
		writeError(w, http.StatusBadRequest, "invalid_election_draft", err.Error())
	case errors.Is(err, domainerrors.ErrElectionNotFound):
		writeError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrUnknownCandidate):
		writeError(w, http.StatusNotFound, "unknown_candidate", err.Error())
	case errors.Is(err, domainerrors.ErrVoteNotFound):
		writeError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "transaction_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrElectionNotActive):
		writeError(w, http.StatusConflict, "election_not_active", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domainerrors.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, domainerrors.ErrSubmissionRejected):
		writeError(w, http.StatusUnprocessableEntity, "submission_rejected", err.Error())
	case errors.Is(err, domainerrors.ErrConfirmationTimeout):
		writeError(w, http.StatusGatewayTimeout, "confirmation_timeout", err.Error())
	case errors.Is(err, domainerrors.ErrChainUnavailable):
		writeError(w, http.StatusBadGateway, "chain_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
