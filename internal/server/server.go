// Package server exposes the HTTP API: session lifecycle, screen actions,
// document and text intake, streamed chat and flashcard operations.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bigm-o/Flash-mind/internal/app"
	"github.com/bigm-o/Flash-mind/internal/util"
	"github.com/bigm-o/Flash-mind/pkg/ai"
	"github.com/bigm-o/Flash-mind/pkg/domain"
	"github.com/bigm-o/Flash-mind/pkg/extract"
	"github.com/bigm-o/Flash-mind/pkg/flashcard"
	"github.com/bigm-o/Flash-mind/pkg/mail"
)

// Limiter caps model-backed calls per session.
type Limiter interface {
	Allow(sessionID string) bool
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// MaxUploadBytes caps document upload size; 0 disables the cap.
	MaxUploadBytes int64
	// Limiter may be nil; model-backed endpoints are then unthrottled.
	Limiter Limiter
}

// Server exposes HTTP endpoints for the tutoring service.
type Server struct {
	app            *app.App
	maxUploadBytes int64
	limiter        Limiter
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		maxUploadBytes: cfg.MaxUploadBytes,
		limiter:        cfg.Limiter,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) allowModelCall(w http.ResponseWriter, id string) bool {
	if s.limiter == nil {
		return true
	}
	if s.limiter.Allow(id) {
		return true
	}
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again shortly")
	return false
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/sessions", s.handleSessions)
	s.mux.HandleFunc("/api/sessions/", s.handleSessionByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	state, err := s.app.CreateSession()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(state))
}

// /api/sessions/{id} or /api/sessions/{id}/{action...}
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSession(w, r, id)
		case http.MethodDelete:
			s.handleEndSession(w, r, id)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch parts[1] {
	case "actions":
		s.post(w, r, id, s.handleAction)
	case "document":
		s.post(w, r, id, s.handleDocument)
	case "text":
		s.post(w, r, id, s.handleText)
	case "messages":
		s.post(w, r, id, s.handleMessage)
	case "flashcards":
		s.post(w, r, id, s.handleFlashcards)
	case "flashcards/html":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleFlashcardsHTML(w, r, id)
	case "email":
		s.post(w, r, id, s.handleEmail)
	default:
		notFound(w, "not found")
	}
}

type sessionHandler func(http.ResponseWriter, *http.Request, string)

func (s *Server) post(w http.ResponseWriter, r *http.Request, id string, next sessionHandler) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	next(w, r, id)
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, id string) {
	state, err := s.app.GetSession(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(state))
}

func (s *Server) handleEndSession(w http.ResponseWriter, _ *http.Request, id string) {
	if _, err := s.app.GetSession(id); err != nil {
		writeAppError(w, err)
		return
	}
	if err := s.app.EndSession(id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, id string) {
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var (
		state domain.SessionState
		err   error
	)
	switch req.Action {
	case "choose_upload":
		state, err = s.app.ChooseUpload(id)
	case "choose_paste":
		state, err = s.app.ChoosePaste(id)
	case "back":
		state, err = s.app.GoBack(id)
	case "toggle_email_form":
		state, err = s.app.ToggleEmailForm(id)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(state))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, id string) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	state, err := s.app.SubmitDocument(r.Context(), id, header.Filename, data)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(state))
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request, id string) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	state, err := s.app.SubmitText(r.Context(), id, req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(state))
}

// handleMessage streams the model reply as server-sent events: one data event
// per chunk, a done event after the transcript is committed, or an error
// event if the stream fails after headers were sent.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request, id string) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.allowModelCall(w, id) {
		return
	}
	// Cheap preconditions are rejected as plain JSON before the response
	// commits to an event stream. The controller re-validates under its
	// session lock; failures past this point arrive as error events.
	if strings.TrimSpace(req.Text) == "" {
		writeAppError(w, app.ErrEmptyMessage)
		return
	}
	current, err := s.app.GetSession(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if current.Screen != domain.ScreenChatting {
		writeAppError(w, app.ErrInvalidTransition)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	state, err := s.app.SendMessage(r.Context(), id, req.Text, func(chunk string) {
		writeSSEData(w, chunk)
		flusher.Flush()
	})
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("chat turn failed", "err", err)
		writeSSEEvent(w, "error", errorPayload(err))
		flusher.Flush()
		return
	}
	// The done event carries the committed assistant message.
	committed, err := json.Marshal(state.Messages[len(state.Messages)-1])
	if err != nil {
		committed = []byte("{}")
	}
	writeSSEEvent(w, "done", string(committed))
	flusher.Flush()
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request, id string) {
	var req flashcardsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.allowModelCall(w, id) {
		return
	}
	state, err := s.app.GenerateFlashcards(r.Context(), id, req.MessageIndex)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(state))
}

func (s *Server) handleFlashcardsHTML(w http.ResponseWriter, _ *http.Request, id string) {
	state, err := s.app.GetSession(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if len(state.Flashcards) == 0 {
		writeError(w, http.StatusNotFound, "no flashcards generated")
		return
	}
	page, err := flashcard.RenderInteractive(state.Flashcards)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render flashcards")
		return
	}
	// The flip-card page carries its style and flip handler inline, so the
	// API-wide deny-all policy must be relaxed for this one response.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; script-src 'unsafe-inline'")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, page)
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request, id string) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	state, err := s.app.EmailFlashcards(r.Context(), id, req.Recipient)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(state))
}

type actionRequest struct {
	Action string `json:"action"`
}

type textRequest struct {
	Text string `json:"text"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type flashcardsRequest struct {
	MessageIndex int `json:"messageIndex"`
}

type emailRequest struct {
	Recipient string `json:"recipient"`
}

// sessionResponse is the API view of a session. The raw document text stays
// server-side; only its length is reported.
type sessionResponse struct {
	ID                         string             `json:"id"`
	Screen                     domain.Screen      `json:"screen"`
	SubjectTitle               string             `json:"subjectTitle,omitempty"`
	DocumentLength             int                `json:"documentLength"`
	Messages                   []domain.Message   `json:"messages"`
	Flashcards                 []domain.Flashcard `json:"flashcards,omitempty"`
	FlashcardsSourceIndex      int                `json:"flashcardsSourceIndex"`
	EmailFormVisible           bool               `json:"emailFormVisible"`
	InitialFlashcardsGenerated bool               `json:"initialFlashcardsGenerated"`
	CreatedAt                  time.Time          `json:"createdAt"`
	UpdatedAt                  time.Time          `json:"updatedAt"`
}

func sessionView(state domain.SessionState) sessionResponse {
	return sessionResponse{
		ID:                         state.ID,
		Screen:                     state.Screen,
		SubjectTitle:               state.SubjectTitle,
		DocumentLength:             len([]rune(state.DocumentText)),
		Messages:                   state.Messages,
		Flashcards:                 state.Flashcards,
		FlashcardsSourceIndex:      state.FlashcardsSourceIndex,
		EmailFormVisible:           state.EmailFormVisible,
		InitialFlashcardsGenerated: state.InitialFlashcardsGenerated,
		CreatedAt:                  state.CreatedAt,
		UpdatedAt:                  state.UpdatedAt,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps controller errors onto HTTP statuses: validation
// failures are 400, unknown sessions 404, wrong-screen actions 409, upstream
// gateway and delivery failures 502, missing email configuration 503.
func writeAppError(w http.ResponseWriter, err error) {
	var (
		apiErr      *ai.APIError
		deliveryErr *mail.DeliveryError
		decodeErr   *extract.DecodeError
	)
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, app.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrEmptyText),
		errors.Is(err, app.ErrTextTooLong),
		errors.Is(err, app.ErrEmptyMessage),
		errors.Is(err, app.ErrInvalidMessageIndex),
		errors.Is(err, app.ErrNoFlashcards),
		errors.Is(err, app.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "email delivery is not configured")
	case errors.Is(err, extract.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &decodeErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrGateway), errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, "language model unavailable")
	case errors.As(err, &deliveryErr):
		writeError(w, http.StatusBadGateway, "email delivery failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func errorPayload(err error) string {
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return `{"error":"internal error"}`
	}
	return string(payload)
}

// writeSSEData emits one data event. Multi-line chunks become multiple data
// lines of the same event per the SSE framing rules.
func writeSSEData(w io.Writer, chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		_, _ = io.WriteString(w, "data: "+line+"\n")
	}
	_, _ = io.WriteString(w, "\n")
}

func writeSSEEvent(w io.Writer, event, data string) {
	_, _ = io.WriteString(w, "event: "+event+"\n")
	_, _ = io.WriteString(w, "data: "+data+"\n\n")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}
