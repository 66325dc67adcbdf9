package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linanwx/serifu/internal/health"
	"github.com/linanwx/serifu/logger"
	"github.com/linanwx/serifu/provider"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	maxBodyBytes     = 1 << 20
	isoMillis        = "2006-01-02T15:04:05.000Z07:00"
	shutdownTimeout  = 5 * time.Second
	requestIDHeader  = "X-Request-ID"
	readHeaderLimits = 10 * time.Second
)

// HandlerConfig configures the gateway handler.
type HandlerConfig struct {
	Provider            provider.Provider
	SystemPrompt        string
	ContextWindowTokens int
	ContextWarnRatio    float64
}

// Handler serves the chat endpoint. It keeps no per-request state.
type Handler struct {
	provider     provider.Provider
	systemPrompt string
	warnTokens   int
	now          func() time.Time
}

// NewHandler creates the gateway handler. An empty system prompt uses the
// embedded default.
func NewHandler(cfg HandlerConfig) *Handler {
	prompt := strings.TrimSpace(cfg.SystemPrompt)
	if prompt == "" {
		prompt = DefaultSystemPrompt()
	}
	warn := 0
	if cfg.ContextWindowTokens > 0 && cfg.ContextWarnRatio > 0 {
		warn = int(float64(cfg.ContextWindowTokens) * cfg.ContextWarnRatio)
	}
	return &Handler{
		provider:     cfg.Provider,
		systemPrompt: prompt,
		warnTokens:   warn,
		now:          time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set(requestIDHeader, reqID)

	switch r.Method {
	case http.MethodPost:
		h.handleChat(w, r, reqID)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, StatusResponse{Message: statusMessage, Methods: []string{http.MethodPost}})
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	}
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request, reqID string) {
	start := h.now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !gjson.ValidBytes(body) {
		logger.Warn("gateway invalid body", "requestID", reqID, "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errInvalidMessage})
		return
	}
	msg := gjson.GetBytes(body, "message")
	if msg.Type != gjson.String || msg.Str == "" {
		logger.Warn("gateway invalid message", "requestID", reqID, "type", msg.Type.String())
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errInvalidMessage})
		return
	}
	message := msg.Str
	history := parseHistory(gjson.GetBytes(body, "conversationHistory"))

	reply, err := h.reply(r.Context(), reqID, message, history)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: errInternal})
		return
	}

	logger.Info(
		"gateway response",
		"requestID", reqID,
		"replyChars", len([]rune(reply)),
		"latencyMs", h.now().Sub(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  reply,
		Timestamp: h.now().UTC().Format(isoMillis),
	})
}

// parseHistory reads prior turns leniently. A missing or non-array value is
// no history; entries keep their raw type so only an exact "user" maps to
// the user role.
func parseHistory(v gjson.Result) []HistoryEntry {
	if !v.IsArray() {
		return nil
	}
	var out []HistoryEntry
	v.ForEach(func(_, entry gjson.Result) bool {
		out = append(out, HistoryEntry{
			Type:    entry.Get("type").String(),
			Content: entry.Get("content").String(),
		})
		return true
	})
	return out
}

// Chat answers req in-process, without the HTTP hop. It lets a Handler stand
// in for a remote gateway.
func (h *Handler) Chat(ctx context.Context, req Request) (string, error) {
	if req.Message == "" {
		return "", errors.New(errInvalidMessage)
	}
	return h.reply(ctx, uuid.NewString(), req.Message, req.Wire().ConversationHistory)
}

func (h *Handler) reply(ctx context.Context, reqID, message string, history []HistoryEntry) (string, error) {
	messages := BuildMessages(h.systemPrompt, history, message)
	estimated := EstimateTokens(messages)
	logger.Info(
		"gateway request",
		"requestID", reqID,
		"historyLen", len(history),
		"messageChars", len([]rune(message)),
		"estimatedTokens", estimated,
	)
	if h.warnTokens > 0 && estimated > h.warnTokens {
		logger.Warn("gateway context nearing window", "requestID", reqID, "estimatedTokens", estimated, "warnAt", h.warnTokens)
	}

	resp, err := h.provider.Chat(ctx, &provider.Request{Messages: messages})
	if err != nil {
		logger.Error("gateway upstream error", "requestID", reqID, "err", err)
		return "", fmt.Errorf("upstream: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("gateway write error", "err", err)
	}
}

const healthPath = "/healthz"

// Server hosts the handler on an address and path. A non-nil Health also
// serves process diagnostics on /healthz.
type Server struct {
	Addr    string
	Path    string
	Handler http.Handler
	Health  *health.Options
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	path := s.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, s.Handler)
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" && trimmed != path {
		mux.Handle(trimmed, s.Handler)
	}
	if s.Health != nil && path != healthPath {
		opts := *s.Health
		mux.HandleFunc(healthPath, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, health.Collect(opts, time.Now()))
		})
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderLimits}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gateway listening", "addr", ln.Addr().String(), "path", path)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("gateway stopped")
		return nil
	})
	return g.Wait()
}
