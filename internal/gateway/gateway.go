package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"lendshare/internal/config"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HeaderUserID identifies the caller on forwarded requests.
const HeaderUserID = "X-Sharer-User-Id"

// Gateway validates inbound request shape and forwards everything else
// verbatim to the core service.
type Gateway struct {
	cfg      config.GatewayConfig
	client   *http.Client
	logger   *zerolog.Logger
	limiters sync.Map // map[string]*rate.Limiter
	server   *http.Server
}

func New(cfg config.GatewayConfig, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		logger: logger,
	}

	mux := http.NewServeMux()
	g.routes(mux)

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           g.rateLimit(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return g
}

func (g *Gateway) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", g.validateCreateUser)
	mux.HandleFunc("PATCH /users/{id}", g.validateUpdateUser)
	mux.HandleFunc("GET /users/{id}", g.forward)
	mux.HandleFunc("GET /users", g.forward)
	mux.HandleFunc("DELETE /users/{id}", g.forward)

	mux.HandleFunc("POST /items", g.validateCreateItem)
	mux.HandleFunc("PATCH /items/{id}", g.requireHeader(g.forward))
	mux.HandleFunc("GET /items/{id}", g.requireHeader(g.forward))
	mux.HandleFunc("GET /items", g.requireHeader(g.requirePaging(g.forward)))
	mux.HandleFunc("GET /items/search", g.requireHeader(g.requirePaging(g.forward)))
	mux.HandleFunc("POST /items/{id}/comment", g.validateAddComment)

	mux.HandleFunc("POST /bookings", g.validateCreateBooking)
	mux.HandleFunc("PATCH /bookings/{id}", g.validateDecideBooking)
	mux.HandleFunc("GET /bookings/{id}", g.requireHeader(g.forward))
	mux.HandleFunc("GET /bookings", g.requireHeader(g.requireState(g.requirePaging(g.forward))))
	mux.HandleFunc("GET /bookings/owner", g.requireHeader(g.requireState(g.requirePaging(g.forward))))
	mux.HandleFunc("GET /bookings/owner/export", g.requireHeader(g.forward))

	mux.HandleFunc("POST /requests", g.validateCreateRequest)
	mux.HandleFunc("GET /requests", g.requireHeader(g.forward))
	mux.HandleFunc("GET /requests/all", g.requireHeader(g.requirePaging(g.forward)))
	mux.HandleFunc("GET /requests/{id}", g.requireHeader(g.forward))
}

// Handler returns the root handler, used by tests.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Str("upstream", g.cfg.ServerURL).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

// Validation middleware

func (g *Gateway) requireHeader(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderUserID)
		if raw == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", HeaderUserID))
			return
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header must be a positive integer", HeaderUserID))
			return
		}
		next(w, r)
	}
}

func (g *Gateway) requirePaging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("from"); raw != "" {
			if from, err := strconv.Atoi(raw); err != nil || from < 0 {
				writeError(w, http.StatusBadRequest, "from must be a non-negative integer")
				return
			}
		}
		if raw := r.URL.Query().Get("size"); raw != "" {
			if size, err := strconv.Atoi(raw); err != nil || size <= 0 {
				writeError(w, http.StatusBadRequest, "size must be a positive integer")
				return
			}
		}
		next(w, r)
	}
}

func (g *Gateway) requireState(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if state := r.URL.Query().Get("state"); state != "" && !models.KnownFilter(state) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown state: %s", state))
			return
		}
		next(w, r)
	}
}

func (g *Gateway) validateCreateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	body, ok := g.decodeBody(w, r, &user)
	if !ok {
		return
	}
	if strings.TrimSpace(user.Name) == "" {
		writeError(w, http.StatusBadRequest, "name must not be blank")
		return
	}
	if !validEmail(user.Email) {
		writeError(w, http.StatusBadRequest, "email must be a valid address")
		return
	}
	g.forwardBody(w, r, body)
}

func (g *Gateway) validateUpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	body, ok := g.decodeBody(w, r, &patch)
	if !ok {
		return
	}
	if patch.Email != nil && !validEmail(*patch.Email) {
		writeError(w, http.StatusBadRequest, "email must be a valid address")
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		writeError(w, http.StatusBadRequest, "name must not be blank")
		return
	}
	g.forwardBody(w, r, body)
}

func (g *Gateway) validateCreateItem(w http.ResponseWriter, r *http.Request) {
	g.requireHeader(func(w http.ResponseWriter, r *http.Request) {
		var in models.ItemCreate
		body, ok := g.decodeBody(w, r, &in)
		if !ok {
			return
		}
		if strings.TrimSpace(in.Name) == "" {
			writeError(w, http.StatusBadRequest, "name must not be blank")
			return
		}
		if strings.TrimSpace(in.Description) == "" {
			writeError(w, http.StatusBadRequest, "description must not be blank")
			return
		}
		if in.Available == nil {
			writeError(w, http.StatusBadRequest, "available is required")
			return
		}
		g.forwardBody(w, r, body)
	})(w, r)
}

func (g *Gateway) validateAddComment(w http.ResponseWriter, r *http.Request) {
	g.requireHeader(func(w http.ResponseWriter, r *http.Request) {
		var in models.CommentCreate
		body, ok := g.decodeBody(w, r, &in)
		if !ok {
			return
		}
		if strings.TrimSpace(in.Text) == "" {
			writeError(w, http.StatusBadRequest, "text must not be blank")
			return
		}
		g.forwardBody(w, r, body)
	})(w, r)
}

func (g *Gateway) validateCreateBooking(w http.ResponseWriter, r *http.Request) {
	g.requireHeader(func(w http.ResponseWriter, r *http.Request) {
		var in models.BookingCreate
		body, ok := g.decodeBody(w, r, &in)
		if !ok {
			return
		}
		if in.ItemID <= 0 {
			writeError(w, http.StatusBadRequest, "itemId is required")
			return
		}
		if in.Start.IsZero() || in.End.IsZero() {
			writeError(w, http.StatusBadRequest, "start and end are required")
			return
		}
		if !in.End.Time.After(in.Start.Time) {
			writeError(w, http.StatusBadRequest, "end must be after start")
			return
		}
		g.forwardBody(w, r, body)
	})(w, r)
}

func (g *Gateway) validateDecideBooking(w http.ResponseWriter, r *http.Request) {
	g.requireHeader(func(w http.ResponseWriter, r *http.Request) {
		if _, err := strconv.ParseBool(r.URL.Query().Get("approved")); err != nil {
			writeError(w, http.StatusBadRequest, "approved must be true or false")
			return
		}
		g.forward(w, r)
	})(w, r)
}

func (g *Gateway) validateCreateRequest(w http.ResponseWriter, r *http.Request) {
	g.requireHeader(func(w http.ResponseWriter, r *http.Request) {
		var in models.RequestCreate
		body, ok := g.decodeBody(w, r, &in)
		if !ok {
			return
		}
		if strings.TrimSpace(in.Description) == "" {
			writeError(w, http.StatusBadRequest, "description must not be blank")
			return
		}
		g.forwardBody(w, r, body)
	})(w, r)
}

// decodeBody reads the full body so it can be both validated and forwarded.
func (g *Gateway) decodeBody(w http.ResponseWriter, r *http.Request, dst any) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return nil, false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return body, true
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.Contains(email, " ")
}

// Forwarding

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	g.forwardBody(w, r, body)
}

func (g *Gateway) forwardBody(w http.ResponseWriter, r *http.Request, body []byte) {
	url := g.cfg.ServerURL + r.URL.RequestURI()
	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}
	req.Header = r.Header.Clone()

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("url", url).Msg("upstream request failed")
		writeError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// Rate limiting

func (g *Gateway) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.cfg.RateLimit.RPS > 0 {
			lim := g.getLimiter(g.clientKey(r))
			if !lim.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) clientKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (g *Gateway) getLimiter(key string) *rate.Limiter {
	if v, ok := g.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := g.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(g.cfg.RateLimit.RPS), burst)
	actual, loaded := g.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
