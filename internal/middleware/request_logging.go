package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"depot-backend/internal/metrics"
	"depot-backend/internal/models"
)

const (
	userNoteKey      contextKey = "user_note"
	requestLogBuffer = 1000
)

// RequestLogWriter persists request log rows
type RequestLogWriter interface {
	Insert(ctx context.Context, entry *models.RequestLog) error
}

// RequestLogger records every API request to the request_logs table from a
// single background goroutine. When the buffer is full entries are dropped.
type RequestLogger struct {
	repo    RequestLogWriter
	log     *zap.Logger
	entries chan *models.RequestLog
	done    chan struct{}
	once    sync.Once
}

// userNote is filled in by the auth middleware further down the chain
type userNote struct {
	mu    sync.Mutex
	id    int
	email string
}

func noteUser(ctx context.Context, user *models.User) {
	if n, ok := ctx.Value(userNoteKey).(*userNote); ok {
		n.mu.Lock()
		n.id, n.email = user.ID, user.Email
		n.mu.Unlock()
	}
}

func NewRequestLogger(repo RequestLogWriter, log *zap.Logger) *RequestLogger {
	l := &RequestLogger{
		repo:    repo,
		log:     log,
		entries: make(chan *models.RequestLog, requestLogBuffer),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *RequestLogger) run() {
	defer close(l.done)
	for entry := range l.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.repo.Insert(ctx, entry); err != nil {
			l.log.Warn("request log insert failed", zap.Error(err))
		}
		cancel()
	}
}

// Handler returns the middleware handler
func (l *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		note := &userNote{}
		r = r.WithContext(context.WithValue(r.Context(), userNoteKey, note))
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		entry := &models.RequestLog{
			Method:     r.Method,
			Path:       sanitizePath(r.URL.Path),
			Status:     wrapped.statusCode,
			DurationMs: time.Since(start).Milliseconds(),
			IPAddress:  getClientIP(r),
			UserAgent:  r.UserAgent(),
			CreatedAt:  time.Now(),
		}
		note.mu.Lock()
		if note.id != 0 {
			id := note.id
			entry.UserID = &id
			entry.UserEmail = note.email
		}
		note.mu.Unlock()

		l.enqueue(entry)
	})
}

func (l *RequestLogger) enqueue(entry *models.RequestLog) {
	select {
	case l.entries <- entry:
	default:
		metrics.RequestLogsDropped.Inc()
		l.log.Warn("request log buffer full, dropping entry", zap.String("path", entry.Path))
	}
}

// Close stops accepting entries and waits for the writer to drain
func (l *RequestLogger) Close() {
	l.once.Do(func() {
		close(l.entries)
		<-l.done
	})
}

func shouldSkipLogging(path string) bool {
	for _, skip := range []string{"/health", "/metrics", "/favicon.ico", "/ws/"} {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

func sanitizePath(path string) string {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 500 {
		path = path[:500]
	}
	return path
}

// getClientIP prefers proxy headers over RemoteAddr
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
