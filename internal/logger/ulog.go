// Package logger is the structured logger shared by the levigram binaries.
//
// Every record carries svc=levigram and the component that emitted it (api,
// worker, migrate). Records logged with a request context also carry the
// caller (uid), the draft being edited (draft) and the chi request ID (req).
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fhuszti/levigram-go/internal/api_context"
)

var std *slog.Logger

// requestAttrHandler decorates records with what the context knows about the request.
type requestAttrHandler struct{ h slog.Handler }

func (u requestAttrHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return u.h.Enabled(ctx, lvl)
}

func (u requestAttrHandler) Handle(ctx context.Context, r slog.Record) error {
	switch uid, ok := api_context.AuthUserIDFromContext(ctx); {
	case ok && uid != "":
		r.AddAttrs(slog.String("uid", uid))
	case hasToken(ctx):
		// the token itself is a credential and never logged
		r.AddAttrs(slog.String("uid", "anonymous-token"))
	default:
		r.AddAttrs(slog.String("uid", "system"))
	}
	if draftID, ok := api_context.DraftIDFromContext(ctx); ok {
		r.AddAttrs(slog.String("draft", draftID.String()))
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		r.AddAttrs(slog.String("req", reqID))
	}
	return u.h.Handle(ctx, r)
}

func hasToken(ctx context.Context) bool {
	tok, ok := api_context.AuthTokenFromContext(ctx)
	return ok && tok != ""
}

func (u requestAttrHandler) WithAttrs(a []slog.Attr) slog.Handler {
	return requestAttrHandler{h: u.h.WithAttrs(a)}
}

func (u requestAttrHandler) WithGroup(n string) slog.Handler {
	return requestAttrHandler{h: u.h.WithGroup(n)}
}

// Init installs the process logger for component and routes the standard
// library log package through it.
//
//	LOG_FORMAT    json|text (default: json)
//	LOG_LEVEL     debug|info|warn|error (default: info)
//	LOG_SOURCE    true|false (default: false)
func Init(component string) {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(os.Getenv("LOG_LEVEL")),
		AddSource: parseBool(os.Getenv("LOG_SOURCE")),
	}
	base := newHandler(os.Stdout, os.Getenv("LOG_FORMAT"), opts)

	std = newLogger(base, component)
	slog.SetDefault(std)

	// log.Printf callers have no context, hence no uid
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(base, slog.LevelInfo).Writer())
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func newLogger(base slog.Handler, component string) *slog.Logger {
	return slog.New(requestAttrHandler{h: base}).With("svc", "levigram", "component", component)
}

// parseLevel falls back to info on anything slog does not understand.
func parseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func activeLogger() *slog.Logger {
	if std != nil {
		return std
	}
	return slog.Default()
}

func Info(ctx context.Context, msg string, attrs ...any) {
	activeLogger().InfoContext(ctx, msg, attrs...)
}

func Warn(ctx context.Context, msg string, attrs ...any) {
	activeLogger().WarnContext(ctx, msg, attrs...)
}

func Error(ctx context.Context, msg string, attrs ...any) {
	activeLogger().ErrorContext(ctx, msg, attrs...)
}

func Debug(ctx context.Context, msg string, attrs ...any) {
	activeLogger().DebugContext(ctx, msg, attrs...)
}

// logf skips the formatting when lvl is disabled; the pipeline logs per file at debug.
func logf(ctx context.Context, lvl slog.Level, format string, a ...any) {
	l := activeLogger()
	if !l.Enabled(ctx, lvl) {
		return
	}
	l.Log(ctx, lvl, fmt.Sprintf(format, a...))
}

func Infof(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelInfo, format, a...)
}

func Warnf(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelWarn, format, a...)
}

func Errorf(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelError, format, a...)
}

func Debugf(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelDebug, format, a...)
}
