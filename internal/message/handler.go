package message

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/cv-autofill/internal/fill"
	"github.com/jonathan/cv-autofill/internal/profile"
	"github.com/jonathan/cv-autofill/internal/schemas"
	"github.com/jonathan/cv-autofill/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Engine is the fill engine of one page.
type Engine interface {
	Fill(ctx context.Context, p types.Profile, s types.Settings, opts fill.Options) *types.FillReport
	Frame(ctx context.Context) types.FrameInfo
}

// Handler answers messages for one page. FILL_FORM requests run one at a
// time; settings persist between requests like the page's own state.
type Handler struct {
	engine   Engine
	validate *validator.Validate
	level    zap.AtomicLevel
	logger   *zap.Logger

	mu       sync.Mutex
	settings types.Settings
	enabled  []types.FieldType
}

// NewHandler creates a handler starting from settings. level is flipped
// between debug and info whenever the debug setting changes.
func NewHandler(engine Engine, settings types.Settings, level zap.AtomicLevel, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		engine:   engine,
		validate: validator.New(),
		level:    level,
		logger:   logger,
		settings: settings,
	}
	h.applyLevel(settings.Debug)
	return h
}

// Settings returns the current settings.
func (h *Handler) Settings() types.Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

// SetSettings replaces the current settings, e.g. after a config reload.
func (h *Handler) SetSettings(s types.Settings) {
	h.mu.Lock()
	h.settings = s
	h.mu.Unlock()
	h.applyLevel(s.Debug)
}

// SetEnabledTypes sets the types used when a request omits enabledTypes.
// nil means all types; an empty list means none.
func (h *Handler) SetEnabledTypes(enabled []types.FieldType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if enabled == nil {
		h.enabled = nil
		return
	}
	h.enabled = make([]types.FieldType, len(enabled))
	copy(h.enabled, enabled)
}

// Handle decodes, validates and answers one message.
func (h *Handler) Handle(ctx context.Context, raw []byte) Response {
	req, err := h.decode(raw)
	if err != nil {
		h.logger.Warn("Rejected message", zap.Error(err))
		return Response{OK: false, Error: err.Error()}
	}

	switch req.Action {
	case ActionPing:
		fi := h.engine.Frame(ctx)
		return Response{OK: true, Href: fi.Href, Frame: fi.Frame}
	case ActionToggleDebug:
		return h.toggleDebug(ctx, req.Debug != nil && *req.Debug)
	default:
		return h.fillForm(ctx, req)
	}
}

func (h *Handler) decode(raw []byte) (*Request, error) {
	if err := schemas.ValidateMessage(raw); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return nil, &Error{Message: ve.Summary()}
		}
		return nil, &Error{Message: "malformed JSON", Cause: err}
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, &Error{Message: "malformed request", Cause: err}
	}
	if err := h.validate.Struct(&req); err != nil {
		return nil, &Error{Message: "request failed validation", Cause: err}
	}
	return &req, nil
}

func (h *Handler) toggleDebug(ctx context.Context, debug bool) Response {
	h.mu.Lock()
	h.settings.Debug = debug
	h.mu.Unlock()
	h.applyLevel(debug)

	fi := h.engine.Frame(ctx)
	return Response{OK: true, Debug: &debug, Href: fi.Href, Frame: fi.Frame}
}

func (h *Handler) fillForm(ctx context.Context, req *Request) Response {
	p, warnings := profile.FromMap(req.Profile)
	for _, w := range warnings {
		h.logger.Debug("Profile warning", zap.String("warning", w))
	}

	var opts fill.Options
	if req.Options != nil {
		opts = *req.Options
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.settings = req.Settings.Apply(h.settings)
	h.applyLevel(h.settings.Debug)
	if opts.EnabledTypes == nil {
		opts.EnabledTypes = h.enabled
	}

	r := h.engine.Fill(ctx, p, h.settings, opts)
	return Response{OK: true, Report: r}
}

func (h *Handler) applyLevel(debug bool) {
	if debug {
		h.level.SetLevel(zapcore.DebugLevel)
		return
	}
	h.level.SetLevel(zapcore.InfoLevel)
}
