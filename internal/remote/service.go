// Package remote holds the clients for the remote assistant service.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/draftsync/internal/core/domain"
)

// ErrOffline is returned without touching the network when the client is known to be offline.
var ErrOffline = errors.New("remote: offline")

// AssistantService creates assistant records.
type AssistantService interface {
	CreateAssistant(ctx context.Context, payload domain.AssistantPayload) (*domain.AssistantRecord, error)
}

// PresetSource lists the presets offered by the remote service.
type PresetSource interface {
	ListPresets(ctx context.Context) ([]domain.Preset, error)
}

// Client is a full remote client.
type Client interface {
	AssistantService
	PresetSource
	Close() error
}

// StatusError is a non-2xx response from the HTTP API.
type StatusError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *StatusError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("http %d: %s (field %s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

type idempotencyKey struct{}

// WithIdempotencyKey attaches the tempId of a pending write to ctx so that
// clients can send it along with the create call.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKey returns the key set by WithIdempotencyKey.
func IdempotencyKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKey{}).(string)
	return key, ok && key != ""
}

// OfflineGuard short-circuits calls with ErrOffline while online reports false.
type OfflineGuard struct {
	Client
	online func() bool
}

// NewOfflineGuard wraps c. online is consulted before every call.
func NewOfflineGuard(c Client, online func() bool) *OfflineGuard {
	return &OfflineGuard{Client: c, online: online}
}

func (g *OfflineGuard) CreateAssistant(ctx context.Context, payload domain.AssistantPayload) (*domain.AssistantRecord, error) {
	if !g.online() {
		return nil, ErrOffline
	}
	return g.Client.CreateAssistant(ctx, payload)
}

func (g *OfflineGuard) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	if !g.online() {
		return nil, ErrOffline
	}
	return g.Client.ListPresets(ctx)
}
