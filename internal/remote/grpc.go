package remote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"github.com/vietddude/draftsync/internal/core/domain"
)

const (
	createAssistantMethod = "/draftsync.v1.AssistantService/CreateAssistant"
	listPresetsMethod     = "/draftsync.v1.AssistantService/ListPresets"

	// CodecName is the content-subtype used on the wire.
	CodecName = "json"

	idempotencyMetadataKey = "idempotency-key"
)

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// JSONCodec carries plain Go structs over gRPC as JSON.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSONCodec) Name() string { return CodecName }

// CreateAssistantRequest is the gRPC request body.
type CreateAssistantRequest struct {
	Payload domain.AssistantPayload `json:"payload"`
}

// ListPresetsRequest is the gRPC request body.
type ListPresetsRequest struct{}

// ListPresetsResponse is the gRPC response body.
type ListPresetsResponse struct {
	Presets []domain.Preset `json:"presets"`
}

// GRPCClient talks to the gRPC API. Errors are gRPC statuses.
type GRPCClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewGRPCClient connects to target. An https:// prefix or :443 port selects TLS.
func NewGRPCClient(target string, timeout time.Duration, extra ...grpc.DialOption) (*GRPCClient, error) {
	var opts []grpc.DialOption
	if strings.HasPrefix(target, "https://") || strings.HasSuffix(target, ":443") {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}
	opts = append(opts, grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)))
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", target, err)
	}
	return &GRPCClient{conn: conn, timeout: timeout}, nil
}

func (c *GRPCClient) CreateAssistant(ctx context.Context, payload domain.AssistantPayload) (*domain.AssistantRecord, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if key, ok := IdempotencyKey(ctx); ok {
		ctx = metadata.AppendToOutgoingContext(ctx, idempotencyMetadataKey, key)
	}

	var rec domain.AssistantRecord
	if err := c.conn.Invoke(ctx, createAssistantMethod, &CreateAssistantRequest{Payload: payload}, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("create assistant: response has no id")
	}
	return &rec, nil
}

func (c *GRPCClient) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	var resp ListPresetsResponse
	if err := c.conn.Invoke(ctx, listPresetsMethod, &ListPresetsRequest{}, &resp); err != nil {
		return nil, err
	}
	if resp.Presets == nil {
		resp.Presets = []domain.Preset{}
	}
	return resp.Presets, nil
}

// Close closes the connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
