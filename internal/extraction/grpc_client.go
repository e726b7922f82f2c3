package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ashureev/wah-sales/internal/domain"
)

// grpcServicePath is the fully-qualified service name of the remote extractor.
// Requests and responses are google.protobuf.Struct messages.
const grpcServicePath = "/wahsales.extraction.v1.Extractor/"

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
	errServiceNotServing        = errors.New("extraction service not serving")
)

// GrpcClientConfig holds configuration for the gRPC extractor.
type GrpcClientConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// DefaultGrpcClientConfig returns default configuration.
func DefaultGrpcClientConfig() GrpcClientConfig {
	return GrpcClientConfig{
		Address:          "localhost:50051",
		ConnectTimeout:   5 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// GrpcExtractor delegates extraction to a remote service over gRPC.
type GrpcExtractor struct {
	conn   *grpc.ClientConn
	health grpc_health_v1.HealthClient
	addr   string
	logger *slog.Logger
}

var _ Extractor = (*GrpcExtractor)(nil)

// NewGrpcExtractor connects to the extraction service at addr and fails fast
// when it is not reachable.
func NewGrpcExtractor(addr string, logger *slog.Logger) (*GrpcExtractor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := DefaultGrpcClientConfig()
	if addr != "" {
		cfg.Address = addr
	}

	kacp := keepalive.ClientParameters{
		Time:                cfg.KeepaliveTime,
		Timeout:             cfg.KeepaliveTimeout,
		PermitWithoutStream: false,
	}

	conn, err := grpc.NewClient(cfg.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to extraction service at %s: %w", cfg.Address, err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close gRPC connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("extraction service at %s not ready: %w", cfg.Address, err)
	}

	logger.Info("Connected to extraction service", "address", cfg.Address)

	return &GrpcExtractor{
		conn:   conn,
		health: grpc_health_v1.NewHealthClient(conn),
		addr:   cfg.Address,
		logger: logger,
	}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Close closes the gRPC connection.
func (c *GrpcExtractor) Close() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("failed to close gRPC connection", "error", err)
		}
	}
}

// Ping checks the standard gRPC health service of the remote extractor.
func (c *GrpcExtractor) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", errServiceNotServing, resp.GetStatus())
	}
	return nil
}

// invoke calls one unary operation and returns the response as JSON so the
// shared wire decoders can validate it.
func (c *GrpcExtractor) invoke(ctx context.Context, op string, fields map[string]any) ([]byte, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, grpcServicePath+op, req, resp); err != nil {
		c.logger.Warn("Extraction call failed", "operation", op, "address", c.addr, "error", err)
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}

	raw, err := json.Marshal(resp.AsMap())
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return raw, nil
}

func profileFields(profile domain.CompleteProfile) map[string]any {
	return map[string]any{
		"para_quien":        profile.ForWhom,
		"edad":              profile.Age,
		"motivacion":        profile.Motivation,
		"objetivo":          profile.Objective,
		"tiempo_disponible": profile.AvailableTime,
	}
}

// ExtractInitialProfile implements Extractor.
func (c *GrpcExtractor) ExtractInitialProfile(ctx context.Context, text string) (domain.InitialProfile, error) {
	raw, err := c.invoke(ctx, OpExtractInitialProfile, map[string]any{"message": text})
	if err != nil {
		return domain.InitialProfile{}, failure(OpExtractInitialProfile, err)
	}
	profile, err := decodeInitialProfile(raw)
	if err != nil {
		return domain.InitialProfile{}, failure(OpExtractInitialProfile, err)
	}
	return profile, nil
}

// RecommendPlan implements Extractor.
func (c *GrpcExtractor) RecommendPlan(ctx context.Context, profile domain.CompleteProfile) (domain.PlanKey, error) {
	raw, err := c.invoke(ctx, OpRecommendPlan, map[string]any{"perfil": profileFields(profile)})
	if err != nil {
		return "", failure(OpRecommendPlan, err)
	}
	key, err := decodePlan(raw)
	if err != nil {
		return "", failure(OpRecommendPlan, err)
	}
	return key, nil
}

// GeneratePitch implements Extractor.
func (c *GrpcExtractor) GeneratePitch(ctx context.Context, profile domain.CompleteProfile, plan domain.Plan) (string, error) {
	raw, err := c.invoke(ctx, OpGeneratePitch, map[string]any{
		"perfil": profileFields(profile),
		"plan": map[string]any{
			"clave":       string(plan.Key),
			"nombre":      plan.Name,
			"precio":      plan.Price,
			"descripcion": plan.Description,
		},
	})
	if err != nil {
		return "", failure(OpGeneratePitch, err)
	}
	pitch, err := decodePitch(raw)
	if err != nil {
		return "", failure(OpGeneratePitch, err)
	}
	return pitch, nil
}

// ClassifyIntent implements Extractor.
func (c *GrpcExtractor) ClassifyIntent(ctx context.Context, text string) (domain.Intent, error) {
	raw, err := c.invoke(ctx, OpClassifyIntent, map[string]any{"message": text})
	if err != nil {
		return "", failure(OpClassifyIntent, err)
	}
	intent, err := decodeIntent(raw)
	if err != nil {
		return "", failure(OpClassifyIntent, err)
	}
	return intent, nil
}

// ExtractScheduling implements Extractor.
func (c *GrpcExtractor) ExtractScheduling(ctx context.Context, text string) (domain.SchedulingData, error) {
	raw, err := c.invoke(ctx, OpExtractScheduling, map[string]any{"message": text})
	if err != nil {
		return domain.SchedulingData{}, failure(OpExtractScheduling, err)
	}
	data, err := decodeScheduling(raw)
	if err != nil {
		return domain.SchedulingData{}, failure(OpExtractScheduling, err)
	}
	return data, nil
}
