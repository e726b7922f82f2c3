package extraction

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ashureev/wah-sales/internal/domain"
)

// startExtractionServer serves every extraction method with a canned reply
// keyed by the method name.
func startExtractionServer(t *testing.T, replies map[string]map[string]any) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := grpc.NewServer(grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
		method, _ := grpc.MethodFromServerStream(stream)
		op := strings.TrimPrefix(method, grpcServicePath)

		req := &structpb.Struct{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		reply, ok := replies[op]
		if !ok {
			return status.Errorf(codes.Unimplemented, "no reply for %s", op)
		}
		resp, err := structpb.NewStruct(reply)
		if err != nil {
			return err
		}
		return stream.SendMsg(resp)
	}))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, healthSrv)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().String()
}

func TestGrpcExtractorRoundTrip(t *testing.T) {
	addr := startExtractionServer(t, map[string]map[string]any{
		OpExtractInitialProfile: {"para_quien": "mi hija", "edad": 10},
		OpRecommendPlan:         {"plan_recomendado": "intermedio"},
		OpGeneratePitch:         {"propuesta": "El plan Impulsa es perfecto."},
		OpClassifyIntent:        {"intencion": "afirmativa"},
		OpExtractScheduling:     {"numero_telefono": "5551234567", "dia_preferido": "jueves"},
	})

	ex, err := NewGrpcExtractor(addr, nil)
	if err != nil {
		t.Fatalf("NewGrpcExtractor failed: %v", err)
	}
	defer ex.Close()

	ctx := context.Background()
	if err := ex.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	profile, err := ex.ExtractInitialProfile(ctx, "para mi hija de 10")
	if err != nil {
		t.Fatalf("ExtractInitialProfile: %v", err)
	}
	if profile.ForWhom != "mi hija" || profile.Age != 10 {
		t.Errorf("unexpected profile: %+v", profile)
	}

	complete := domain.CompleteProfile{ForWhom: "mi hija", Age: 10, Motivation: "música", Objective: "tocar", AvailableTime: "3 horas"}
	key, err := ex.RecommendPlan(ctx, complete)
	if err != nil || key != domain.PlanIntermediate {
		t.Errorf("RecommendPlan = %q, %v", key, err)
	}

	plan, _ := domain.LookupPlan(key)
	pitch, err := ex.GeneratePitch(ctx, complete, plan)
	if err != nil || pitch == "" {
		t.Errorf("GeneratePitch = %q, %v", pitch, err)
	}

	intent, err := ex.ClassifyIntent(ctx, "sí")
	if err != nil || intent != domain.IntentAffirmative {
		t.Errorf("ClassifyIntent = %q, %v", intent, err)
	}

	data, err := ex.ExtractScheduling(ctx, "5551234567 el jueves")
	if err != nil {
		t.Fatalf("ExtractScheduling: %v", err)
	}
	if data.Phone != "5551234567" || data.Day == nil || *data.Day != "jueves" || data.Time != nil {
		t.Errorf("unexpected scheduling data: %+v", data)
	}
}

func TestGrpcExtractorRemoteErrorIsExtractionFailure(t *testing.T) {
	addr := startExtractionServer(t, map[string]map[string]any{})

	ex, err := NewGrpcExtractor(addr, nil)
	if err != nil {
		t.Fatalf("NewGrpcExtractor failed: %v", err)
	}
	defer ex.Close()

	_, err = ex.ClassifyIntent(context.Background(), "sí")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}
