package grpcapi

import (
	"context"
	"errors"
	"time"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
	"amplification-report/app/src/shared/constants"
	sharederrors "amplification-report/app/src/shared/errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NewServer constructs a gRPC server exposing amplification.v1.RunService.
func NewServer(service domain.RunService, logger *infra.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		loggingInterceptor(logger),
		infra.GRPCUnaryInterceptor(),
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterRunServiceServer(server, &runServer{service: service})
	return server
}

type runServer struct {
	service domain.RunService
}

func (s *runServer) GetRun(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request must not be nil")
	}

	id, err := constants.ParseRunID(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid run id format")
	}

	run, err := s.service.RunByID(ctx, id)
	if err != nil {
		return nil, translateServiceError(err)
	}
	return toProtoRun(run)
}

func (s *runServer) GetLatestRun(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	run, err := s.service.LatestRun(ctx)
	if err != nil {
		return nil, translateServiceError(err)
	}
	return toProtoRun(run)
}

func toProtoRun(run domain.Run) (*structpb.Struct, error) {
	measurements := make([]any, len(run.Measurements))
	for i, m := range run.Measurements {
		measurements[i] = map[string]any{"name": m.Name, "value": m.Value}
	}

	result, err := structpb.NewStruct(map[string]any{
		"id":            run.ID,
		"process_count": run.ProcessCount,
		"template":      run.Template,
		"measurements":  measurements,
		"pcdn":          run.Amplification.PCDN,
		"cdn":           run.Amplification.CDN,
		"ratio":         run.Amplification.Ratio,
		"created_at":    run.CreatedAt.UTC().Format(constants.TimeFormat),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode run: %v", err)
	}
	return result, nil
}

func translateServiceError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "run not found")
	case errors.Is(err, sharederrors.ErrInvalidRunID):
		return status.Error(codes.InvalidArgument, "invalid run id format")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}

func loggingInterceptor(logger *infra.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if logger == nil {
			return resp, err
		}

		duration := time.Since(start)
		if err != nil {
			logger.Printf(ctx, "gRPC %s failed in %s: %v", info.FullMethod, duration, err)
		} else {
			logger.Printf(ctx, "gRPC %s completed in %s", info.FullMethod, duration)
		}
		return resp, err
	}
}
