package middleware

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/metrics"
)

// Logging records every unary call with its status code and latency.
func Logging(log *zap.Logger, m *metrics.Booking) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err)
		method := info.FullMethod[strings.LastIndex(info.FullMethod, "/")+1:]
		m.ObserveRPC(method, code.String(), elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("code", code.String()),
			zap.Duration("latency", elapsed),
		}
		if err != nil {
			log.Info("rpc failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("rpc", fields...)
		}
		return resp, err
	}
}
