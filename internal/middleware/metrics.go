package middleware

import (
	"context"

	"connectrpc.com/connect"

	"github.com/BaiduAV/DividaFacil/internal/metrics"
)

// MetricsInterceptor counts every RPC call by procedure and result code.
func MetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.RPCRequests.WithLabelValues(req.Spec().Procedure, code).Inc()
			return resp, err
		}
	}
}
