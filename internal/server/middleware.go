package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// OperationLogger logs one line per handled request with its operation,
// outcome and latency. Server errors are logged at error level, client
// errors at warn.
func OperationLogger(logger log.Logger) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			start := time.Now()
			reply, err := handler(ctx, req)

			level := log.LevelInfo
			code := 200
			reason := ""
			if err != nil {
				se := errors.FromError(err)
				code = int(se.Code)
				reason = se.Reason
				level = log.LevelWarn
				if code >= 500 {
					level = log.LevelError
				}
			}
			_ = log.WithContext(ctx, logger).Log(level,
				"kind", "server",
				"operation", tr.Operation(),
				"code", code,
				"reason", reason,
				"latency", time.Since(start).Seconds(),
			)
			return reply, err
		}
	}
}
