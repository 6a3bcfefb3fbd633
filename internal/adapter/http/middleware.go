package httpadapter

import (
	"context"
	"strings"
	"time"

	"farmstead/internal/logger"

	"github.com/cloudwego/hertz/pkg/app"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware tags the request context with an id, echoes it back and
// writes one access log line per request.
func requestIDMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := strings.TrimSpace(string(ctx.GetHeader(requestIDHeader)))
		if id == "" || len(id) > 128 {
			id = logger.GenerateRequestID()
		}
		ctx.Response.Header.Set(requestIDHeader, id)
		c = logger.WithRequestID(c, id)

		start := time.Now()
		ctx.Next(c)

		status := ctx.Response.StatusCode()
		log := logger.FromContext(c)
		attrs := []any{
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if status >= 500 {
			log.Warn("http request", attrs...)
			return
		}
		log.Debug("http request", attrs...)
	}
}
