// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init 配置全局 zerolog。development 环境使用控制台输出，其余环境输出 JSON。
func Init(serviceName, env string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", serviceName).Logger()
}

// Ctx 返回请求级 logger：优先使用 context 中注入的 logger，并附带当前 span 的 trace_id。
func Ctx(ctx context.Context) *zerolog.Logger {
	base := log.Logger
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		base = *l
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		base = base.With().Str("trace_id", sc.TraceID().String()).Logger()
	}
	return &base
}
