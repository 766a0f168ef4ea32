package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/availdep/pkg/observability"
)

// logHooks reports pipeline, cache and HTTP events as debug log lines.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("hooks")}
}

func (h *logHooks) OnBuildStart(_ context.Context, mode string, records int) {
	h.logger.Debug("build started", "mode", mode, "records", records)
}

func (h *logHooks) OnBuildComplete(_ context.Context, mode string, stats observability.BuildStats, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("build failed", "mode", mode, "duration", d, "error", err)
		return
	}
	h.logger.Debug("build finished",
		"mode", mode,
		"activities", stats.Activities,
		"nodes", stats.Nodes,
		"operators", stats.Operators,
		"edges", stats.Edges,
		"repaired", stats.Repaired,
		"cyclic", stats.Cyclic,
		"duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render started", "formats", formats)
}

func (h *logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render finished", "formats", formats, "duration", d, "error", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(ctx context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route, "request_id", requestID(ctx))
}

func (h *logHooks) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d, "request_id", requestID(ctx))
}

func (h *logHooks) OnError(ctx context.Context, method, route string, err error) {
	h.logger.Debug("request failed", "method", method, "route", route, "error", err, "request_id", requestID(ctx))
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.HTTPHooks     = (*logHooks)(nil)
)
