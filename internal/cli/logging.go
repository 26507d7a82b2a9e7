package cli

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"hypergate/internal/config"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	return []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Network: %s", cfg.Network()),
		fmt.Sprintf("Signer: %s", presence(cfg.PrivateKey != "")),
		fmt.Sprintf("Upstream timeout: %ds", cfg.Upstream.TimeoutSeconds),
		fmt.Sprintf("Price poll interval: %dms", cfg.Upstream.PollIntervalMs),
		fmt.Sprintf("Asset cache TTL: %ds", cfg.Upstream.AssetTTLSeconds),
		fmt.Sprintf("Rate limit: %.0f rps (burst %d)", cfg.Upstream.RateLimitPerSecond, cfg.Upstream.RateLimitBurst),
	}
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
