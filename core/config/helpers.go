package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns a map of the settings currently loaded in memory,
// used by the ops status endpoint.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":                   Global.App.Version,
		"app_debug":                     Global.App.Debug,
		"app_environment":               Global.App.Environment,
		"scheduler_enabled":             Global.Scheduler.Enabled,
		"scheduler_run_interval":        Global.Scheduler.RunInterval.String(),
		"scheduler_lock_ttl":            Global.Scheduler.LockTTL.String(),
		"scheduler_inter_slot_delay":    Global.Scheduler.InterSlotDelay.String(),
		"scheduler_max_publish_retries": Global.Scheduler.MaxPublishAttempts,
		"jobs_max_attempts":             Global.Jobs.MaxAttempts,
		"openai_model":                  Global.OpenAI.Model,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
