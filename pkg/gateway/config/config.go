package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	MaxBodyBytes int64

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Live WebSocket mode (/ws/live).
	LiveMaxMessageBytes    int64
	LiveWSPingInterval     time.Duration
	LiveWSWriteTimeout     time.Duration
	LiveWSReadTimeout      time.Duration
	LiveTurnTimeout        time.Duration
	LiveMaxSessionDuration time.Duration
	LiveMaxSessions        int

	// Turn deadlines for the engine and synthesizer collaborators.
	EngineTimeout time.Duration
	SynthTimeout  time.Duration

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	HandlerTimeout      time.Duration
	ShutdownGracePeriod time.Duration

	// Collaborator credentials and selection.
	GeminiAPIKey   string
	GeminiModel    string
	CartesiaAPIKey string
	CartesiaVoice  string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                   envOr("VOICEGATE_ADDR", ":8080"),
		MaxBodyBytes:           envInt64Or("VOICEGATE_MAX_BODY_BYTES", 8<<20), // 8 MiB
		CORSAllowedOrigins:     make(map[string]struct{}),
		LiveMaxMessageBytes:    envInt64Or("VOICEGATE_LIVE_MAX_MESSAGE_BYTES", 8<<20),
		LiveWSPingInterval:     envDurationOr("VOICEGATE_LIVE_WS_PING_INTERVAL", 20*time.Second),
		LiveWSWriteTimeout:     envDurationOr("VOICEGATE_LIVE_WS_WRITE_TIMEOUT", 10*time.Second),
		LiveWSReadTimeout:      envDurationOr("VOICEGATE_LIVE_WS_READ_TIMEOUT", 0),
		LiveTurnTimeout:        envDurationOr("VOICEGATE_LIVE_TURN_TIMEOUT", 60*time.Second),
		LiveMaxSessionDuration: envDurationOr("VOICEGATE_LIVE_MAX_DURATION", 2*time.Hour),
		LiveMaxSessions:        envIntOr("VOICEGATE_LIVE_MAX_SESSIONS", 256),
		EngineTimeout:          envDurationOr("VOICEGATE_ENGINE_TIMEOUT", 30*time.Second),
		SynthTimeout:           envDurationOr("VOICEGATE_SYNTH_TIMEOUT", 20*time.Second),
		ReadHeaderTimeout:      envDurationOr("VOICEGATE_READ_HEADER_TIMEOUT", 10*time.Second),
		HandlerTimeout:         envDurationOr("VOICEGATE_TOTAL_REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownGracePeriod:    envDurationOr("VOICEGATE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		GeminiAPIKey:           firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		GeminiModel:            envOr("VOICEGATE_GEMINI_MODEL", "gemini-2.0-flash"),
		CartesiaAPIKey:         strings.TrimSpace(os.Getenv("CARTESIA_API_KEY")),
		CartesiaVoice:          strings.TrimSpace(os.Getenv("VOICEGATE_CARTESIA_VOICE")),
	}

	for _, origin := range splitCSV(os.Getenv("VOICEGATE_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_MAX_BODY_BYTES must be > 0")
	}
	if cfg.LiveMaxMessageBytes <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_LIVE_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.LiveWSPingInterval <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_LIVE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.LiveWSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_LIVE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.LiveWSReadTimeout < 0 {
		return Config{}, fmt.Errorf("VOICEGATE_LIVE_WS_READ_TIMEOUT must be >= 0")
	}
	if cfg.LiveTurnTimeout < 0 {
		return Config{}, fmt.Errorf("VOICEGATE_LIVE_TURN_TIMEOUT must be >= 0")
	}
	if cfg.LiveMaxSessionDuration <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_LIVE_MAX_DURATION must be > 0")
	}
	if cfg.LiveMaxSessions < 0 {
		return Config{}, fmt.Errorf("VOICEGATE_LIVE_MAX_SESSIONS must be >= 0")
	}
	if cfg.EngineTimeout < 0 {
		return Config{}, fmt.Errorf("VOICEGATE_ENGINE_TIMEOUT must be >= 0")
	}
	if cfg.SynthTimeout < 0 {
		return Config{}, fmt.Errorf("VOICEGATE_SYNTH_TIMEOUT must be >= 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_TOTAL_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("VOICEGATE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// Validate reports whether the process has the credentials it needs to serve
// traffic. Called by the readiness probe.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if strings.TrimSpace(c.CartesiaAPIKey) == "" {
		return fmt.Errorf("CARTESIA_API_KEY is not set")
	}
	return nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
