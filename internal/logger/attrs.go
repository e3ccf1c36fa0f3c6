package logger

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// instanceID keeps an explicit id and otherwise derives one from the host name.
// Two server processes on one host still log under distinct ids.
func instanceID(v string) string {
	if v != "" {
		return v
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "bowling"
	}
	return host + "-" + uuid.NewString()[:8]
}

// processAttrs are stamped on every record: who is logging, plus the
// deployment knobs (cfg.Static) that change how rooms behave.
func processAttrs(cfg Config) []slog.Attr {
	attrs := make([]slog.Attr, 0, 5+len(cfg.Static))
	attrs = append(attrs,
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
		slog.Int("pid", os.Getpid()),
	)
	return append(attrs, cfg.Static...)
}
