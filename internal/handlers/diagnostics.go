package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DiagnosticLog is a log line shipped from a dashboard or table device.
type DiagnosticLog struct {
	Timestamp string                 `json:"timestamp"`
	Context   string                 `json:"context"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Platform  string                 `json:"platform"`
}

// ReceiveDiagnosticLog re-emits client logs through the server logger.
// POST /api/logs/diagnostic
func ReceiveDiagnosticLog(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entry DiagnosticLog
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		level, prefix := zapcore.DebugLevel, "📱"
		switch strings.ToUpper(entry.Level) {
		case "ERROR":
			level, prefix = zapcore.ErrorLevel, "🔴"
		case "WARNING", "WARN":
			level, prefix = zapcore.WarnLevel, "🟡"
		case "INFO":
			level, prefix = zapcore.InfoLevel, "🔵"
		}

		fields := []zap.Field{
			zap.String("platform", entry.Platform),
			zap.String("context", entry.Context),
			zap.String("client_timestamp", entry.Timestamp),
		}
		if len(entry.Data) > 0 {
			fields = append(fields, zap.Any("data", entry.Data))
		}
		if ce := logger.Check(level, prefix+" Client diagnostic: "+entry.Message); ce != nil {
			ce.Write(fields...)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "received",
		})
	}
}
