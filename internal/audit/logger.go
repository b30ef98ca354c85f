package audit

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Event represents one audit log entry. Every cascade decision and every
// reconcile outcome produces exactly one event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"` // provider subject id
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	Detail    string    `json:"details,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

var auditLogger = log.Output(os.Stdout).With().Logger()

// Log records an audit event.
func Log(action, subject, email, role, detail string, success bool, err error) {
	event := Event{
		Timestamp: time.Now().UTC(),
		Service:   "identity",
		Action:    action,
		Subject:   subject,
		Email:     email,
		Role:      role,
		Detail:    detail,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	entry, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		log.Error().Err(marshalErr).Msg("Failed to marshal audit event to JSON")
		auditLogger.Error().
			Str("action", action).
			Str("subject", subject).
			Str("email", email).
			Str("role", role).
			Bool("success", success).
			Err(err).
			Msg("Audit Log (fallback)")
		return
	}
	auditLogger.Log().RawJSON("audit_event", entry).Msg("")
}
