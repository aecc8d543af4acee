package audit

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/platform/auth"
)

type Entry struct {
	ID           string                 `json:"id"`
	OrgID        string                 `json:"org_id"`
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	IPAddress    string                 `json:"ip_address"`
	UserAgent    string                 `json:"user_agent"`
	CreatedAt    int64                  `json:"created_at"`
}

type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Record writes an audit entry asynchronously. The request is used for
// actor identity and client info; a nil request records a system actor
// (background workers).
func (l *Logger) Record(r *http.Request, orgID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	entry := &Entry{
		ID:           "aud_" + uuid.NewString(),
		OrgID:        orgID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().Unix(),
	}

	if r != nil {
		entry.IPAddress = r.RemoteAddr
		entry.UserAgent = r.UserAgent()
		if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok && claims != nil {
			entry.UserID = claims.UserID
		}
	}

	metaJSON, _ := json.Marshal(entry.Metadata)

	go func() {
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, org_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.OrgID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, string(metaJSON), entry.IPAddress, entry.UserAgent, entry.CreatedAt)
		if err != nil {
			log.Error().Err(err).Str("action", entry.Action).Msg("audit write failed")
		}
	}()
}
