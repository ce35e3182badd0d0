package model

import "time"

// AuditLog is one append-only record of a state-changing action. Stored in
// PostgreSQL.
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primaryKey"        json:"id"`
	Entity    string    `gorm:"type:varchar(64);not null"   json:"entity"`
	EntityID  string    `gorm:"type:varchar(64);not null"   json:"entity_id"`
	Action    string    `gorm:"type:varchar(128);not null"  json:"action"`
	ActorID   string    `gorm:"type:varchar(64);not null"   json:"actor_id"`
	ActorName string    `gorm:"type:varchar(128);not null"  json:"actor_name"`
	Message   string    `gorm:"type:text;not null"          json:"message"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName gorm table.
func (AuditLog) TableName() string { return "audit_logs" }

// AuditFilter narrows the audit listing.
type AuditFilter struct {
	Entity   string
	EntityID string
	ActorID  string
	Page     int
	PageSize int
}

// Notification is a mail to send to a set of recipients.
type Notification struct {
	Recipients []string
	Template   string
	Params     map[string]string
}
