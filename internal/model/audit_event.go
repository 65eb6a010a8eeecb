package model

import "time"

const (
	AuditLoginAccepted   = "login.accepted"
	AuditLoginRejected   = "login.rejected"
	AuditDocumentUpload  = "document.uploaded"
	AuditDocumentDeleted = "document.deleted"
)

// AuditEvent records one admin action taken against the document backend.
type AuditEvent struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Action     string    `gorm:"size:32;not null;index" json:"action"`
	DocumentID string    `gorm:"size:128;index" json:"document_id,omitempty"`
	Filename   string    `gorm:"size:256" json:"filename,omitempty"`
	ChunkCount int       `json:"chunk_count,omitempty"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
