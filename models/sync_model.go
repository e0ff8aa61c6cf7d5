package models

import "gorm.io/gorm"

// SyncOrigin maps a client-local record id to the server-assigned id for
// entities created through a sync push. The unique (entity_type, client_ref)
// pair makes push retries idempotent: a second push carrying an already-seen
// ref reuses the stored server id instead of inserting again.
type SyncOrigin struct {
	gorm.Model
	EntityType string `json:"entity_type" gorm:"uniqueIndex:idx_sync_origin;not null"`
	ClientRef  string `json:"client_ref" gorm:"uniqueIndex:idx_sync_origin;not null"`
	ServerID   uint   `json:"server_id" gorm:"not null"`
	CreatedBy  int    `json:"created_by"`
}
