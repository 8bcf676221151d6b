package models

import "time"

const (
	ActionTransactionInsert = "transaction.insert"
	ActionTransactionDelete = "transaction.delete"
	ActionAccountRegister   = "account.register"
)

// AuditLog records a ledger mutation. It is written in the same database
// transaction as the change it describes.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID *uint     `gorm:"index" json:"account_id,omitempty"`
	Action    string    `gorm:"size:64;index;not null" json:"action"`
	Detail    string    `gorm:"size:4096" json:"detail"` // AES+base64 when an encryption key is configured
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
