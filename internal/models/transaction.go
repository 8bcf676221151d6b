package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one ledger entry.
// Date carries no time of day; it is stored at UTC midnight.
type Transaction struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     *uint           `gorm:"index" json:"owner_id,omitempty"` // nil in single-user mode
	Date        time.Time       `gorm:"index;not null" json:"date"`
	Category    string          `gorm:"size:32;index;not null" json:"category"`
	Subcategory string          `gorm:"size:64;not null" json:"subcategory"`
	Amount      decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	Comment     string          `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}
