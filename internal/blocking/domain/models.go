package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// System names an access surface a block applies to.
type System string

const (
	SystemPortal   System = "portal"
	SystemOrders   System = "pedidos"
	SystemFinance  System = "financeiro"
	SystemTraining System = "treinamento"
)

// AllSystems is the default scope of an automatic block.
var AllSystems = []System{SystemPortal, SystemOrders, SystemFinance, SystemTraining}

func ValidSystem(s System) bool {
	switch s {
	case SystemPortal, SystemOrders, SystemFinance, SystemTraining:
		return true
	}
	return false
}

// Block restricts a unit's access to the named systems. Blocks are
// never deleted: unblocking or superseding flips Active off and keeps
// the row as history.
type Block struct {
	ID             snowflake.ID                `gorm:"primaryKey" json:"id"`
	UnitCNPJ       string                      `gorm:"not null;index" json:"unit_cnpj"`
	Systems        datatypes.JSONSlice[System] `gorm:"not null" json:"systems"`
	Reason         string                      `gorm:"not null" json:"reason"`
	Automatic      bool                        `gorm:"not null" json:"automatic"`
	Active         bool                        `gorm:"not null;index" json:"active"`
	BlockedBy      string                      `json:"blocked_by,omitempty"`
	UnblockedBy    string                      `json:"unblocked_by,omitempty"`
	UnblockedAt    *time.Time                  `json:"unblocked_at,omitempty"`
	SupersededByID *snowflake.ID               `gorm:"column:superseded_by_id" json:"superseded_by_id,omitempty"`
	CreatedAt      time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Block) TableName() string {
	return "access_blocks"
}
