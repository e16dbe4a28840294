package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Unit is a franchisee unit. The CNPJ is the business key referenced by
// every other module; the snowflake ID only identifies the row.
type Unit struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	CNPJ      string            `gorm:"uniqueIndex;not null" json:"cnpj"`
	Name      string            `gorm:"not null" json:"name"`
	City      string            `json:"city,omitempty"`
	State     string            `json:"state,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Email     string            `json:"email,omitempty"`
	Active    bool              `gorm:"not null" json:"active"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

func (Unit) TableName() string {
	return "franchisee_units"
}

type ListUnitFilter struct {
	Name   string
	CNPJ   string
	State  string
	Active *bool
	Limit  int
	Offset int
}
