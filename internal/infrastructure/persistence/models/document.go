package models

import (
	"time"

	"gorm.io/datatypes"
)

// BaseModel provides the columns shared by every stored row
type BaseModel struct {
	ID        string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// DocumentModel is one schemaless document
type DocumentModel struct {
	BaseModel
	DocType string         `gorm:"column:doc_type;type:varchar(64);not null;index"`
	Body    datatypes.JSON `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}
