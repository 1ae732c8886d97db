package models

import "time"

// DeleteLog records properties physically removed by the orphan sweeper
type DeleteLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID string    `gorm:"type:varchar(36);not null;index" json:"property_id"`
	Address    string    `gorm:"type:text" json:"address"`
	Stage      string    `gorm:"type:varchar(40)" json:"stage,omitempty"` // last recorded pipeline stage
	StuckSince time.Time `gorm:"type:datetime" json:"stuck_since"`
	DeletedAt  time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"deleted_at"`
	Reason     string    `gorm:"type:varchar(50);not null" json:"reason"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// DeleteReason constants
const (
	DeleteReasonOrphan = "orphaned_processing"
	DeleteReasonManual = "manual_deletion"
)
