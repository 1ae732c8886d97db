package models

import "time"

// ComponentPhoto references an already-uploaded photo used as analysis evidence
type ComponentPhoto struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ComponentID string    `gorm:"type:varchar(36);not null;index" json:"component_id"`
	PhotoURL    string    `gorm:"type:text;not null" json:"photo_url"`
	SortOrder   int       `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for ComponentPhoto
func (ComponentPhoto) TableName() string {
	return "component_photos"
}
