package models

import (
	"time"

	"gorm.io/datatypes"
)

// Report is a generated narrative report for a property. The initial pipeline
// creates one inspection and one appraisal report; revaluation updates the
// appraisal report in place and never touches the inspection report.
type Report struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	PropertyID string         `gorm:"type:varchar(36);not null;index:idx_reports_property" json:"property_id"`
	ReportType ReportType     `gorm:"type:varchar(20);not null;index" json:"report_type"`
	ReportData datatypes.JSON `gorm:"type:json" json:"report_data"`
	Summary    string         `gorm:"type:text" json:"summary"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	// Relationship
	Property Property `gorm:"foreignKey:PropertyID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// ReportType enumerates generated report kinds
type ReportType string

const (
	ReportTypeInspection ReportType = "inspection"
	ReportTypeAppraisal  ReportType = "appraisal"
)

// TableName specifies the table name
func (Report) TableName() string {
	return "reports"
}
