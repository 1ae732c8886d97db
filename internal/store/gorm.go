package store

import (
	"errors"
	"fmt"
	"time"

	"property-appraisal/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore implements Store on top of gorm (MySQL).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(host string, port int, user, password, dbname string) (*GormStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

// NewGormStoreFromDB wraps an existing gorm.DB instance
func NewGormStoreFromDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying gorm.DB instance
func (gs *GormStore) DB() *gorm.DB {
	return gs.db
}

func (gs *GormStore) Close() error {
	sqlDB, err := gs.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gs *GormStore) InitSchema() error {
	return gs.db.AutoMigrate(
		&models.Property{},
		&models.Component{},
		&models.ComponentPhoto{},
		&models.Report{},
		&models.PipelineRun{},
		&models.ValuationSnapshot{},
		&models.DeleteLog{},
	)
}

func (gs *GormStore) CreateProperty(p *models.Property) error {
	return gs.db.Create(p).Error
}

func (gs *GormStore) UpdateProperty(p *models.Property) error {
	return gs.db.Save(p).Error
}

func (gs *GormStore) GetProperty(id string) (*models.Property, error) {
	var property models.Property
	err := gs.db.Where("id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// ProcessingPropertiesBefore returns properties still marked processing
// whose last update predates the cutoff. Used by the orphan sweep.
func (gs *GormStore) ProcessingPropertiesBefore(cutoff time.Time) ([]models.Property, error) {
	var properties []models.Property
	err := gs.db.
		Where("status = ? AND updated_at < ?", models.PropertyStatusProcessing, cutoff).
		Order("updated_at ASC").
		Find(&properties).Error
	return properties, err
}

// DeleteProperty removes a property and its dependents. Component photos,
// components and reports go through the cascade foreign keys; snapshot and
// run rows are removed explicitly so no history outlives the property.
func (gs *GormStore) DeleteProperty(id string) error {
	return gs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.ValuationSnapshot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", id).Delete(&models.PipelineRun{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Property{}).Error
	})
}

func (gs *GormStore) CountProperties() (int64, error) {
	var count int64
	err := gs.db.Model(&models.Property{}).Count(&count).Error
	return count, err
}

// CreateComponent saves a component and its photos in a transaction.
func (gs *GormStore) CreateComponent(c *models.Component, photos []models.ComponentPhoto) error {
	return gs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		for i := range photos {
			photos[i].ComponentID = c.ID
		}
		if len(photos) > 0 {
			if err := tx.Create(&photos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (gs *GormStore) ComponentsByProperty(propertyID string) ([]models.Component, error) {
	var components []models.Component
	err := gs.db.Where("property_id = ?", propertyID).Order("created_at ASC").Find(&components).Error
	return components, err
}

func (gs *GormStore) CreateReport(r *models.Report) error {
	return gs.db.Create(r).Error
}

func (gs *GormStore) UpdateReport(r *models.Report) error {
	return gs.db.Save(r).Error
}

func (gs *GormStore) ReportByType(propertyID, reportType string) (*models.Report, error) {
	var report models.Report
	err := gs.db.
		Where("property_id = ? AND report_type = ?", propertyID, reportType).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (gs *GormStore) ReportsByProperty(propertyID string) ([]models.Report, error) {
	var reports []models.Report
	err := gs.db.Where("property_id = ?", propertyID).Order("created_at ASC").Find(&reports).Error
	return reports, err
}

func (gs *GormStore) CreateRun(run *models.PipelineRun) error {
	return gs.db.Create(run).Error
}

func (gs *GormStore) UpdateRun(run *models.PipelineRun) error {
	return gs.db.Save(run).Error
}

func (gs *GormStore) RecentRuns(limit int) ([]models.PipelineRun, error) {
	var runs []models.PipelineRun
	err := gs.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (gs *GormStore) LatestRun(propertyID string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := gs.db.Where("property_id = ?", propertyID).Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (gs *GormStore) CreateValuationSnapshot(s *models.ValuationSnapshot) error {
	return gs.db.Create(s).Error
}

func (gs *GormStore) ValuationHistory(propertyID string) ([]models.ValuationSnapshot, error) {
	var snapshots []models.ValuationSnapshot
	err := gs.db.Where("property_id = ?", propertyID).Order("created_at ASC").Find(&snapshots).Error
	return snapshots, err
}

func (gs *GormStore) CreateDeleteLog(l *models.DeleteLog) error {
	return gs.db.Create(l).Error
}

func (gs *GormStore) RecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	err := gs.db.Order("deleted_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
