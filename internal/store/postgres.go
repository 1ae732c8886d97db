package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"property-appraisal/internal/models"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on top of database/sql and lib/pq.
type PostgresStore struct {
	conn *sql.DB
}

func NewPostgresStore(host string, port int, user, password, dbname, sslmode string) (*PostgresStore, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{conn: conn}, nil
}

func (db *PostgresStore) Close() error {
	return db.conn.Close()
}

// InitSchema creates the tables if they don't exist
func (db *PostgresStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id VARCHAR(36) PRIMARY KEY,
		owner_id VARCHAR(64),
		address TEXT NOT NULL,
		square_footage DECIMAL(12, 2) NOT NULL,
		lot_size DECIMAL(12, 2),
		bedrooms INTEGER,
		bathrooms DECIMAL(4, 1),
		year_built INTEGER,
		property_type VARCHAR(50),
		classification VARCHAR(50),
		rebuild_cost_per_sqft DECIMAL(12, 2),
		land_value DECIMAL(14, 2),
		market_rating INTEGER NOT NULL DEFAULT 5,
		appraised_value DECIMAL(14, 2),
		total_asset_residual_value DECIMAL(14, 2),
		insights JSONB,
		status VARCHAR(20) NOT NULL DEFAULT 'processing',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);
	CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id);

	CREATE TABLE IF NOT EXISTS components (
		id VARCHAR(36) PRIMARY KEY,
		property_id VARCHAR(36) NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		component_type VARCHAR(50) NOT NULL,
		serial_number VARCHAR(100),
		current_condition VARCHAR(20) NOT NULL DEFAULT 'good',
		installation_year INTEGER,
		estimated_lifetime_years INTEGER,
		replacement_cost DECIMAL(12, 2),
		residual_value DECIMAL(12, 2),
		maintenance_notes TEXT,
		analysis_source VARCHAR(20) NOT NULL DEFAULT 'default',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_components_property ON components(property_id);

	CREATE TABLE IF NOT EXISTS component_photos (
		id BIGSERIAL PRIMARY KEY,
		component_id VARCHAR(36) NOT NULL REFERENCES components(id) ON DELETE CASCADE,
		photo_url TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_component_photos_component ON component_photos(component_id);

	CREATE TABLE IF NOT EXISTS reports (
		id VARCHAR(36) PRIMARY KEY,
		property_id VARCHAR(36) NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		report_type VARCHAR(20) NOT NULL,
		report_data JSONB,
		summary TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_reports_property ON reports(property_id);

	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id BIGSERIAL PRIMARY KEY,
		property_id VARCHAR(36),
		kind VARCHAR(20) NOT NULL,
		stage VARCHAR(40) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'running',
		last_error TEXT,
		started_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_property ON pipeline_runs(property_id);

	CREATE TABLE IF NOT EXISTS valuation_snapshots (
		id SERIAL PRIMARY KEY,
		property_id VARCHAR(36) NOT NULL,
		rebuild_cost_per_sqft DECIMAL(12, 2),
		land_value DECIMAL(14, 2),
		total_asset_residual_value DECIMAL(14, 2),
		market_rating INTEGER,
		appraised_value DECIMAL(14, 2),
		trigger_kind VARCHAR(20) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_property ON valuation_snapshots(property_id);

	CREATE TABLE IF NOT EXISTS delete_logs (
		id SERIAL PRIMARY KEY,
		property_id VARCHAR(36) NOT NULL,
		address TEXT,
		stage VARCHAR(40),
		stuck_since TIMESTAMP,
		deleted_at TIMESTAMP NOT NULL DEFAULT NOW(),
		reason VARCHAR(50) NOT NULL
	);
	`
	_, err := db.conn.Exec(query)
	return err
}

func (db *PostgresStore) CreateProperty(p *models.Property) error {
	query := `
	INSERT INTO properties (
		id, owner_id, address, square_footage, lot_size, bedrooms, bathrooms,
		year_built, property_type, classification,
		rebuild_cost_per_sqft, land_value,
		market_rating, appraised_value, total_asset_residual_value,
		insights, status, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := db.conn.Exec(query,
		p.ID, p.OwnerID, p.Address, p.SquareFootage, p.LotSize, p.Bedrooms, p.Bathrooms,
		p.YearBuilt, p.PropertyType, p.Classification,
		p.RebuildCostPerSqft, p.LandValue,
		p.MarketRating, p.AppraisedValue, p.TotalAssetResidualValue,
		nullableJSON(p.Insights), string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

func (db *PostgresStore) UpdateProperty(p *models.Property) error {
	query := `
	UPDATE properties SET
		owner_id = $2, address = $3, square_footage = $4, lot_size = $5,
		bedrooms = $6, bathrooms = $7, year_built = $8,
		property_type = $9, classification = $10,
		rebuild_cost_per_sqft = $11, land_value = $12,
		market_rating = $13, appraised_value = $14, total_asset_residual_value = $15,
		insights = $16, status = $17, updated_at = $18
	WHERE id = $1
	`
	p.UpdatedAt = time.Now()
	_, err := db.conn.Exec(query,
		p.ID, p.OwnerID, p.Address, p.SquareFootage, p.LotSize,
		p.Bedrooms, p.Bathrooms, p.YearBuilt,
		p.PropertyType, p.Classification,
		p.RebuildCostPerSqft, p.LandValue,
		p.MarketRating, p.AppraisedValue, p.TotalAssetResidualValue,
		nullableJSON(p.Insights), string(p.Status), p.UpdatedAt)
	return err
}

const propertyColumns = `
	id, owner_id, address, square_footage, lot_size, bedrooms, bathrooms,
	year_built, property_type, classification,
	rebuild_cost_per_sqft, land_value,
	market_rating, appraised_value, total_asset_residual_value,
	insights, status, created_at, updated_at
`

func scanProperty(row interface{ Scan(...any) error }) (*models.Property, error) {
	var p models.Property
	var status string
	var insights []byte
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Address, &p.SquareFootage, &p.LotSize, &p.Bedrooms, &p.Bathrooms,
		&p.YearBuilt, &p.PropertyType, &p.Classification,
		&p.RebuildCostPerSqft, &p.LandValue,
		&p.MarketRating, &p.AppraisedValue, &p.TotalAssetResidualValue,
		&insights, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Insights = insights
	p.Status = models.PropertyStatus(status)
	return &p, nil
}

func (db *PostgresStore) GetProperty(id string) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p, err := scanProperty(db.conn.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *PostgresStore) ProcessingPropertiesBefore(cutoff time.Time) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + `
	FROM properties
	WHERE status = $1 AND updated_at < $2
	ORDER BY updated_at ASC`

	rows, err := db.conn.Query(query, string(models.PropertyStatusProcessing), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}

func (db *PostgresStore) DeleteProperty(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Components, photos and reports cascade from the property row
	if _, err := tx.Exec(`DELETE FROM valuation_snapshots WHERE property_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pipeline_runs WHERE property_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM properties WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *PostgresStore) CountProperties() (int64, error) {
	var count int64
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM properties`).Scan(&count)
	return count, err
}

func (db *PostgresStore) CreateComponent(c *models.Component, photos []models.ComponentPhoto) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err = tx.Exec(`
	INSERT INTO components (
		id, property_id, component_type, serial_number, current_condition,
		installation_year, estimated_lifetime_years, replacement_cost, residual_value,
		maintenance_notes, analysis_source, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.PropertyID, c.ComponentType, c.SerialNumber, string(c.CurrentCondition),
		c.InstallationYear, c.EstimatedLifetimeYears, c.ReplacementCost, c.ResidualValue,
		c.MaintenanceNotes, string(c.AnalysisSource), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range photos {
		photos[i].ComponentID = c.ID
		_, err = tx.Exec(`
		INSERT INTO component_photos (component_id, photo_url, sort_order, created_at)
		VALUES ($1, $2, $3, $4)`,
			photos[i].ComponentID, photos[i].PhotoURL, photos[i].SortOrder, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *PostgresStore) ComponentsByProperty(propertyID string) ([]models.Component, error) {
	query := `
	SELECT id, property_id, component_type, serial_number, current_condition,
		   installation_year, estimated_lifetime_years, replacement_cost, residual_value,
		   maintenance_notes, analysis_source, created_at, updated_at
	FROM components
	WHERE property_id = $1
	ORDER BY created_at ASC`

	rows, err := db.conn.Query(query, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []models.Component
	for rows.Next() {
		var c models.Component
		var condition, source string
		err := rows.Scan(
			&c.ID, &c.PropertyID, &c.ComponentType, &c.SerialNumber, &condition,
			&c.InstallationYear, &c.EstimatedLifetimeYears, &c.ReplacementCost, &c.ResidualValue,
			&c.MaintenanceNotes, &source, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		c.CurrentCondition = models.ComponentCondition(condition)
		c.AnalysisSource = models.AnalysisSource(source)
		components = append(components, c)
	}
	return components, rows.Err()
}

func (db *PostgresStore) CreateReport(r *models.Report) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err := db.conn.Exec(`
	INSERT INTO reports (id, property_id, report_type, report_data, summary, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.PropertyID, string(r.ReportType), nullableJSON(r.ReportData), r.Summary, r.CreatedAt, r.UpdatedAt)
	return err
}

func (db *PostgresStore) UpdateReport(r *models.Report) error {
	r.UpdatedAt = time.Now()
	_, err := db.conn.Exec(`
	UPDATE reports SET report_data = $2, summary = $3, updated_at = $4
	WHERE id = $1`,
		r.ID, nullableJSON(r.ReportData), r.Summary, r.UpdatedAt)
	return err
}

func (db *PostgresStore) ReportByType(propertyID, reportType string) (*models.Report, error) {
	r, err := db.scanReportRow(db.conn.QueryRow(`
	SELECT id, property_id, report_type, report_data, summary, created_at, updated_at
	FROM reports
	WHERE property_id = $1 AND report_type = $2`,
		propertyID, reportType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (db *PostgresStore) ReportsByProperty(propertyID string) ([]models.Report, error) {
	rows, err := db.conn.Query(`
	SELECT id, property_id, report_type, report_data, summary, created_at, updated_at
	FROM reports
	WHERE property_id = $1
	ORDER BY created_at ASC`,
		propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		r, err := db.scanReportRow(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func (db *PostgresStore) scanReportRow(row interface{ Scan(...any) error }) (*models.Report, error) {
	var r models.Report
	var reportType string
	var data []byte
	err := row.Scan(&r.ID, &r.PropertyID, &reportType, &data, &r.Summary, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ReportType = models.ReportType(reportType)
	r.ReportData = data
	return &r, nil
}

func (db *PostgresStore) CreateRun(run *models.PipelineRun) error {
	now := time.Now()
	run.StartedAt = now
	run.UpdatedAt = now
	return db.conn.QueryRow(`
	INSERT INTO pipeline_runs (property_id, kind, stage, status, last_error, started_at, updated_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`,
		run.PropertyID, run.Kind, run.Stage, run.Status, run.LastError,
		run.StartedAt, run.UpdatedAt, run.CompletedAt).Scan(&run.ID)
}

func (db *PostgresStore) UpdateRun(run *models.PipelineRun) error {
	run.UpdatedAt = time.Now()
	_, err := db.conn.Exec(`
	UPDATE pipeline_runs SET stage = $2, status = $3, last_error = $4, updated_at = $5, completed_at = $6
	WHERE id = $1`,
		run.ID, run.Stage, run.Status, run.LastError, run.UpdatedAt, run.CompletedAt)
	return err
}

func (db *PostgresStore) RecentRuns(limit int) ([]models.PipelineRun, error) {
	rows, err := db.conn.Query(`
	SELECT id, property_id, kind, stage, status, last_error, started_at, updated_at, completed_at
	FROM pipeline_runs
	ORDER BY started_at DESC
	LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.PipelineRun
	for rows.Next() {
		var run models.PipelineRun
		err := rows.Scan(&run.ID, &run.PropertyID, &run.Kind, &run.Stage, &run.Status,
			&run.LastError, &run.StartedAt, &run.UpdatedAt, &run.CompletedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (db *PostgresStore) LatestRun(propertyID string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := db.conn.QueryRow(`
	SELECT id, property_id, kind, stage, status, last_error, started_at, updated_at, completed_at
	FROM pipeline_runs
	WHERE property_id = $1
	ORDER BY started_at DESC
	LIMIT 1`,
		propertyID).Scan(&run.ID, &run.PropertyID, &run.Kind, &run.Stage, &run.Status,
		&run.LastError, &run.StartedAt, &run.UpdatedAt, &run.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (db *PostgresStore) CreateValuationSnapshot(s *models.ValuationSnapshot) error {
	s.CreatedAt = time.Now()
	return db.conn.QueryRow(`
	INSERT INTO valuation_snapshots (
		property_id, rebuild_cost_per_sqft, land_value, total_asset_residual_value,
		market_rating, appraised_value, trigger_kind, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`,
		s.PropertyID, s.RebuildCostPerSqft, s.LandValue, s.TotalAssetResidualValue,
		s.MarketRating, s.AppraisedValue, s.Trigger, s.CreatedAt).Scan(&s.ID)
}

func (db *PostgresStore) ValuationHistory(propertyID string) ([]models.ValuationSnapshot, error) {
	rows, err := db.conn.Query(`
	SELECT id, property_id, rebuild_cost_per_sqft, land_value, total_asset_residual_value,
		   market_rating, appraised_value, trigger_kind, created_at
	FROM valuation_snapshots
	WHERE property_id = $1
	ORDER BY created_at ASC`,
		propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []models.ValuationSnapshot
	for rows.Next() {
		var s models.ValuationSnapshot
		err := rows.Scan(&s.ID, &s.PropertyID, &s.RebuildCostPerSqft, &s.LandValue,
			&s.TotalAssetResidualValue, &s.MarketRating, &s.AppraisedValue, &s.Trigger, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (db *PostgresStore) CreateDeleteLog(l *models.DeleteLog) error {
	l.DeletedAt = time.Now()
	return db.conn.QueryRow(`
	INSERT INTO delete_logs (property_id, address, stage, stuck_since, deleted_at, reason)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`,
		l.PropertyID, l.Address, l.Stage, l.StuckSince, l.DeletedAt, l.Reason).Scan(&l.ID)
}

func (db *PostgresStore) RecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	rows, err := db.conn.Query(`
	SELECT id, property_id, address, stage, stuck_since, deleted_at, reason
	FROM delete_logs
	ORDER BY deleted_at DESC
	LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.DeleteLog
	for rows.Next() {
		var l models.DeleteLog
		err := rows.Scan(&l.ID, &l.PropertyID, &l.Address, &l.Stage, &l.StuckSince, &l.DeletedAt, &l.Reason)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// nullableJSON maps an empty JSON payload to SQL NULL
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
