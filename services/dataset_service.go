package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"campaign-dashboard/config"
	"campaign-dashboard/metrics"
	"campaign-dashboard/models"
	"campaign-dashboard/rowindex"
)

// snapshot pairs an immutable row slice with the indexes built from it.
// Queries read whichever snapshot was current when they started; reloads
// build a fresh snapshot and swap the pointer, so a rebuild never races a
// query.
type snapshot struct {
	rows    []models.CampaignRow
	indexes *rowindex.Indexes
}

// DatasetService owns the in-memory campaign dataset: loading rows from
// MySQL, building the column indexes, and answering filter queries.
type DatasetService struct {
	db   *sql.DB
	cfg  *config.Config
	snap atomic.Pointer[snapshot]
}

// FilterQuery carries the user's selections, one value list per dimension.
// An empty list leaves that dimension unconstrained.
type FilterQuery struct {
	Partners       []string
	Themes         []string
	Databases      []string
	Types          []string
	Geos           []string
	DatabaseTypes  []string
	InvoiceOffices []string
	Months         []string
}

func (q FilterQuery) values(d rowindex.Dimension) []string {
	switch d {
	case rowindex.DimPartner:
		return q.Partners
	case rowindex.DimTheme:
		return q.Themes
	case rowindex.DimDatabase:
		return q.Databases
	case rowindex.DimType:
		return q.Types
	case rowindex.DimGeo:
		return q.Geos
	case rowindex.DimDatabaseType:
		return q.DatabaseTypes
	case rowindex.DimInvoiceOffice:
		return q.InvoiceOffices
	case rowindex.DimMonth:
		return q.Months
	}
	return nil
}

// NewDatasetService opens the MySQL connection and loads the initial
// snapshot.
func NewDatasetService(cfg *config.Config) (*DatasetService, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry
	var waitInterval = 1 * time.Second
	for {
		if err := db.Ping(); err == nil {
			break
		} else {
			log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, err)
		}
		time.Sleep(waitInterval)
		waitInterval *= 2
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Infof("Database connection established to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)

	s := &DatasetService{db: db, cfg: cfg}
	if err := s.Reload(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewDatasetServiceWithDB wires an existing connection; used by tests.
func NewDatasetServiceWithDB(db *sql.DB, cfg *config.Config) *DatasetService {
	return &DatasetService{db: db, cfg: cfg}
}

// Close closes the database connection.
func (s *DatasetService) Close() error {
	return s.db.Close()
}

// DB exposes the shared connection pool for the sibling services.
func (s *DatasetService) DB() *sql.DB {
	return s.db
}

const campaignsQuery = `
	SELECT id, name, partner, theme, db_name, campaign_type, geo,
	       db_type, invoice_office, send_date, status, volume, spend, revenue
	FROM campaigns
	ORDER BY send_date DESC, id DESC
`

// Reload queries the full campaign table, rebuilds every column index in one
// pass, and atomically swaps the snapshot. There is no incremental update:
// the index structure is immutable once built.
func (s *DatasetService) Reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, campaignsQuery)
	if err != nil {
		return fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.CampaignRow
	for rows.Next() {
		var c models.CampaignRow
		var sendDate time.Time
		var partner, theme, dbName, cType, geo, dbType, office sql.NullString
		var spend, revenue sql.NullString

		err := rows.Scan(
			&c.ID,
			&c.Name,
			&partner,
			&theme,
			&dbName,
			&cType,
			&geo,
			&dbType,
			&office,
			&sendDate,
			&c.Status,
			&c.Volume,
			&spend,
			&revenue,
		)
		if err != nil {
			return fmt.Errorf("failed to scan campaign: %w", err)
		}

		c.Partner = partner.String
		c.Theme = theme.String
		c.Database = dbName.String
		c.Type = cType.String
		c.Geo = geo.String
		c.DatabaseType = dbType.String
		c.InvoiceOffice = office.String
		c.SendDate = sendDate.Format("2006-01-02")
		c.Spend = parseDecimal(spend)
		c.Revenue = parseDecimal(revenue)

		campaigns = append(campaigns, c)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating campaigns: %w", err)
	}

	snap := &snapshot{
		rows:    campaigns,
		indexes: rowindex.BuildIndexes(campaigns),
	}
	s.snap.Store(snap)

	metrics.DatasetReloadsTotal.Inc()
	metrics.DatasetRows.Set(float64(len(campaigns)))
	log.Infof("Dataset snapshot rebuilt: %d campaigns", len(campaigns))
	return nil
}

func parseDecimal(v sql.NullString) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RowCount returns the size of the current snapshot.
func (s *DatasetService) RowCount() int {
	snap := s.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.rows)
}

// FilterCampaigns is the query composition layer over the rowindex core:
// each dimension's selection becomes a position set via SetForSelection,
// constrained sets are ANDed with IntersectSets, and the winners are
// materialized in original order with FilterByIndexSet.
//
// IntersectSets with zero sets means "nothing", so the no-filters-at-all
// case is special-cased here to return the whole snapshot.
func (s *DatasetService) FilterCampaigns(q FilterQuery) []models.CampaignRow {
	metrics.FilterQueriesTotal.Inc()

	snap := s.snap.Load()
	if snap == nil {
		return []models.CampaignRow{}
	}

	var sets []*roaring.Bitmap
	constrained := false
	for _, d := range rowindex.Dimensions {
		set, ok := rowindex.SetForSelection(snap.indexes.Column(d), q.values(d))
		if !ok {
			continue
		}
		constrained = true
		sets = append(sets, set)
	}

	if !constrained {
		out := make([]models.CampaignRow, len(snap.rows))
		copy(out, snap.rows)
		return out
	}

	return rowindex.FilterByIndexSet(snap.rows, rowindex.IntersectSets(sets))
}

// DimensionValues lists the indexed values of every dimension with their row
// counts, for populating the dashboard's filter controls.
func (s *DatasetService) DimensionValues() map[string][]models.DimensionValueCount {
	out := make(map[string][]models.DimensionValueCount, len(rowindex.Dimensions))
	snap := s.snap.Load()
	if snap == nil {
		return out
	}

	for _, d := range rowindex.Dimensions {
		col := snap.indexes.Column(d)
		values := make([]models.DimensionValueCount, 0, len(col))
		for _, key := range col.Keys() {
			values = append(values, models.DimensionValueCount{
				Value: key,
				Count: int(col[key].GetCardinality()),
			})
		}
		out[string(d)] = values
	}
	return out
}
