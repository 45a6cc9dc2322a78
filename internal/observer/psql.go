package observer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/mqc"
)

// PSQL_SCHEMA creates the tables used by the psql target.
const PSQL_SCHEMA = `
CREATE SCHEMA IF NOT EXISTS mqc;
CREATE TABLE IF NOT EXISTS mqc.data (
	datetime     timestamptz NOT NULL,
	artifact     text NOT NULL,
	value        double precision NOT NULL,
	data_source  text NOT NULL,
	measurement  text NOT NULL,
	measure      text NOT NULL,
	variable     text NOT NULL
);
CREATE TABLE IF NOT EXISTS mqc.findings (
	datetime     timestamptz NOT NULL,
	artifact     text NOT NULL,
	data_source  text NOT NULL,
	measurement  text NOT NULL,
	description  text NOT NULL,
	state        text NOT NULL,
	subject_type text NOT NULL,
	subject_path text[] NOT NULL,
	data         jsonb
);`

const (
	insertData     = "INSERT INTO mqc.data (datetime, artifact, value, data_source, measurement, measure, variable) VALUES ($1, $2, $3, $4, $5, $6, $7)"
	insertFindings = "INSERT INTO mqc.findings (datetime, artifact, data_source, measurement, description, state, subject_type, subject_path, data) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
)

var psqlConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "mqc_psql_connection_stats",
	Help: "Connection stats related to PostgreSQL database",
}, []string{"target_name", "target_type", "conn"})

type PSQL struct {
	baseObserver
	dbConn *sql.DB
}

func NewPSQL(name, connStr string, opts config.Options) (p *PSQL, err error) {
	p = &PSQL{
		baseObserver: baseObserver{
			name:         name,
			observerType: "psql",
		},
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Error("Failed to open connection", slog.String("name", name), slog.Any("error", err))
		return nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", slog.String("name", name), slog.Any("error", err))
		db.Close()
		return nil, err
	}

	applyPoolOptions(db, opts)

	if create, _ := strconv.ParseBool(opts["create_schema"]); create {
		if _, err := db.Exec(PSQL_SCHEMA); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	p.dbConn = db
	p.updateStats()
	return p, nil
}

func applyPoolOptions(db *sql.DB, opts config.Options) {
	for opt, val := range opts {
		switch opt {
		case "max_conn":
			maxconn, _ := strconv.Atoi(val)
			db.SetMaxOpenConns(maxconn)
		case "max_idle":
			maxconn, _ := strconv.Atoi(val)
			db.SetMaxIdleConns(maxconn)
		case "max_conn_time":
			dur, _ := time.ParseDuration(val)
			db.SetConnMaxLifetime(dur)
		case "max_idle_time":
			dur, _ := time.ParseDuration(val)
			db.SetConnMaxIdleTime(dur)
		}
	}
}

func (p *PSQL) updateStats() {
	stats := p.dbConn.Stats()
	psqlConnections.WithLabelValues(p.name, p.observerType, "idle").Set(float64(stats.Idle))
	psqlConnections.WithLabelValues(p.name, p.observerType, "used").Set(float64(stats.InUse))
	psqlConnections.WithLabelValues(p.name, p.observerType, "max").Set(float64(stats.MaxOpenConnections))
}

func (p *PSQL) Cleanup() {
	p.baseObserver.Cleanup()
	if p.dbConn != nil {
		p.dbConn.Close()
	}
}

func (p *PSQL) SaveData(d []mqc.Data) bool {
	return genericSave[mqc.Data](
		d,
		p.localFilter,
		p.dataFunction,
		p.buffer,
	)
}

func (p *PSQL) dataFunction(d []mqc.Data) (failed []mqc.Data, err error) {
	err = p.insert(insertData, mqc.DATA, len(d), func(stmt *sql.Stmt, i int) error {
		D := d[i]
		_, err := stmt.Exec(D.DateTime, D.ArtifactPath, D.Value, D.DataSourceName, D.MeasurementName, D.MeasureName, D.VariableName)
		return err
	})
	if err != nil {
		return d, err
	}
	return nil, nil
}

func (p *PSQL) SaveFindings(f []mqc.Finding) bool {
	return genericSave[mqc.Finding](
		f,
		p.localFilter,
		p.findingFunction,
		p.buffer,
	)
}

func (p *PSQL) findingFunction(f []mqc.Finding) (failed []mqc.Finding, err error) {
	err = p.insert(insertFindings, mqc.FINDING, len(f), func(stmt *sql.Stmt, i int) error {
		F := f[i]
		data, err := findingData(F)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(F.DateTime, F.ArtifactPath, F.DataSourceName, F.MeasurementName,
			F.Description, F.State, F.SubjectType, pq.Array(F.SubjectPath), data)
		return err
	})
	if err != nil {
		return f, err
	}
	return nil, nil
}

// findingData returns the related values of a finding as a JSON document,
// or nil when there are none.
func findingData(f mqc.Finding) ([]byte, error) {
	if len(f.Data) == 0 {
		return nil, nil
	}
	return json.Marshal(f.Data)
}

// insert runs the statement once per row in a single transaction.
// Any failure rolls back the whole batch.
func (p *PSQL) insert(query, export string, rows int, exec func(*sql.Stmt, int) error) error {
	p.updateStats()
	defer p.updateStats()

	p.sent(export).Add(float64(rows))

	txn, err := p.dbConn.Begin()
	if err != nil {
		p.failed(export).Add(float64(rows))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := txn.Prepare(query)
	if err != nil {
		txn.Rollback()
		p.failed(export).Add(float64(rows))
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < rows; i++ {
		if err := exec(stmt, i); err != nil {
			txn.Rollback()
			p.failed(export).Add(float64(rows))
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}

	if err := txn.Commit(); err != nil {
		p.failed(export).Add(float64(rows))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
