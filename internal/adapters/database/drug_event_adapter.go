package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/repositories"
	"github.com/zatekoja/drugevents/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/drugevents/internal/infrastructure/clients/sqlite"
	apperrors "github.com/zatekoja/drugevents/pkg/errors"
)

// Dialect names understood by goqu
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

const insertBatchSize = 500

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

var createTableSQL = map[string]string{
	DialectPostgres: `CREATE TABLE %q (
	id SERIAL PRIMARY KEY,
	drug_name TEXT,
	patient_age VARCHAR(50),
	age_unit VARCHAR(50),
	drug_reaction TEXT,
	patient_age_numeric DOUBLE PRECISION,
	drug_name_cleaned TEXT,
	reaction_severity VARCHAR(50),
	age_group VARCHAR(50)
)`,
	DialectSQLite: `CREATE TABLE %q (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	drug_name TEXT,
	patient_age TEXT,
	age_unit TEXT,
	drug_reaction TEXT,
	patient_age_numeric REAL,
	drug_name_cleaned TEXT,
	reaction_severity TEXT,
	age_group TEXT
)`,
}

// DrugEventAdapter implements DrugEventRepository on a SQL database
type DrugEventAdapter struct {
	sqlDB   *sql.DB
	db      *goqu.Database
	dialect string
	table   string
}

// NewDrugEventAdapter creates an adapter for table using the given goqu dialect
func NewDrugEventAdapter(sqlDB *sql.DB, dialect, table string) (*DrugEventAdapter, error) {
	if _, ok := createTableSQL[dialect]; !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported dialect %q", dialect))
	}
	if !tableNamePattern.MatchString(table) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid table name %q", table))
	}
	return &DrugEventAdapter{
		sqlDB:   sqlDB,
		db:      goqu.New(dialect, sqlDB),
		dialect: dialect,
		table:   table,
	}, nil
}

// NewPostgresDrugEventAdapter creates a PostgreSQL-backed repository
func NewPostgresDrugEventAdapter(client *postgres.Client, table string) (repositories.DrugEventRepository, error) {
	adapter, err := NewDrugEventAdapter(client.DB(), DialectPostgres, table)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}

// NewSQLiteDrugEventAdapter creates a SQLite-backed repository
func NewSQLiteDrugEventAdapter(client *sqlite.Client, table string) (repositories.DrugEventRepository, error) {
	adapter, err := NewDrugEventAdapter(client.DB(), DialectSQLite, table)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}

// Replace drops and recreates the table, then inserts rows in one transaction
func (a *DrugEventAdapter) Replace(ctx context.Context, rows []entities.EnrichedRow) error {
	tx, err := a.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", a.table)); err != nil {
		return apperrors.NewInternalError("failed to drop table", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(createTableSQL[a.dialect], a.table)); err != nil {
		return apperrors.NewInternalError("failed to create table", err)
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		records := make([]interface{}, 0, end-start)
		for _, row := range rows[start:end] {
			records = append(records, toRecord(row))
		}

		query, args, err := a.db.Insert(a.table).Prepared(true).Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to insert rows %d-%d", start, end), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit drug events", err)
	}
	return nil
}

// Count returns the number of persisted rows
func (a *DrugEventAdapter) Count(ctx context.Context) (int, error) {
	query, args, err := a.db.From(a.table).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count drug events", err)
	}
	return count, nil
}

// List returns every persisted row in insertion order
func (a *DrugEventAdapter) List(ctx context.Context) ([]entities.EnrichedRow, error) {
	cols := make([]interface{}, 0, len(entities.SinkColumns))
	for _, c := range entities.SinkColumns {
		cols = append(cols, c)
	}

	query, args, err := a.db.From(a.table).Select(cols...).Order(goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list drug events", err)
	}
	defer rows.Close()

	var out []entities.EnrichedRow
	for rows.Next() {
		var (
			row                                     entities.EnrichedRow
			drugName, patientAge, ageUnit, reaction sql.NullString
			cleaned, severity, ageGroup             sql.NullString
			ageNumeric                              sql.NullFloat64
		)
		if err := rows.Scan(&drugName, &patientAge, &ageUnit, &reaction, &ageNumeric, &cleaned, &severity, &ageGroup); err != nil {
			return nil, apperrors.NewInternalError("failed to scan drug event", err)
		}
		row.DrugName = drugName.String
		row.PatientAge = patientAge.String
		row.AgeUnit = ageUnit.String
		row.DrugReaction = reaction.String
		row.PatientAgeNumeric = ageNumeric.Float64
		row.DrugNameCleaned = cleaned.String
		row.ReactionSeverity = entities.ReactionSeverity(severity.String)
		row.AgeGroup = entities.AgeGroup(ageGroup.String)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate drug events", err)
	}
	return out, nil
}

func toRecord(row entities.EnrichedRow) goqu.Record {
	return goqu.Record{
		"drug_name":           row.DrugName,
		"patient_age":         row.PatientAge,
		"age_unit":            row.AgeUnit,
		"drug_reaction":       row.DrugReaction,
		"patient_age_numeric": row.PatientAgeNumeric,
		"drug_name_cleaned":   row.DrugNameCleaned,
		"reaction_severity":   string(row.ReactionSeverity),
		"age_group":           string(row.AgeGroup),
	}
}
