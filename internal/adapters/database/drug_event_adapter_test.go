package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	apperrors "github.com/zatekoja/drugevents/pkg/errors"
)

func setupMockAdapter(t *testing.T, dialect string) (*DrugEventAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter, err := NewDrugEventAdapter(db, dialect, "drug_events")
	require.NoError(t, err)
	return adapter, mock
}

func sampleRow() entities.EnrichedRow {
	return entities.EnrichedRow{
		DrugName:          "ASPIRIN",
		PatientAge:        "8",
		AgeUnit:           "801",
		DrugReaction:      "mild fever",
		PatientAgeNumeric: 8,
		DrugNameCleaned:   "aspirin",
		ReactionSeverity:  entities.SeverityModerate,
		AgeGroup:          entities.AgeGroupChild,
	}
}

func TestNewDrugEventAdapter_Validation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tests := []struct {
		name    string
		dialect string
		table   string
	}{
		{name: "unknown dialect", dialect: "mysql", table: "drug_events"},
		{name: "quoted table", dialect: DialectPostgres, table: `drug"events`},
		{name: "uppercase table", dialect: DialectSQLite, table: "DrugEvents"},
		{name: "empty table", dialect: DialectPostgres, table: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDrugEventAdapter(db, tt.dialect, tt.table)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestDrugEventAdapter_Replace_Postgres(t *testing.T) {
	adapter, mock := setupMockAdapter(t, DialectPostgres)
	row := sampleRow()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// goqu orders record columns alphabetically
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "drug_events" ("age_group", "age_unit", "drug_name", "drug_name_cleaned", "drug_reaction", "patient_age", "patient_age_numeric", "reaction_severity") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)).
		WithArgs("child", "801", "ASPIRIN", "aspirin", "mild fever", "8", float64(8), "moderate").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := adapter.Replace(context.Background(), []entities.EnrichedRow{row})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrugEventAdapter_Replace_SQLiteBatches(t *testing.T) {
	adapter, mock := setupMockAdapter(t, DialectSQLite)

	rows := make([]entities.EnrichedRow, insertBatchSize+1)
	for i := range rows {
		rows[i] = sampleRow()
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`AUTOINCREMENT`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, int64(insertBatchSize)))
	mock.ExpectExec(`INSERT INTO "drug_events" .* VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\)$`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.Replace(context.Background(), rows)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrugEventAdapter_Replace_EmptyStillRecreates(t *testing.T) {
	adapter, mock := setupMockAdapter(t, DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, adapter.Replace(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrugEventAdapter_Replace_RollsBackOnInsertFailure(t *testing.T) {
	adapter, mock := setupMockAdapter(t, DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "drug_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "drug_events"`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := adapter.Replace(context.Background(), []entities.EnrichedRow{sampleRow()})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrugEventAdapter_Count(t *testing.T) {
	adapter, mock := setupMockAdapter(t, DialectPostgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "drug_events"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := adapter.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrugEventAdapter_List(t *testing.T) {
	adapter, mock := setupMockAdapter(t, DialectPostgres)

	rows := sqlmock.NewRows(entities.SinkColumns).
		AddRow("ASPIRIN", "8", "801", "mild fever", 8.0, "aspirin", "moderate", "child").
		AddRow("WARFARIN", "71", "801", "Death", 71.0, "warfarin", "severe", "senior")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "drug_name", "patient_age", "age_unit", "drug_reaction", "patient_age_numeric", "drug_name_cleaned", "reaction_severity", "age_group" FROM "drug_events" ORDER BY "id" ASC`)).
		WillReturnRows(rows)

	got, err := adapter.List(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sampleRow(), got[0])
	assert.Equal(t, entities.SeveritySevere, got[1].ReactionSeverity)
	assert.Equal(t, entities.AgeGroupSenior, got[1].AgeGroup)
	assert.NoError(t, mock.ExpectationsWereMet())
}
