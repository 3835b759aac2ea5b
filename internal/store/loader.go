package store

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/fmed-ingest/internal/core"
	"github.com/JonMunkholm/fmed-ingest/internal/logging"
)

const createPatientsTable = `
CREATE TABLE IF NOT EXISTS patients (
	patient_id          TEXT PRIMARY KEY,
	first_name          TEXT NOT NULL,
	last_name           TEXT NOT NULL,
	date_of_birth       DATE NOT NULL,
	gender              TEXT NOT NULL,
	medical_history     TEXT,
	allergies           TEXT,
	current_medications TEXT,
	hospital_id         INTEGER NOT NULL
)`

const insertPatient = `
INSERT INTO patients (patient_id, first_name, last_name, date_of_birth, gender,
                      medical_history, allergies, current_medications, hospital_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (patient_id) DO NOTHING`

// LoadResult counts what one Load call did.
type LoadResult struct {
	Inserted int
	Skipped  int
}

// Loader writes record batches to their partition database.
type Loader struct {
	connector    Connector
	ensureSchema bool
}

// NewLoader returns a loader. When ensureSchema is set every load creates the
// patients table if it is missing.
func NewLoader(connector Connector, ensureSchema bool) *Loader {
	return &Loader{connector: connector, ensureSchema: ensureSchema}
}

// Load inserts records into the database for partition inside one
// transaction. Records whose patient_id already exists are left untouched.
// Any error rolls back the whole batch.
func (l *Loader) Load(ctx context.Context, records []core.PatientRecord, partition core.Partition) (LoadResult, error) {
	var result LoadResult
	if len(records) == 0 {
		return result, nil
	}

	log := logging.WithFields(ctx, "partition", int(partition), "records", len(records))
	start := time.Now()

	conn, err := l.connector.Connect(ctx, partition)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("close connection failed", "error", err)
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx)) // No-op once committed

	if l.ensureSchema {
		if _, err := tx.Exec(ctx, createPatientsTable); err != nil {
			return result, fmt.Errorf("ensure patients table: %w", err)
		}
	}

	var inserted, skipped int
	for i, rec := range records {
		tag, err := tx.Exec(ctx, insertPatient, patientArgs(rec)...)
		if err != nil {
			return result, fmt.Errorf("insert %s (record %d): %w", rec.PatientID, i+1, err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result = LoadResult{Inserted: inserted, Skipped: skipped}
	log.Info("records loaded",
		"inserted", inserted,
		"skipped", skipped,
		"duration", time.Since(start),
	)
	return result, nil
}

func patientArgs(rec core.PatientRecord) []any {
	return []any{
		rec.PatientID,
		core.ToPgText(rec.FirstName),
		core.ToPgText(rec.LastName),
		core.ToPgDate(rec.DateOfBirth),
		string(rec.Gender),
		core.ToPgText(rec.MedicalHistory),
		core.ToPgText(rec.Allergies),
		core.ToPgText(rec.CurrentMedications),
		int32(rec.Partition),
	}
}
