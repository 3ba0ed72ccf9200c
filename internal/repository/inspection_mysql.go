package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecocivic/civicledger/internal/model"
)

// InspectionRepo provides MySQL-backed access to the inspections
// table.  Rows are created on scheduling and mutated exactly once
// on completion.
type InspectionRepo struct {
	db *sql.DB
}

// NewInspectionRepo returns an InspectionRepo bound to the provided database.
func NewInspectionRepo(db *sql.DB) *InspectionRepo { return &InspectionRepo{db: db} }

// Create stores a scheduled inspection and fills in its
// auto-increment ID.
func (r *InspectionRepo) Create(ctx context.Context, ins *model.Inspection) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO inspections (identity, inspector, scheduled_at, completed) VALUES (?, ?, ?, FALSE)`,
		ins.Identity, ins.Inspector, ins.ScheduledAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ins.ID = uint64(id)
	return nil
}

// Get returns an inspection or ErrInspectionNotFound.
func (r *InspectionRepo) Get(ctx context.Context, id uint64) (*model.Inspection, error) {
	var ins model.Inspection
	var inspector sql.NullString
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity, inspector, scheduled_at, completed, fraud_found,
		 actual_reading, reported_reading, reason, completed_at
		 FROM inspections WHERE id = ? LIMIT 1`, id).
		Scan(&ins.ID, &ins.Identity, &inspector, &ins.ScheduledAt, &ins.Completed,
			&ins.FraudFound, &ins.ActualReading, &ins.ReportedReading, &ins.Reason, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInspectionNotFound
	}
	if err != nil {
		return nil, err
	}
	ins.Inspector = inspector.String
	if completedAt.Valid {
		t := completedAt.Time
		ins.CompletedAt = &t
	}
	return &ins, nil
}

// Complete writes the completion fields to the row.  The service
// has already verified the inspection exists and is not completed;
// the WHERE clause guards against a lost race anyway.
func (r *InspectionRepo) Complete(ctx context.Context, ins *model.Inspection) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inspections SET inspector = ?, completed = TRUE, fraud_found = ?,
		 actual_reading = ?, reported_reading = ?, reason = ?, completed_at = UTC_TIMESTAMP()
		 WHERE id = ? AND completed = FALSE`,
		ins.Inspector, ins.FraudFound, ins.ActualReading, ins.ReportedReading, ins.Reason, ins.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInspectionNotFound
	}
	return nil
}

// LastCompletedAt returns the completion time of the most recent
// completed inspection for an account, or nil when never inspected.
func (r *InspectionRepo) LastCompletedAt(ctx context.Context, identity string) (*time.Time, error) {
	var t time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT completed_at FROM inspections
		 WHERE identity = ? AND completed = TRUE
		 ORDER BY completed_at DESC LIMIT 1`, identity).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
