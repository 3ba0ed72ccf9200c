package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecocivic/civicledger/internal/model"
)

// ReadingRepo provides MySQL-backed access to the meters and
// readings tables.  Readings are append only; there is no update
// or delete path by design.
type ReadingRepo struct {
	db *sql.DB
}

// NewReadingRepo returns a ReadingRepo bound to the provided database.
func NewReadingRepo(db *sql.DB) *ReadingRepo { return &ReadingRepo{db: db} }

// BindMeter creates the one-to-one meter binding.  Unique keys on
// both meter_no and identity turn a rebind of either side into a
// duplicate-key failure, reported as ErrMeterBound.
func (r *ReadingRepo) BindMeter(ctx context.Context, b *model.MeterBinding) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meters (meter_no, identity, bound_by) VALUES (?, ?, ?)`,
		b.MeterNo, b.Identity, b.BoundBy)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrMeterBound
	}
	return err
}

// MeterBinding resolves a meter number to its binding.
func (r *ReadingRepo) MeterBinding(ctx context.Context, meterNo string) (*model.MeterBinding, error) {
	var b model.MeterBinding
	err := r.db.QueryRowContext(ctx,
		`SELECT meter_no, identity, bound_by, created_at FROM meters WHERE meter_no = ? LIMIT 1`,
		meterNo).Scan(&b.MeterNo, &b.Identity, &b.BoundBy, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMeterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// LastReading returns the most recent accepted reading for a
// meter, or nil when the meter has no history yet.
func (r *ReadingRepo) LastReading(ctx context.Context, meterNo string) (*model.Reading, error) {
	var rd model.Reading
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity, meter_no, value, consumption, user_confirmed, created_at
		 FROM readings WHERE meter_no = ? ORDER BY id DESC LIMIT 1`,
		meterNo).Scan(&rd.ID, &rd.Identity, &rd.MeterNo, &rd.Value, &rd.Consumption,
		&rd.UserConfirmed, &rd.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

// RecentByMeter returns up to limit trailing accepted readings for
// a meter, most recent first.
func (r *ReadingRepo) RecentByMeter(ctx context.Context, meterNo string, limit int) ([]model.Reading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, identity, meter_no, value, consumption, user_confirmed, created_at
		 FROM readings WHERE meter_no = ? ORDER BY id DESC LIMIT ?`,
		meterNo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reading
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(&rd.ID, &rd.Identity, &rd.MeterNo, &rd.Value, &rd.Consumption,
			&rd.UserConfirmed, &rd.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

// Append stores a new accepted reading and fills in its ID.
func (r *ReadingRepo) Append(ctx context.Context, rd *model.Reading) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (identity, meter_no, value, consumption, user_confirmed)
		 VALUES (?, ?, ?, ?, ?)`,
		rd.Identity, rd.MeterNo, rd.Value, rd.Consumption, rd.UserConfirmed)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rd.ID = uint64(id)
	return nil
}

// History lists accepted readings for an account, most recent first.
func (r *ReadingRepo) History(ctx context.Context, identity string, limit int) ([]model.Reading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, identity, meter_no, value, consumption, user_confirmed, created_at
		 FROM readings WHERE identity = ? ORDER BY id DESC LIMIT ?`,
		identity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reading
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(&rd.ID, &rd.Identity, &rd.MeterNo, &rd.Value, &rd.Consumption,
			&rd.UserConfirmed, &rd.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
