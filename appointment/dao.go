package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"card-scheduler/scheduler"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const selectColumns = `SELECT id, owner_id, customer_id, visitor_name, visitor_phone, note, to_char(appointment_date, 'YYYY-MM-DD'), appointment_time, status, created_at, updated_at FROM appointments`

// CreateAppointment books a pending appointment after checking the requested time is still free.
// Two bookings racing for the same slot cannot both succeed: the loser gets ErrSlotTaken.
func (a *Accessor) CreateAppointment(ctx context.Context, appt Appointment, now time.Time) (*Appointment, error) {
	if err := appt.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if a.locker != nil {
		key := fmt.Sprintf("appointment:lock:%s:%s:%s", appt.OwnerID, appt.AppointmentDate, appt.AppointmentTime)
		ok, value, err := a.locker.TryLock(ctx, key, a.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("try lock: %w", err)
		}
		if !ok {
			return nil, ErrSlotTaken
		}
		defer func() { _ = a.locker.Unlock(context.WithoutCancel(ctx), key, value) }()
	}

	free, err := a.FreeSlots(ctx, appt.OwnerID, appt.AppointmentDate, now)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(free, appt.AppointmentTime) {
		return nil, ErrSlotUnavailable
	}

	id := uuid.New()

	query := `INSERT INTO appointments (id, owner_id, customer_id, visitor_name, visitor_phone, note, appointment_date, appointment_time, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	if _, err := a.db.ExecContext(ctx, query, id, appt.OwnerID, appt.CustomerID, appt.VisitorName, appt.VisitorPhone, appt.Note, appt.AppointmentDate, appt.AppointmentTime, StatusPending, now); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("exec context: %w", err)
	}

	appt.ID = id
	appt.Status = StatusPending
	appt.CreatedAt = now
	appt.UpdatedAt = now
	return &appt, nil
}

// FreeSlots computes the bookable times of an owner on date ("YYYY-MM-DD") as seen at now.
// A date already behind now in the accessor's location has no free slots.
func (a *Accessor) FreeSlots(ctx context.Context, ownerID uuid.UUID, date string, now time.Time) ([]string, error) {
	day, err := time.ParseInLocation(DateLayout, date, a.location)
	if err != nil {
		return nil, fmt.Errorf("%w: appointment date must be YYYY-MM-DD", ErrValidation)
	}

	cfg, err := a.configs.GetConfig(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	if cfg == nil {
		return nil, ErrSchedulerNotFound
	}

	ny, nm, nd := now.In(a.location).Date()
	if day.Before(time.Date(ny, nm, nd, 0, 0, 0, 0, a.location)) {
		return []string{}, nil
	}

	booked, err := a.BookedTimes(ctx, ownerID, date)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}

	return scheduler.ComputeSlots(cfg, day, booked, now), nil
}

// BookedTimes lists the times on date held by pending or approved appointments.
func (a *Accessor) BookedTimes(ctx context.Context, ownerID uuid.UUID, date string) ([]string, error) {
	query := `SELECT appointment_time FROM appointments WHERE owner_id = $1 AND appointment_date = $2 AND status <> $3`
	rows, err := a.db.QueryContext(ctx, query, ownerID, date, StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (a *Accessor) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := selectColumns + ` WHERE id = $1`
	row := a.db.QueryRowContext(ctx, query, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return appt, nil
}

func (a *Accessor) GetAppointments(ctx context.Context) ([]Appointment, error) {
	query := selectColumns + ` ORDER BY appointment_date, appointment_time`
	return a.list(ctx, query)
}

func (a *Accessor) GetAppointmentsForOwner(ctx context.Context, ownerID uuid.UUID) ([]Appointment, error) {
	query := selectColumns + ` WHERE owner_id = $1 ORDER BY appointment_date, appointment_time`
	return a.list(ctx, query, ownerID)
}

func (a *Accessor) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()

	appts := []Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		appts = append(appts, *appt)
	}
	return appts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(s scanner) (*Appointment, error) {
	var appt Appointment
	var customerID, note sql.NullString
	if err := s.Scan(&appt.ID, &appt.OwnerID, &customerID, &appt.VisitorName, &appt.VisitorPhone, &note,
		&appt.AppointmentDate, &appt.AppointmentTime, &appt.Status, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return nil, err
	}
	appt.CustomerID = customerID.String
	appt.Note = note.String
	return &appt, nil
}

// Approve moves a pending appointment to Approved. Approving twice is a no-op;
// approving a rejected appointment fails with ErrInvalidTransition.
func (a *Accessor) Approve(ctx context.Context, id uuid.UUID, now time.Time) (*Appointment, error) {
	return a.decide(ctx, id, StatusApproved, now)
}

// Reject moves a pending appointment to Rejected. Rejecting twice is a no-op;
// rejecting an approved appointment fails with ErrInvalidTransition.
func (a *Accessor) Reject(ctx context.Context, id uuid.UUID, now time.Time) (*Appointment, error) {
	return a.decide(ctx, id, StatusRejected, now)
}

func (a *Accessor) decide(ctx context.Context, id uuid.UUID, target Status, now time.Time) (*Appointment, error) {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := a.db.ExecContext(ctx, query, target, now, id, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("exec context: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	appt, err := a.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	if affected == 0 && appt.Status != target {
		return nil, fmt.Errorf("%w: status is %s", ErrInvalidTransition, appt.Status)
	}
	return appt, nil
}

func (a *Accessor) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM appointments WHERE id = $1`
	res, err := a.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("exec context: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RejectStale rejects pending appointments whose slot start is at or before now.
func (a *Accessor) RejectStale(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE status = $3 AND (appointment_date + appointment_time::time) <= $4::timestamp`
	wallClock := now.In(a.location).Format("2006-01-02 15:04:05")
	res, err := a.db.ExecContext(ctx, query, StatusRejected, now, StatusPending, wallClock)
	if err != nil {
		return 0, fmt.Errorf("exec context: %w", err)
	}
	return res.RowsAffected()
}
