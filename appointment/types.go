package appointment

import (
	"errors"
	"fmt"
	"time"

	"card-scheduler/scheduler"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("appointment not found")
	ErrSchedulerNotFound = errors.New("owner has not enabled appointments")
	ErrSlotUnavailable   = errors.New("requested time is not a free slot")
	ErrSlotTaken         = errors.New("slot already booked")
	ErrInvalidTransition = errors.New("appointment already decided")
)

type Appointment struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"userId"`
	CustomerID      string    `json:"customerId,omitempty"`
	VisitorName     string    `json:"visitorName"`
	VisitorPhone    string    `json:"visitorPhone"`
	Note            string    `json:"note,omitempty"`
	AppointmentDate string    `json:"appointmentDate"`
	AppointmentTime string    `json:"appointmentTime"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (a *Appointment) Validate() error {
	if a.OwnerID == uuid.Nil {
		return errors.New("user ID is required")
	}
	if a.VisitorName == "" {
		return errors.New("visitor name is required")
	}
	if a.VisitorPhone == "" {
		return errors.New("visitor phone is required")
	}
	if _, err := time.Parse(DateLayout, a.AppointmentDate); err != nil {
		return fmt.Errorf("appointment date must be YYYY-MM-DD: %w", err)
	}
	if _, err := scheduler.ParseClock(a.AppointmentTime); err != nil {
		return fmt.Errorf("appointment time: %w", err)
	}
	return nil
}
