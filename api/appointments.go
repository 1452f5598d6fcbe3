package api

import (
	"card-scheduler/appointment"
	"card-scheduler/metrics"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type createAppointmentRequest struct {
	UserID          string `json:"userId" validate:"required,uuid"`
	CustomerID      string `json:"customerId"`
	VisitorName     string `json:"visitorName" validate:"required"`
	VisitorPhone    string `json:"visitorPhone" validate:"required"`
	Note            string `json:"note"`
	AppointmentDate string `json:"appointmentDate" validate:"required,isodate"`
	AppointmentTime string `json:"appointmentTime" validate:"required,hhmm"`
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, appointment.ErrSlotTaken):
		return "taken"
	case errors.Is(err, appointment.ErrSlotUnavailable):
		return "unavailable"
	case errors.Is(err, appointment.ErrSchedulerNotFound), errors.Is(err, appointment.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateRequest(req); err != nil {
		metrics.IncAppointmentCreated("invalid")
		a.Response(w, http.StatusBadRequest, err.Error())
		return
	}

	payload := appointment.Appointment{
		OwnerID:         uuid.MustParse(req.UserID),
		CustomerID:      req.CustomerID,
		VisitorName:     req.VisitorName,
		VisitorPhone:    req.VisitorPhone,
		Note:            req.Note,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
	}

	appt, err := a.appointments.CreateAppointment(r.Context(), payload, a.clock())
	metrics.IncAppointmentCreated(bookingResult(err))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("owner_id", appt.OwnerID.String()).
		Str("date", appt.AppointmentDate).
		Str("time", appt.AppointmentTime).
		Msg("appointment booked")
	a.Response(w, http.StatusCreated, appt)
}

type getAppointmentsResponse struct {
	Appointments []appointment.Appointment `json:"appointments"`
}

// getAppointments lists every appointment when tokens are off. With tokens on, the list is
// scoped to the owner named by the token subject.
func (a *API) getAppointments(w http.ResponseWriter, r *http.Request) {
	if len(a.jwtSecret) > 0 {
		ownerID, err := uuid.Parse(tokenSubject(r))
		if err != nil {
			a.Response(w, http.StatusForbidden, "token subject is not an owner")
			return
		}
		appts, err := a.appointments.GetAppointmentsForOwner(r.Context(), ownerID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.Response(w, http.StatusOK, getAppointmentsResponse{Appointments: appts})
		return
	}

	appts, err := a.appointments.GetAppointments(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, getAppointmentsResponse{Appointments: appts})
}

func (a *API) getOwnerAppointments(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUserID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !a.ownedBy(r, ownerID) {
		a.Response(w, http.StatusForbidden, "not the card owner")
		return
	}

	appts, err := a.appointments.GetAppointmentsForOwner(r.Context(), ownerID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(appts) == 0 {
		a.Response(w, http.StatusNotFound, "no appointments found")
		return
	}
	a.Response(w, http.StatusOK, getAppointmentsResponse{Appointments: appts})
}

// loadOwned resolves {id} and checks the caller owns the appointment.
// It writes the error response itself and returns nil on failure.
func (a *API) loadOwned(w http.ResponseWriter, r *http.Request) *appointment.Appointment {
	id := mux.Vars(r)["id"]
	parsedID, err := uuid.Parse(id)
	if err != nil {
		a.Response(w, http.StatusBadRequest, "invalid appointment ID")
		return nil
	}

	appt, err := a.appointments.GetAppointment(r.Context(), parsedID)
	if err != nil {
		a.fail(w, r, err)
		return nil
	}
	if appt == nil {
		a.Response(w, http.StatusNotFound, "appointment not found")
		return nil
	}
	if !a.ownedBy(r, appt.OwnerID) {
		a.Response(w, http.StatusForbidden, "not the card owner")
		return nil
	}
	return appt
}

func (a *API) approveAppointment(w http.ResponseWriter, r *http.Request) {
	appt := a.loadOwned(w, r)
	if appt == nil {
		return
	}

	updated, err := a.appointments.Approve(r.Context(), appt.ID, a.clock())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	metrics.IncOwnerDecision("approve")
	a.Response(w, http.StatusOK, updated)
}

func (a *API) rejectAppointment(w http.ResponseWriter, r *http.Request) {
	appt := a.loadOwned(w, r)
	if appt == nil {
		return
	}

	updated, err := a.appointments.Reject(r.Context(), appt.ID, a.clock())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	metrics.IncOwnerDecision("reject")
	a.Response(w, http.StatusOK, updated)
}

func (a *API) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	appt := a.loadOwned(w, r)
	if appt == nil {
		return
	}

	if err := a.appointments.DeleteAppointment(r.Context(), appt.ID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger.Info().Str("appointment_id", appt.ID.String()).Str("status", string(appt.Status)).Msg("appointment deleted")
	w.WriteHeader(http.StatusNoContent)
}
