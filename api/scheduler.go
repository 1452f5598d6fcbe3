package api

import (
	"card-scheduler/appointment"
	"card-scheduler/metrics"
	"card-scheduler/scheduler"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type timeRangeRequest struct {
	Open  string `json:"open" validate:"required,hhmm"`
	Close string `json:"close" validate:"required,hhmm"`
}

type upsertSchedulerRequest struct {
	UserID       string                      `json:"userId" validate:"required,uuid"`
	ActiveDays   []string                    `json:"activeDays" validate:"dive,weekday"`
	TimeRanges   map[string]timeRangeRequest `json:"timeRanges" validate:"dive,keys,weekday,endkeys"`
	SlotDuration int                         `json:"slotDuration" validate:"required,gt=0"`
}

func (req upsertSchedulerRequest) toConfig() (scheduler.Config, error) {
	cfg := scheduler.Config{
		OwnerID:      uuid.MustParse(req.UserID),
		ActiveDays:   make([]scheduler.Weekday, 0, len(req.ActiveDays)),
		TimeRanges:   make(map[scheduler.Weekday]scheduler.TimeRange, len(req.TimeRanges)),
		SlotDuration: req.SlotDuration,
	}
	seen := make(map[scheduler.Weekday]bool, len(req.ActiveDays))
	for _, d := range req.ActiveDays {
		day, err := scheduler.ParseWeekday(d)
		if err != nil {
			return cfg, err
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		cfg.ActiveDays = append(cfg.ActiveDays, day)
	}
	for d, r := range req.TimeRanges {
		day, err := scheduler.ParseWeekday(d)
		if err != nil {
			return cfg, err
		}
		if _, dup := cfg.TimeRanges[day]; dup {
			return cfg, fmt.Errorf("duplicate time range for %s", day)
		}
		cfg.TimeRanges[day] = scheduler.TimeRange{Open: r.Open, Close: r.Close}
	}
	return cfg, nil
}

func (a *API) upsertScheduler(w http.ResponseWriter, r *http.Request) {
	var req upsertSchedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateRequest(req); err != nil {
		a.Response(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := req.toConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		a.Response(w, http.StatusBadRequest, fmt.Sprintf("validate: %v", err))
		return
	}

	if !a.ownedBy(r, cfg.OwnerID) {
		a.Response(w, http.StatusForbidden, "not the card owner")
		return
	}

	stored, created, err := a.configs.UpsertConfig(r.Context(), cfg, a.clock())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	a.logger.Info().Str("owner_id", cfg.OwnerID.String()).Bool("created", created).Msg("scheduler saved")
	a.Response(w, status, stored)
}

func parseUserID(r *http.Request) (uuid.UUID, error) {
	id := mux.Vars(r)["userId"]
	if id == "" {
		return uuid.Nil, fmt.Errorf("%w: user ID is required", appointment.ErrValidation)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid user ID", appointment.ErrValidation)
	}
	return parsed, nil
}

func (a *API) getScheduler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUserID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	cfg, err := a.configs.GetConfig(r.Context(), ownerID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if cfg == nil {
		a.Response(w, http.StatusNotFound, "scheduler not found")
		return
	}

	a.Response(w, http.StatusOK, cfg)
}

type freeSlotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

func (a *API) getFreeSlots(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUserID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		a.Response(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	slots, err := a.appointments.FreeSlots(r.Context(), ownerID, date, a.clock())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	metrics.IncSlotsComputed()

	a.Response(w, http.StatusOK, freeSlotsResponse{Date: date, Slots: slots})
}
