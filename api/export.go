package api

import (
	"card-scheduler/appointment"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Appointments"

var exportColumns = []string{"Date", "Time", "Visitor", "Phone", "Note", "Status", "Booked at"}

func (a *API) exportOwnerAppointments(w http.ResponseWriter, r *http.Request) {
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

	f, err := buildWorkbook(appts, a.location)
	if err != nil {
		a.fail(w, r, fmt.Errorf("build workbook: %w", err))
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="appointments-%s.xlsx"`, ownerID))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		a.logger.Error().Err(err).Str("owner_id", ownerID.String()).Msg("write workbook")
	}
}

// buildWorkbook lays out one row per appointment under a bold header row.
func buildWorkbook(appts []appointment.Appointment, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, col); err != nil {
			return nil, err
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(exportSheet, "A1", endCell, style)
	}

	for i, appt := range appts {
		row := []any{
			appt.AppointmentDate,
			appt.AppointmentTime,
			appt.VisitorName,
			appt.VisitorPhone,
			appt.Note,
			string(appt.Status),
			appt.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
