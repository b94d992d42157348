package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisched/hospital-appointment-api/middleware"
	"github.com/medisched/hospital-appointment-api/model"
	"github.com/medisched/hospital-appointment-api/util"
)

type BookAppointmentRequest struct {
	DoctorID        uint   `json:"doctorId" binding:"required" example:"1"`
	AppointmentDate string `json:"appointmentDate" binding:"required" example:"2026-09-01"`
	AppointmentTime string `json:"appointmentTime" binding:"required" example:"10:30"`
	Reason          string `json:"reason" binding:"required" example:"Checkup"`
	Notes           string `json:"notes" example:"First visit"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"completed"`
}

// parseAppointmentDate accepts a plain calendar date or a full timestamp and
// normalizes it to midnight UTC so slot comparisons are exact.
func parseAppointmentDate(raw string) (time.Time, error) {
	var parsed time.Time
	var err error
	if parsed, err = time.Parse("2006-01-02", raw); err != nil {
		if parsed, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, fmt.Errorf("appointment date must be YYYY-MM-DD or RFC3339")
		}
	}
	y, m, d := parsed.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// validSlotTime enforces the fixed-width HH:MM slot format that date/time
// ordering relies on.
func validSlotTime(raw string) bool {
	if len(raw) != 5 || raw[2] != ':' {
		return false
	}
	hh, err := strconv.Atoi(raw[:2])
	if err != nil {
		return false
	}
	mm, err := strconv.Atoi(raw[3:])
	if err != nil {
		return false
	}
	return hh >= 0 && hh <= 23 && mm >= 0 && mm <= 59
}

// ownsAppointment reports whether the user is the appointment's patient or
// its doctor.
func ownsAppointment(user *model.User, appt *model.Appointment) bool {
	if user.Role == model.RolePatient {
		return appt.PatientID == user.ID
	}
	if user.Role == model.RoleDoctor {
		return appt.DoctorID == user.ID
	}
	return false
}

func loadAppointmentOrRespond(c *gin.Context, db *gorm.DB, expand bool) (model.Appointment, bool) {
	var appt model.Appointment
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: fmt.Errorf("invalid appointment id")})
		return appt, false
	}

	query := db
	if expand {
		query = model.WithUsers(db)
	}
	if err := query.First(&appt, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: err})
		} else {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointment", Err: err})
		}
		return appt, false
	}
	return appt, true
}

// reloadView fetches the appointment with both user references expanded for
// the response body.
func reloadView(db *gorm.DB, id uint) (model.AppointmentView, error) {
	var appt model.Appointment
	if err := model.WithUsers(db).First(&appt, id).Error; err != nil {
		return model.AppointmentView{}, err
	}
	return appt.View(), nil
}

// BookAppointment godoc
// @Summary      Book an appointment slot with a doctor
// @Description  Patients reserve a (doctor, date, time) slot; at most one non-cancelled appointment may hold a slot
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BookAppointmentRequest true "Booking details"
// @Success      201 {object} map[string]interface{} "message and appointment"
// @Failure      400 {object} map[string]interface{} "Invalid doctor or slot already booked"
// @Failure      403 {object} map[string]interface{} "Patient role required"
// @Router       /appointments/book [post]
func BookAppointment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Token is not valid", Err: fmt.Errorf("no user in context")})
		return
	}

	var req BookAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	date, err := parseAppointmentDate(req.AppointmentDate)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: fmt.Errorf("invalid payload")})
		return
	}
	if !validSlotTime(req.AppointmentTime) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Appointment time must be HH:MM", Err: fmt.Errorf("invalid payload")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	// The target must exist and actually be a doctor.
	doctor, err := model.FindUserByID(db, req.DoctorID)
	if err != nil || doctor.Role != model.RoleDoctor {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid doctor selected", Err: fmt.Errorf("doctor %d not found", req.DoctorID)})
		return
	}

	// Friendly pre-check; the unique slot index is what makes this safe
	// against concurrent bookings.
	taken, err := model.SlotTaken(db, doctor.ID, date, req.AppointmentTime)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to check slot availability", Err: err})
		return
	}
	if taken {
		util.CallUserError(c, util.APIErrorParams{Msg: "This appointment slot is already booked", Err: fmt.Errorf("slot conflict")})
		return
	}

	active := true
	appt := model.Appointment{
		PatientID:       user.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: date,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Notes:           req.Notes,
		Status:          model.StatusScheduled,
		SlotActive:      &active,
	}
	if err := db.Create(&appt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race for the slot.
			util.CallUserError(c, util.APIErrorParams{Msg: "This appointment slot is already booked", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to book appointment", Err: err})
		return
	}

	view, err := reloadView(db, appt.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load appointment", Err: err})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Appointment booked successfully",
		"appointment": view,
	})
}

// ListAppointments godoc
// @Summary      List the caller's appointments
// @Description  Patients see their bookings, doctors their schedule; optional status and date filters
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Exact status filter"
// @Param        date query string false "Single-day filter (YYYY-MM-DD)"
// @Success      200 {object} map[string]interface{} "success, count, data"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Router       /appointments [get]
func ListAppointments(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Token is not valid", Err: fmt.Errorf("no user in context")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := model.WithUsers(db).Model(&model.Appointment{})

	// Visibility is always scoped to the caller; there is no role that sees
	// everything.
	switch user.Role {
	case model.RolePatient:
		query = query.Where("patient_id = ?", user.ID)
	case model.RoleDoctor:
		query = query.Where("doctor_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if rawDate := c.Query("date"); rawDate != "" {
		date, err := parseAppointmentDate(rawDate)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: fmt.Errorf("invalid date filter")})
			return
		}
		query = query.Where("appointment_date >= ? AND appointment_date < ?", date, date.AddDate(0, 0, 1))
	}

	var appointments []model.Appointment
	if err := query.
		Order("appointment_date ASC").
		Order("appointment_time ASC").
		Find(&appointments).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointments", Err: err})
		return
	}

	views := model.AppointmentViews(appointments)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(views),
		"data":    views,
	})
}

// GetAppointment godoc
// @Summary      Get one appointment by ID
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} map[string]interface{} "success, data"
// @Failure      403 {object} map[string]interface{} "Access denied"
// @Failure      404 {object} map[string]interface{} "Appointment not found"
// @Router       /appointments/{id} [get]
func GetAppointment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Token is not valid", Err: fmt.Errorf("no user in context")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appt, ok := loadAppointmentOrRespond(c, db, true)
	if !ok {
		return
	}

	if !ownsAppointment(user, &appt) {
		util.LogUnauthorizedAccess(fmt.Sprintf("%d", user.ID), user.Email, c.ClientIP(), c.Request.URL.Path, "not a participant")
		util.CallPermissionDenied(c, util.APIErrorParams{Msg: "Access denied", Err: fmt.Errorf("not a participant")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    appt.View(),
	})
}

// CancelAppointment godoc
// @Summary      Cancel an appointment
// @Description  Either participant may cancel; cancelling twice is rejected
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} map[string]interface{} "message and appointment"
// @Failure      400 {object} map[string]interface{} "Already cancelled"
// @Failure      403 {object} map[string]interface{} "Access denied"
// @Failure      404 {object} map[string]interface{} "Appointment not found"
// @Router       /appointments/{id}/cancel [put]
func CancelAppointment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Token is not valid", Err: fmt.Errorf("no user in context")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appt, ok := loadAppointmentOrRespond(c, db, false)
	if !ok {
		return
	}

	if !ownsAppointment(user, &appt) {
		util.LogUnauthorizedAccess(fmt.Sprintf("%d", user.ID), user.Email, c.ClientIP(), c.Request.URL.Path, "not a participant")
		util.CallPermissionDenied(c, util.APIErrorParams{Msg: "Access denied", Err: fmt.Errorf("not a participant")})
		return
	}

	if appt.Status == model.StatusCancelled {
		util.CallUserError(c, util.APIErrorParams{Msg: "Appointment is already cancelled", Err: fmt.Errorf("already cancelled")})
		return
	}

	// Clearing slot_active releases the unique slot index entry so the slot
	// becomes bookable again.
	if err := db.Model(&appt).Updates(map[string]interface{}{
		"status":      model.StatusCancelled,
		"slot_active": nil,
	}).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to cancel appointment", Err: err})
		return
	}

	view, err := reloadView(db, appt.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load appointment", Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment cancelled successfully",
		"appointment": view,
	})
}

// UpdateAppointmentStatus godoc
// @Summary      Update an appointment's status
// @Description  Only the assigned doctor may change status; the value must be one of scheduled, completed, cancelled
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Param        request body UpdateStatusRequest true "New status"
// @Success      200 {object} map[string]interface{} "message and appointment"
// @Failure      400 {object} map[string]interface{} "Invalid status"
// @Failure      403 {object} map[string]interface{} "Access denied"
// @Failure      404 {object} map[string]interface{} "Appointment not found"
// @Router       /appointments/{id}/status [put]
func UpdateAppointmentStatus(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Token is not valid", Err: fmt.Errorf("no user in context")})
		return
	}

	var req UpdateStatusRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !model.ValidStatus(req.Status) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid appointment status", Err: fmt.Errorf("unknown status %q", req.Status)})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appt, ok := loadAppointmentOrRespond(c, db, false)
	if !ok {
		return
	}

	// Only the assigned doctor may drive status transitions.
	if user.Role != model.RoleDoctor || appt.DoctorID != user.ID {
		util.LogUnauthorizedAccess(fmt.Sprintf("%d", user.ID), user.Email, c.ClientIP(), c.Request.URL.Path, "not the assigned doctor")
		util.CallPermissionDenied(c, util.APIErrorParams{Msg: "Access denied", Err: fmt.Errorf("not the assigned doctor")})
		return
	}

	// slot_active tracks the status: a cancelled appointment releases its
	// slot, any other status holds it. Reactivating a cancelled appointment
	// can therefore collide with a booking made in the meantime.
	updates := map[string]interface{}{"status": req.Status}
	if req.Status == model.StatusCancelled {
		updates["slot_active"] = nil
	} else {
		updates["slot_active"] = true
	}
	if err := db.Model(&appt).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallUserError(c, util.APIErrorParams{Msg: "This appointment slot is already booked", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update appointment status", Err: err})
		return
	}

	view, err := reloadView(db, appt.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load appointment", Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment status updated successfully",
		"appointment": view,
	})
}
