package model

import (
	"time"

	"gorm.io/gorm"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the enumerated appointment statuses.
func ValidStatus(s string) bool {
	return s == StatusScheduled || s == StatusCompleted || s == StatusCancelled
}

// Appointment represents one scheduled visit between a patient and a doctor.
//
// SlotActive backs the booking invariant "at most one non-cancelled
// appointment per (doctor, date, time)": it is true while the appointment is
// scheduled or completed and set to NULL on cancellation. MySQL and SQLite
// unique indexes ignore rows with a NULL member, so the idx_doctor_slot
// index only ever holds one live row per slot while cancelled rows never
// contend. The pre-insert conflict query exists for a friendly error
// message; the index is what closes the concurrent-booking race.
type Appointment struct {
	gorm.Model
	PatientID       uint      `json:"patient_id" gorm:"not null;index:idx_patient_date"`
	DoctorID        uint      `json:"doctor_id" gorm:"not null;uniqueIndex:idx_doctor_slot"`
	Patient         User      `json:"-" gorm:"foreignKey:PatientID"`
	Doctor          User      `json:"-" gorm:"foreignKey:DoctorID"`
	AppointmentDate time.Time `json:"appointment_date" gorm:"not null;index:idx_patient_date;uniqueIndex:idx_doctor_slot"`
	AppointmentTime string    `json:"appointment_time" gorm:"size:5;not null;uniqueIndex:idx_doctor_slot"` // fixed-width HH:MM
	Reason          string    `json:"reason" gorm:"not null"`
	Notes           string    `json:"notes"`
	Status          string    `json:"status" gorm:"size:16;not null;default:scheduled"`
	SlotActive      *bool     `json:"-" gorm:"uniqueIndex:idx_doctor_slot"`
}

// AppointmentView is the client-facing projection of an Appointment with
// both user references expanded (passwords excluded).
type AppointmentView struct {
	ID              uint       `json:"id"`
	Patient         PublicUser `json:"patient"`
	Doctor          PublicUser `json:"doctor"`
	AppointmentDate time.Time  `json:"appointmentDate"`
	AppointmentTime string     `json:"appointmentTime"`
	Reason          string     `json:"reason"`
	Notes           string     `json:"notes,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// View returns the expanded projection. Patient and Doctor must be loaded.
func (a *Appointment) View() AppointmentView {
	return AppointmentView{
		ID:              a.ID,
		Patient:         a.Patient.Public(),
		Doctor:          a.Doctor.Public(),
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Reason:          a.Reason,
		Notes:           a.Notes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// AppointmentViews maps a slice of appointments to their expanded projections.
func AppointmentViews(appointments []Appointment) []AppointmentView {
	out := make([]AppointmentView, 0, len(appointments))
	for i := range appointments {
		out = append(out, appointments[i].View())
	}
	return out
}

// WithUsers preloads both user references and their role profiles.
func WithUsers(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Patient.DoctorProfile").Preload("Patient.PatientProfile").
		Preload("Doctor.DoctorProfile").Preload("Doctor.PatientProfile")
}

// SlotTaken reports whether a non-cancelled appointment already occupies the
// (doctor, date, time) slot.
func SlotTaken(db *gorm.DB, doctorID uint, date time.Time, timeSlot string) (bool, error) {
	var count int64
	err := db.Model(&Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status <> ?",
			doctorID, date, timeSlot, StatusCancelled).
		Count(&count).Error
	return count > 0, err
}
