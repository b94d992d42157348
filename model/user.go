package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Role is fixed at registration; no endpoint changes it.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// User represents a registered account, either a patient or a doctor.
// Role-specific attributes live in DoctorProfile / PatientProfile so the
// base record carries no nullable columns for the other role.
type User struct {
	gorm.Model
	Name         string `json:"name" gorm:"column:name;not null"`
	Email        string `json:"email" gorm:"column:email;size:191;uniqueIndex;not null"`
	Password     string `json:"-" gorm:"column:password;not null"`
	PasswordSalt string `json:"-" gorm:"column:password_salt;not null"`
	Role         string `json:"role" gorm:"column:role;size:16;index;not null"`
	Phone        string `json:"phone" gorm:"column:phone"`
	Gender       string `json:"gender" gorm:"column:gender;size:16"`

	DoctorProfile  *DoctorProfile  `json:"-" gorm:"foreignKey:UserID"`
	PatientProfile *PatientProfile `json:"-" gorm:"foreignKey:UserID"`
}

// DoctorProfile carries the doctor-only attributes of a User.
type DoctorProfile struct {
	gorm.Model
	UserID         uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	Specialization string `json:"specialization" gorm:"column:specialization;not null"`
	Experience     int    `json:"experience" gorm:"column:experience;not null"` // years
}

// PatientProfile carries the patient-only attributes of a User.
type PatientProfile struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`
	Age    int  `json:"age" gorm:"column:age;not null"`
}

// PublicUser is the client-facing projection of a User. Credentials are
// omitted and the role profile is flattened back onto the record so the
// wire format stays a single object per user.
type PublicUser struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Phone          string    `json:"phone,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Experience     *int      `json:"experience,omitempty"`
	Age            *int      `json:"age,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Public returns the password-free projection of the user with its role
// profile flattened in.
func (u *User) Public() PublicUser {
	pub := PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		Gender:    u.Gender,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Role == RoleDoctor && u.DoctorProfile != nil {
		pub.Specialization = u.DoctorProfile.Specialization
		exp := u.DoctorProfile.Experience
		pub.Experience = &exp
	}
	if u.Role == RolePatient && u.PatientProfile != nil {
		age := u.PatientProfile.Age
		pub.Age = &age
	}
	return pub
}

// PublicUsers maps a slice of users to their public projections.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}

// FindUserByID loads a user with its role profile.
func FindUserByID(db *gorm.DB, id uint) (User, error) {
	var user User
	err := db.Preload("DoctorProfile").Preload("PatientProfile").First(&user, id).Error
	return user, err
}

// FindUserByEmail loads a user by login email with its role profile.
func FindUserByEmail(db *gorm.DB, email string) (User, error) {
	var user User
	err := db.Preload("DoctorProfile").Preload("PatientProfile").Where("email = ?", email).First(&user).Error
	return user, err
}
