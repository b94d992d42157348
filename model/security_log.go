package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityLog persists security-relevant events (logins, signups,
// unauthorized access, endpoint calls) for auditing.
type SecurityLog struct {
	gorm.Model
	EventType string         `json:"event_type" gorm:"column:event_type;size:64;index"`
	UserID    string         `json:"user_id" gorm:"column:user_id;size:32"`
	Email     string         `json:"email" gorm:"column:email;size:191"`
	IP        string         `json:"ip" gorm:"column:ip;size:64"`
	Location  string         `json:"location" gorm:"column:location;size:128"`
	UserAgent string         `json:"user_agent" gorm:"column:user_agent;size:255"`
	Message   string         `json:"message" gorm:"column:message;size:512"`
	Details   datatypes.JSON `json:"details" gorm:"column:details"`
}
