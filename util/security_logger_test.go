package util

import (
	"bytes"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/medisched/hospital-appointment-api/model"
)

func captureSecurityLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetSecurityLoggerForTest(log.New(&buf, "[SECURITY] ", log.Lmsgprefix))
	t.Cleanup(func() { SetSecurityLoggerForTest(log.Default()) })
	return &buf
}

func openSecurityTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seclog_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&model.SecurityLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestLogSecurityEventWritesToLogger(t *testing.T) {
	buf := captureSecurityLog(t)
	SetSecurityLoggerDB(nil)

	LogLoginFailure("eve@test.com", "10.0.0.1", "curl/8.0", "Invalid credentials")

	out := buf.String()
	assert.Contains(t, out, "[SECURITY]")
	assert.Contains(t, out, "Event=LOGIN_FAILURE")
	assert.Contains(t, out, "Email=eve@test.com")
	assert.Contains(t, out, "Login failed: Invalid credentials")
}

func TestLogSecurityEventSanitizesControlCharacters(t *testing.T) {
	buf := captureSecurityLog(t)
	SetSecurityLoggerDB(nil)

	LogSecurityEvent(SecurityEvent{
		EventType: EventSuspiciousActivity,
		Email:     "a@test.com\nEvent=LOGIN_SUCCESS",
		IP:        "10.0.0.1",
		Message:   "line1\r\nline2",
	})

	out := buf.String()
	assert.NotContains(t, out, "\n Event=LOGIN_SUCCESS")
	assert.Contains(t, out, "a@test.com Event=LOGIN_SUCCESS")
	assert.Contains(t, out, "line1  line2")
}

func TestLogSecurityEventTruncatesLongValues(t *testing.T) {
	buf := captureSecurityLog(t)
	SetSecurityLoggerDB(nil)

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	LogSecurityEvent(SecurityEvent{
		EventType: EventEndpointCall,
		UserAgent: string(long),
	})

	assert.Contains(t, buf.String(), "xxx...")
	assert.Less(t, len(buf.String()), 500)
}

func TestLogSecurityEventPersistsToDB(t *testing.T) {
	captureSecurityLog(t)
	db := openSecurityTestDB(t)
	SetSecurityLoggerDB(db)
	t.Cleanup(func() { SetSecurityLoggerDB(nil) })

	LogSignupSuccess(12, "new@test.com", model.RolePatient, "10.0.0.2", "test-agent")

	var entries []model.SecurityLog
	assert.NoError(t, db.Find(&entries).Error)
	if assert.Len(t, entries, 1) {
		assert.Equal(t, string(EventSignupSuccess), entries[0].EventType)
		assert.Equal(t, "12", entries[0].UserID)
		assert.Equal(t, "new@test.com", entries[0].Email)
		assert.Contains(t, entries[0].Message, model.RolePatient)
	}
}

func TestLogSecurityEventPersistsDetailsAsJSON(t *testing.T) {
	captureSecurityLog(t)
	db := openSecurityTestDB(t)
	SetSecurityLoggerDB(db)
	t.Cleanup(func() { SetSecurityLoggerDB(nil) })

	LogSecurityEvent(SecurityEvent{
		EventType: EventEndpointCall,
		IP:        "10.0.0.3",
		Details:   map[string]interface{}{"method": "GET", "status": 200},
	})

	var entry model.SecurityLog
	assert.NoError(t, db.First(&entry).Error)
	assert.Contains(t, string(entry.Details), `"method":"GET"`)
}
