package util

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type cacheTestUser struct {
	ID    uint   `gorm:"primarykey"`
	Email string `gorm:"size:191"`
}

func (cacheTestUser) TableName() string { return "users" }

func openCacheTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:usercache_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&cacheTestUser{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestUserEmailCacheSetAndGet(t *testing.T) {
	InitUserEmailCache(10)

	_, ok := UserEmailCacheGet(1)
	assert.False(t, ok)

	UserEmailCacheSet(1, "a@test.com")
	email, ok := UserEmailCacheGet(1)
	assert.True(t, ok)
	assert.Equal(t, "a@test.com", email)

	// overwrite
	UserEmailCacheSet(1, "b@test.com")
	email, ok = UserEmailCacheGet(1)
	assert.True(t, ok)
	assert.Equal(t, "b@test.com", email)
}

func TestUserEmailCacheEvictsLeastRecentlyUsed(t *testing.T) {
	InitUserEmailCache(2)

	UserEmailCacheSet(1, "one@test.com")
	UserEmailCacheSet(2, "two@test.com")

	// Touch 1 so 2 becomes the eviction candidate.
	_, ok := UserEmailCacheGet(1)
	assert.True(t, ok)

	UserEmailCacheSet(3, "three@test.com")

	_, ok = UserEmailCacheGet(2)
	assert.False(t, ok)
	_, ok = UserEmailCacheGet(1)
	assert.True(t, ok)
	_, ok = UserEmailCacheGet(3)
	assert.True(t, ok)
}

func TestGetUserEmailFallsBackToDB(t *testing.T) {
	InitUserEmailCache(10)
	db := openCacheTestDB(t)

	assert.NoError(t, db.Create(&cacheTestUser{ID: 5, Email: "db@test.com"}).Error)

	assert.Equal(t, "db@test.com", GetUserEmail(db, 5))

	// Second lookup should be served from the cache even without a DB handle.
	assert.Equal(t, "db@test.com", GetUserEmail(nil, 5))
}

func TestGetUserEmailUnknownUser(t *testing.T) {
	InitUserEmailCache(10)
	db := openCacheTestDB(t)

	assert.Equal(t, "", GetUserEmail(db, 999))
	assert.Equal(t, "", GetUserEmail(db, 0))
	assert.Equal(t, "", GetUserEmail(nil, 7))
}
