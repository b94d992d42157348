package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/medisched/hospital-appointment-api/model"
	"github.com/medisched/hospital-appointment-api/util"
)

const doctorsCacheKey = "doctors"

// The doctor directory changes only on registration, so a short TTL cache
// absorbs the repeated lookups from booking forms.
var doctorsCache = cache.New(30*time.Second, time.Minute)

// InvalidateDoctorsCache drops the cached doctor directory. Called when a
// new doctor registers.
func InvalidateDoctorsCache() {
	doctorsCache.Delete(doctorsCacheKey)
}

func respondUserList(c *gin.Context, users []model.PublicUser) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(users),
		"data":    users,
	})
}

// ListDoctors godoc
// @Summary      List all doctors
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{} "success, count, data"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Router       /users/doctors [get]
func ListDoctors(c *gin.Context) {
	if v, ok := doctorsCache.Get(doctorsCacheKey); ok {
		if doctors, ok := v.([]model.PublicUser); ok {
			respondUserList(c, doctors)
			return
		}
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctors []model.User
	if err := db.Preload("DoctorProfile").
		Where("role = ?", model.RoleDoctor).
		Order("name ASC").
		Find(&doctors).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctors", Err: err})
		return
	}

	pub := model.PublicUsers(doctors)
	doctorsCache.Set(doctorsCacheKey, pub, cache.DefaultExpiration)
	respondUserList(c, pub)
}

// ListPatients godoc
// @Summary      List all patients
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{} "success, count, data"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Router       /users/patients [get]
func ListPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patients []model.User
	if err := db.Preload("PatientProfile").
		Where("role = ?", model.RolePatient).
		Order("name ASC").
		Find(&patients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}

	respondUserList(c, model.PublicUsers(patients))
}

// ListUsers godoc
// @Summary      List all users, doctors and patients alike
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{} "success, count, data"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Router       /users/all [get]
func ListUsers(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var users []model.User
	if err := db.Preload("DoctorProfile").Preload("PatientProfile").
		Order("role ASC").Order("name ASC").
		Find(&users).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve users", Err: err})
		return
	}

	respondUserList(c, model.PublicUsers(users))
}

// GetUser godoc
// @Summary      Get one user by ID
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} map[string]interface{} "success, data"
// @Failure      404 {object} map[string]interface{} "User not found"
// @Router       /users/{id} [get]
func GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: fmt.Errorf("invalid user id")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	user, err := model.FindUserByID(db, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve user", Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user.Public(),
	})
}
