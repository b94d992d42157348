package endpoint

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisched/hospital-appointment-api/middleware"
	"github.com/medisched/hospital-appointment-api/model"
	"github.com/medisched/hospital-appointment-api/util"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"John Smith"`
	Email    string `json:"email" binding:"required,email" example:"john@hospital.com"`
	Password string `json:"password" binding:"required,min=6" example:"password123"`
	Role     string `json:"role" binding:"required" example:"patient"`
	Phone    string `json:"phone" example:"555-0101"`
	Gender   string `json:"gender" example:"male"`

	// doctor-only
	Specialization string `json:"specialization" example:"Cardiology"`
	Experience     *int   `json:"experience" example:"5"`
	// patient-only
	Age *int `json:"age" example:"30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"john@hospital.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

// validateRolePayload checks the role-conditional attributes of a
// registration: doctors need a specialization and non-negative experience,
// patients an age between 1 and 120.
func validateRolePayload(req RegisterRequest) error {
	switch req.Role {
	case model.RoleDoctor:
		if req.Specialization == "" {
			return fmt.Errorf("specialization is required for doctors")
		}
		if req.Experience == nil || *req.Experience < 0 {
			return fmt.Errorf("experience must be a non-negative number of years")
		}
	case model.RolePatient:
		if req.Age == nil || *req.Age < 1 || *req.Age > 120 {
			return fmt.Errorf("age must be between 1 and 120")
		}
	default:
		return fmt.Errorf("role must be either patient or doctor")
	}
	return nil
}

func ensureEmailAvailable(c *gin.Context, db *gorm.DB, email string) bool {
	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		if err == nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "User with this email already exists", Err: fmt.Errorf("email already registered")})
			return false
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return false
	}
	return true
}

func hashPasswordForSignup(c *gin.Context, plain string) (string, string, bool) {
	salt, err := util.GenerateSalt()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to generate password salt", Err: err})
		return "", "", false
	}
	hashed, err := util.HashPassword(plain, salt)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return "", "", false
	}
	return hashed, salt, true
}

// Register godoc
// @Summary      Register a new patient or doctor account
// @Description  Create a user with role-specific profile and return a bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} map[string]interface{} "token and user"
// @Failure      400 {object} map[string]interface{} "Validation failure or duplicate email"
// @Failure      500 {object} map[string]interface{} "Server error"
// @Router       /auth/register [post]
func Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	if err := validateRolePayload(req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: fmt.Errorf("invalid payload")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if !ensureEmailAvailable(c, db, req.Email) {
		return
	}

	hashed, salt, ok := hashPasswordForSignup(c, req.Password)
	if !ok {
		return
	}

	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     hashed,
		PasswordSalt: salt,
		Role:         req.Role,
		Phone:        req.Phone,
		Gender:       req.Gender,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		switch req.Role {
		case model.RoleDoctor:
			return tx.Create(&model.DoctorProfile{
				UserID:         user.ID,
				Specialization: req.Specialization,
				Experience:     *req.Experience,
			}).Error
		case model.RolePatient:
			return tx.Create(&model.PatientProfile{
				UserID: user.ID,
				Age:    *req.Age,
			}).Error
		}
		return nil
	})
	if err != nil {
		// The unique index on email catches registrations racing past the
		// availability check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallUserError(c, util.APIErrorParams{Msg: "User with this email already exists", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create user", Err: err})
		return
	}

	if req.Role == model.RoleDoctor {
		InvalidateDoctorsCache()
	}

	token, err := util.MakeToken(user.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}

	util.LogSignupSuccess(user.ID, user.Email, user.Role, c.ClientIP(), c.Request.UserAgent())
	util.UserEmailCacheSet(user.ID, user.Email)

	// Reload with profile so the response carries the role payload.
	created, err := model.FindUserByID(db, user.ID)
	if err != nil {
		created = user
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  created.Public(),
	})
}

// Login godoc
// @Summary      Authenticate with email and password
// @Description  Verify credentials and return a bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} map[string]interface{} "token and user"
// @Failure      401 {object} map[string]interface{} "Invalid credentials"
// @Failure      500 {object} map[string]interface{} "Server error"
// @Router       /auth/login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ip := c.ClientIP()
	agent := c.Request.UserAgent()

	user, err := model.FindUserByEmail(db, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.LogLoginFailure(req.Email, ip, agent, "user not found")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid credentials", Err: fmt.Errorf("user not found")})
		return
	}
	if err != nil {
		util.LogLoginFailure(req.Email, ip, agent, "database error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	match, err := util.VerifyPassword(req.Password, user.Password, user.PasswordSalt)
	if err != nil {
		util.LogLoginFailure(req.Email, ip, agent, "password verification error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return
	}
	if !match {
		// Same response as an unknown email so callers cannot probe accounts.
		util.LogLoginFailure(req.Email, ip, agent, "invalid password")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid credentials", Err: fmt.Errorf("invalid password")})
		return
	}

	token, err := util.MakeToken(user.ID)
	if err != nil {
		util.LogLoginFailure(req.Email, ip, agent, "token generation failed")
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}

	util.LogLoginSuccess(user.ID, user.Email, ip, agent)
	util.UserEmailCacheSet(user.ID, user.Email)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.Public(),
	})
}

// Profile godoc
// @Summary      Current user profile
// @Description  Return the account resolved from the bearer token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} model.PublicUser
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Router       /auth/profile [get]
func Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Token is not valid", Err: fmt.Errorf("no user in context")})
		return
	}
	c.JSON(http.StatusOK, user.Public())
}
