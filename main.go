// main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisched/hospital-appointment-api/config"
	"github.com/medisched/hospital-appointment-api/endpoint"
	"github.com/medisched/hospital-appointment-api/middleware"
	"github.com/medisched/hospital-appointment-api/model"
	"github.com/medisched/hospital-appointment-api/util"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	secret := os.Getenv("JWTSECRET")
	if secret == "" {
		log.Fatal("JWTSECRET is required")
	}
	util.SetJWTSecret(secret)

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.DoctorProfile{},
		&model.PatientProfile{},
		&model.Appointment{},
		&model.SecurityLog{},
	); err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}

	util.SetSecurityLoggerDB(db)
	util.InitUserEmailCacheFromEnv()
	if err := util.InitGeoIP(""); err != nil {
		log.Printf("GeoIP disabled: %v", err)
	}
	defer util.CloseGeoIP()

	// Redis backs the credential-endpoint rate limiter; the API still runs
	// without it on the in-memory fallback.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, using in-memory rate limiting: %v", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(db); err != nil {
			log.Printf("Demo data seeding failed: %v", err)
		}
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Internal server error",
			Err: fmt.Errorf("%v", recovered),
		})
	}))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	registerRoutes(router)

	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

func registerRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.GET("/health", endpoint.Health)

	auth := api.Group("/auth")
	auth.POST("/register", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.Register)
	auth.POST("/login", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.Login)
	auth.GET("/profile", middleware.Auth(), endpoint.Profile)

	users := api.Group("/users", middleware.Auth())
	users.GET("/doctors", endpoint.ListDoctors)
	users.GET("/patients", endpoint.ListPatients)
	users.GET("/all", endpoint.ListUsers)
	users.GET("/:id", endpoint.GetUser)

	appointments := api.Group("/appointments", middleware.Auth())
	appointments.POST("/book", middleware.IsPatient(), endpoint.BookAppointment)
	appointments.GET("", endpoint.ListAppointments)
	appointments.GET("/:id", endpoint.GetAppointment)
	appointments.PUT("/:id/cancel", endpoint.CancelAppointment)
	appointments.PUT("/:id/status", middleware.IsDoctor(), endpoint.UpdateAppointmentStatus)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": fmt.Sprintf("Route %s not found", c.Request.URL.Path),
		})
	})
}

type demoUser struct {
	name           string
	email          string
	role           string
	phone          string
	gender         string
	specialization string
	experience     int
	age            int
}

// seedDemoData loads a small demo directory of doctors and patients when the
// users table is empty. Password for every demo account is "password123".
func seedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []demoUser{
		{name: "Dr. Sarah Johnson", email: "sarah.johnson@hospital.com", role: model.RoleDoctor, phone: "555-0101", gender: "female", specialization: "Cardiology", experience: 12},
		{name: "Dr. Michael Chen", email: "michael.chen@hospital.com", role: model.RoleDoctor, phone: "555-0102", gender: "male", specialization: "Neurology", experience: 8},
		{name: "Dr. Emily Rodriguez", email: "emily.rodriguez@hospital.com", role: model.RoleDoctor, phone: "555-0103", gender: "female", specialization: "Pediatrics", experience: 15},
		{name: "Dr. David Wilson", email: "david.wilson@hospital.com", role: model.RoleDoctor, phone: "555-0104", gender: "male", specialization: "Orthopedics", experience: 10},
		{name: "John Smith", email: "john.smith@email.com", role: model.RolePatient, phone: "555-0201", gender: "male", age: 35},
		{name: "Mary Johnson", email: "mary.johnson@email.com", role: model.RolePatient, phone: "555-0202", gender: "female", age: 28},
		{name: "Robert Brown", email: "robert.brown@email.com", role: model.RolePatient, phone: "555-0203", gender: "male", age: 42},
		{name: "Lisa Davis", email: "lisa.davis@email.com", role: model.RolePatient, phone: "555-0204", gender: "female", age: 31},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var doctorIDs, patientIDs []uint
		for _, d := range demo {
			salt, err := util.GenerateSalt()
			if err != nil {
				return err
			}
			hashed, err := util.HashPassword("password123", salt)
			if err != nil {
				return err
			}
			user := model.User{
				Name:         d.name,
				Email:        d.email,
				Password:     hashed,
				PasswordSalt: salt,
				Role:         d.role,
				Phone:        d.phone,
				Gender:       d.gender,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			switch d.role {
			case model.RoleDoctor:
				if err := tx.Create(&model.DoctorProfile{UserID: user.ID, Specialization: d.specialization, Experience: d.experience}).Error; err != nil {
					return err
				}
				doctorIDs = append(doctorIDs, user.ID)
			case model.RolePatient:
				if err := tx.Create(&model.PatientProfile{UserID: user.ID, Age: d.age}).Error; err != nil {
					return err
				}
				patientIDs = append(patientIDs, user.ID)
			}
		}

		// A couple of upcoming appointments so the schedule views are not
		// empty on first run.
		active := true
		nextWeek := time.Now().UTC().AddDate(0, 0, 7)
		date := time.Date(nextWeek.Year(), nextWeek.Month(), nextWeek.Day(), 0, 0, 0, 0, time.UTC)
		samples := []model.Appointment{
			{PatientID: patientIDs[0], DoctorID: doctorIDs[0], AppointmentDate: date, AppointmentTime: "10:00", Reason: "Regular checkup", Status: model.StatusScheduled, SlotActive: &active},
			{PatientID: patientIDs[1], DoctorID: doctorIDs[1], AppointmentDate: date, AppointmentTime: "14:30", Reason: "Headache consultation", Status: model.StatusScheduled, SlotActive: &active},
		}
		for i := range samples {
			if err := tx.Create(&samples[i]).Error; err != nil {
				return err
			}
		}

		log.Printf("Seeded %d demo users and %d appointments", len(demo), len(samples))
		return nil
	})
}
