package endpoint

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medisched/hospital-appointment-api/model"
)

func TestRegisterPatient(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performRequest(t, router, http.MethodPost, "/api/auth/register", patientPayload("pat@test.com"), "")
	assert.Equal(t, http.StatusCreated, w.Code)

	body := parseBody(t, w)
	assert.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, "pat@test.com", user["email"])
		assert.Equal(t, model.RolePatient, user["role"])
		assert.EqualValues(t, 30, user["age"])
		_, hasPassword := user["password"]
		assert.False(t, hasPassword)
		_, hasSpecialization := user["specialization"]
		assert.False(t, hasSpecialization)
	}
}

func TestRegisterDoctor(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performRequest(t, router, http.MethodPost, "/api/auth/register", doctorPayload("doc@test.com"), "")
	assert.Equal(t, http.StatusCreated, w.Code)

	user, ok := parseBody(t, w)["user"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, model.RoleDoctor, user["role"])
		assert.Equal(t, "Cardiology", user["specialization"])
		assert.EqualValues(t, 10, user["experience"])
		_, hasAge := user["age"]
		assert.False(t, hasAge)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, patientPayload("dup@test.com"))

	// Same email with a different role is still a duplicate.
	w := performRequest(t, router, http.MethodPost, "/api/auth/register", doctorPayload("dup@test.com"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User with this email already exists", parseBody(t, w)["message"])
}

func TestRegisterUnknownRole(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := patientPayload("admin@test.com")
	payload["role"] = "admin"
	w := performRequest(t, router, http.MethodPost, "/api/auth/register", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "role must be either patient or doctor", parseBody(t, w)["message"])
}

func TestRegisterDoctorMissingSpecialization(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := doctorPayload("nospec@test.com")
	delete(payload, "specialization")
	w := performRequest(t, router, http.MethodPost, "/api/auth/register", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "specialization is required for doctors", parseBody(t, w)["message"])
}

func TestRegisterDoctorNegativeExperience(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := doctorPayload("neg@test.com")
	payload["experience"] = -1
	w := performRequest(t, router, http.MethodPost, "/api/auth/register", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "experience must be a non-negative number of years", parseBody(t, w)["message"])
}

func TestRegisterPatientAgeOutOfRange(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, age := range []int{0, 121, -5} {
		payload := patientPayload("age@test.com")
		payload["age"] = age
		w := performRequest(t, router, http.MethodPost, "/api/auth/register", payload, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "age must be between 1 and 120", parseBody(t, w)["message"])
	}
}

func TestRegisterShortPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := patientPayload("short@test.com")
	payload["password"] = "12345"
	w := performRequest(t, router, http.MethodPost, "/api/auth/register", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request payload", parseBody(t, w)["message"])
}

func TestLoginAndProfileRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, patientPayload("roundtrip@test.com"))

	w := performRequest(t, router, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    "roundtrip@test.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := parseBody(t, w)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)

	// The token from login must resolve back to the same account.
	w = performRequest(t, router, http.MethodGet, "/api/auth/profile", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	profile := parseBody(t, w)
	assert.Equal(t, "roundtrip@test.com", profile["email"])
	assert.Equal(t, model.RolePatient, profile["role"])
	assert.EqualValues(t, 30, profile["age"])
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, patientPayload("wrongpw@test.com"))

	w := performRequest(t, router, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    "wrongpw@test.com",
		"password": "password124",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", parseBody(t, w)["message"])
}

func TestLoginUnknownEmail(t *testing.T) {
	router, _ := newTestRouter(t)

	// Indistinguishable from a wrong password.
	w := performRequest(t, router, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    "ghost@test.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", parseBody(t, w)["message"])
}

func TestProfileRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performRequest(t, router, http.MethodGet, "/api/auth/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided, authorization denied", parseBody(t, w)["message"])
}

func TestUnknownRouteReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performRequest(t, router, http.MethodGet, "/api/nonexistent", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route /api/nonexistent not found", parseBody(t, w)["message"])
}
