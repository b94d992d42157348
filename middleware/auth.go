package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medisched/hospital-appointment-api/model"
	"github.com/medisched/hospital-appointment-api/util"
)

const userKey = "currentUser"

// Auth resolves the Authorization: Bearer token to a user record and
// attaches it to the request context. A missing token and a bad token are
// reported with distinct messages, but signature, expiry and unknown-subject
// failures are deliberately indistinguishable from each other.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "No token provided, authorization denied",
				Err: fmt.Errorf("missing bearer token"),
			})
			c.Abort()
			return
		}

		claims, err := util.ParseToken(raw)
		if err != nil {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Token is not valid",
				Err: err,
			})
			c.Abort()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		user, err := model.FindUserByID(db, claims.UserID)
		if err != nil {
			// Subject no longer exists: same response as a bad signature.
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Token is not valid",
				Err: err,
			})
			c.Abort()
			return
		}

		c.Set(userKey, &user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by Auth for this request.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*model.User); ok {
			return user, true
		}
	}
	return nil, false
}

// IsDoctor rejects requests whose resolved user is not a doctor.
func IsDoctor() gin.HandlerFunc {
	return requireRole(model.RoleDoctor, "Access denied. Doctor role required.")
}

// IsPatient rejects requests whose resolved user is not a patient.
func IsPatient() gin.HandlerFunc {
	return requireRole(model.RolePatient, "Access denied. Patient role required.")
}

func requireRole(role, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != role {
			if ok {
				util.LogUnauthorizedAccess(fmt.Sprintf("%d", user.ID), user.Email, c.ClientIP(), c.Request.URL.Path, "role mismatch")
			}
			util.CallPermissionDenied(c, util.APIErrorParams{
				Msg: message,
				Err: fmt.Errorf("role %s required", role),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
