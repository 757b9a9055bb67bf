package api

import (
	"net/http"
	"time"

	"privportal/privacy-api/model"
	"privportal/privacy-api/security"
	"privportal/privacy-api/validators"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenValidity = time.Hour * 24

type verifyOTPBody struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Code       string `json:"code"`
}

// AuthVerifyOTP checks a submitted verification code and mints a session
// token on success. Codes are single use: a successful verification clears
// the stored code so a replay within the expiry window fails.
//
// Every failure path answers with the same generic message so the response
// never reveals whether the identifier exists.
func (a *API) AuthVerifyOTP(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	if a.Cfg.JWTSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Server configuration error",
			"requestID": requestID,
		})

		zap.L().Error("JWT secret is not configured", zap.String("requestID", requestID))
		return
	}

	var data verifyOTPBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	identifier := data.Identifier
	if identifier == "" {
		identifier = data.Email
	}

	if identifier == "" || data.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Email or phone number and verification code are required",
			"requestID": requestID,
		})
		return
	}

	// Reject malformed codes before touching the database
	if !security.ValidCodeFormat(data.Code) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid verification code format",
			"requestID": requestID,
		})
		return
	}

	contact, err := validators.NormalizeIdentifier(identifier, a.Cfg.OTP.DefaultRegion)
	if err != nil {
		// Same generic answer as a wrong code so invalid identifiers
		// aren't distinguishable
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid or expired verification code",
			"requestID": requestID,
		})
		return
	}

	var user model.User

	err = a.DB.Where("contact = ?", contact).First(&user).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid or expired verification code",
			"requestID": requestID,
		})
		return
	}

	valid := user.OTPCode != nil &&
		user.OTPExpiresAt != nil &&
		time.Now().Before(*user.OTPExpiresAt) &&
		security.CodesMatch(data.Code, *user.OTPCode)

	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid or expired verification code",
			"requestID": requestID,
		})
		return
	}

	// Single use: clear the code before handing out the token
	err = a.DB.Model(&user).Updates(map[string]any{
		"otp_code":       nil,
		"otp_expires_at": nil,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to clear verification code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	authToken, err := a.makeToken(&jwt.MapClaims{
		"contact": user.Contact,
		"user_id": user.ID,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(tokenValidity).Unix(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authToken": authToken,
		"expiresIn": int(tokenValidity.Seconds()),
		"message":   "Authentication successful",
		"user": gin.H{
			"contact": user.Contact,
			"userId":  user.ID,
		},
	})
}

func (a *API) makeToken(c *jwt.MapClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(a.Cfg.JWTSecret))
}
