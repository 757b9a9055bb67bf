package api

import (
	"net/http"
	"time"

	"privportal/privacy-api/model"
	"privportal/privacy-api/security"
	"privportal/privacy-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type requestOTPBody struct {
	Identifier string `json:"identifier"`
	// Older clients send the identifier as email
	Email string `json:"email"`
}

// AuthRequestOTP issues a fresh verification code for an email address or
// phone number, creating the user row on first contact. Any previously
// pending code for the identifier is overwritten.
func (a *API) AuthRequestOTP(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	if a.Cfg.JWTSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Server configuration error",
			"requestID": requestID,
		})

		zap.L().Error("JWT secret is not configured", zap.String("requestID", requestID))
		return
	}

	var data requestOTPBody
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

	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Email or phone number is required",
			"requestID": requestID,
		})
		return
	}

	contact, err := validators.NormalizeIdentifier(identifier, a.Cfg.OTP.DefaultRegion)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid email or phone number",
			"requestID": requestID,
		})

		zap.L().Debug("Invalid identifier", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	code, err := security.GenerateCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate verification code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	expiresAt := time.Now().Add(a.Cfg.OTP.Expiry)

	var user model.User

	err = a.DB.Where("contact = ?", contact).First(&user).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err == gorm.ErrRecordNotFound {
		user = model.User{Contact: contact}

		if err := a.DB.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	err = a.DB.Model(&user).Updates(map[string]any{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store verification code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if a.Cfg.OTP.MockMode {
		c.JSON(http.StatusOK, gin.H{
			"message":   "Verification code generated",
			"code":      code,
			"requestID": requestID,
		})
		return
	}

	if err := a.Sender.SendCode(contact, code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to send verification code",
			"requestID": requestID,
		})

		zap.L().Error("Failed to deliver verification code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification code sent",
		"requestID": requestID,
	})
}
