package controllers

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shiply_server/internal/apperrors"
	"shiply_server/internal/config"
	"shiply_server/internal/mailer"
	"shiply_server/internal/middleware"
	"shiply_server/internal/models"
)

const (
	otpTTL           = 10 * time.Minute
	otpProofWindow   = time.Hour // a verified code vouches for the email this long
	resetTokenTTL    = time.Hour
	minPasswordChars = 6
)

var mail *mailer.Mailer

// SetMailer wires the outgoing mail transport; called once at startup.
func SetMailer(m *mailer.Mailer) {
	mail = m
}

type sendOTPInput struct {
	Email string `json:"email" binding:"required,email"`
}

// SendOTP issues a six digit confirmation code for the email and mails it.
func SendOTP(c *gin.Context) {
	var input sendOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("email", "valid email is required"))
		return
	}

	// Expired codes for this address are dead weight, sweep them now.
	config.DB.Where("email = ? AND expires_at < ?", input.Email, time.Now()).
		Delete(&models.OneTimeCode{})

	code := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	otp := models.OneTimeCode{
		Email:     input.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := config.DB.Create(&otp).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	if err := mail.SendOTP(input.Email, code); err != nil {
		logrus.WithError(err).Error("failed to send OTP email")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send confirmation code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Confirmation code sent",
		"expiresIn": int(otpTTL.Seconds()),
	})
}

type verifyOTPInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyOTP marks a matching unexpired code as verified.
func VerifyOTP(c *gin.Context) {
	var input verifyOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("code", "email and code are required"))
		return
	}

	var otp models.OneTimeCode
	err := config.DB.
		Where("email = ? AND code = ? AND verified = ?", input.Email, input.Code, false).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid confirmation code"})
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if otp.IsExpired() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Confirmation code has expired"})
		return
	}

	now := time.Now()
	otp.Verified = true
	otp.VerifiedAt = &now
	if err := config.DB.Save(&otp).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

type registerInput struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required"`
	Role     string          `json:"role"`
	Profile  *models.Profile `json:"profile"`
}

// Register creates an unpaid account once the email was confirmed via OTP.
func Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("email", "valid email and password are required"))
		return
	}

	verr := apperrors.NewValidation()
	if len(input.Password) < minPasswordChars {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordChars))
	}
	if input.Role == "" {
		input.Role = models.RoleShipper
	}
	if input.Role != models.RoleShipper && input.Role != models.RoleDriver {
		verr.Add("role", "role must be shipper or driver")
	}
	if verr.HasErrors() {
		apperrors.Respond(c, verr)
		return
	}

	// The email must have been confirmed within the trailing hour.
	var otp models.OneTimeCode
	err := config.DB.
		Where("email = ? AND verified = ?", input.Email, true).
		Order("verified_at DESC").
		First(&otp).Error
	if err != nil || !otp.ProvesEmail(otpProofWindow) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is not confirmed, request a new code"})
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not hash password"})
		return
	}
	hashed := string(hash)

	user := models.User{
		Email:    input.Email,
		Password: &hashed,
		Role:     input.Role,
	}
	if input.Profile != nil {
		user.Profile = *input.Profile
	}

	if err := config.DB.Create(&user).Error; err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User with this email already exists"})
			return
		}
		apperrors.Respond(c, err)
		return
	}

	// The codes served their purpose.
	config.DB.Where("email = ?", input.Email).Delete(&models.OneTimeCode{})

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Payment is required to activate the account.",
		"token":   token,
		"user":    prepareUserResponse(user),
	})
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials without revealing which part failed.
func Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("email", "email and password are required"))
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.ErrAuth)
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	if !user.CheckPassword(input.Password) {
		apperrors.Respond(c, apperrors.ErrAuth)
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", now)

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
	})
}

// Me returns the authenticated user, password excluded.
func Me(c *gin.Context) {
	userID := middleware.UserID(c)

	var user models.User
	if err := config.DB.Preload("Driver").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.ErrNotFound)
		} else {
			apperrors.Respond(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": prepareUserResponse(user)})
}

type forgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword always answers the same way so account emails can't be
// enumerated. A reset token is only issued when the account exists.
func ForgotPassword(c *gin.Context) {
	var input forgotPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("email", "valid email is required"))
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err == nil {
		token := models.PasswordResetToken{
			UserID:    user.ID,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(resetTokenTTL),
		}
		if err := config.DB.Create(&token).Error; err != nil {
			logrus.WithError(err).Error("failed to create password reset token")
		} else {
			link := fmt.Sprintf("%s/reset-password?token=%s",
				config.GetEnv("FRONTEND_URL", "http://localhost:3000"), token.Token)
			if err := mail.SendPasswordReset(user.Email, link); err != nil {
				logrus.WithError(err).Error("failed to send password reset email")
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

type resetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPassword consumes a single-use token and sets the new password.
func ResetPassword(c *gin.Context) {
	var input resetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.Respond(c, apperrors.NewValidation().Add("token", "token and password are required"))
		return
	}

	if len(input.Password) < minPasswordChars {
		apperrors.Respond(c, apperrors.NewValidation().
			Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordChars)))
		return
	}

	var token models.PasswordResetToken
	if err := config.DB.Where("token = ?", input.Token).First(&token).Error; err != nil {
		apperrors.Respond(c, apperrors.ErrToken)
		return
	}
	if !token.Usable() {
		apperrors.Respond(c, apperrors.ErrToken)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not hash password"})
		return
	}
	hashed := string(hash)

	tx := config.DB.Begin()
	if err := tx.Model(&models.User{}).Where("id = ?", token.UserID).
		Update("password", hashed).Error; err != nil {
		tx.Rollback()
		apperrors.Respond(c, err)
		return
	}
	if err := tx.Model(&token).Update("used", true).Error; err != nil {
		tx.Rollback()
		apperrors.Respond(c, err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// prepareUserResponse constructs the JSON response map for a user. The
// password hash never leaves the server.
func prepareUserResponse(user models.User) gin.H {
	responseUser := gin.H{
		"id":         user.ID,
		"created_at": user.CreatedAt,
		"email":      user.Email,
		"role":       user.Role,
		"is_paid":    user.IsPaid,
		"profile":    user.Profile,
	}
	if user.LastLogin != nil {
		responseUser["last_login"] = user.LastLogin
	}
	if user.Driver != nil {
		responseUser["driver"] = user.Driver
	}
	return responseUser
}
