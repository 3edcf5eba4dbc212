package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"blogify/internal/middleware"
	"blogify/internal/models"
	"blogify/internal/services"
	"blogify/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type AuthHandler struct {
	db          *gorm.DB
	tokens      *services.TokenService
	logger      *zap.Logger
	oauthConfig *oauth2.Config
}

func NewAuthHandler(conn *gorm.DB, tokens *services.TokenService, oauthConfig *oauth2.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		db:          conn,
		tokens:      tokens,
		logger:      logger,
		oauthConfig: oauthConfig,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates a credentials account and sends a verification link.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondValidation(c, "Invalid email address")
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 30 {
		respondValidation(c, "Username must be between 3 and 30 characters")
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		respondValidation(c, "Username can only contain letters, numbers, and underscores")
		return
	}
	if !utils.ValidatePassword(req.Password) {
		respondValidation(c, "Password must be at least 8 characters and contain an uppercase letter, a lowercase letter, and a number")
		return
	}
	if len(req.Name) > 100 {
		respondValidation(c, "Name must be less than 100 characters")
		return
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		respondValidation(c, "Email already registered")
		return
	}
	if err := h.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		respondValidation(c, "Username already taken")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user := models.User{
		Email:    req.Email,
		Username: req.Username,
		Password: hash,
		Name:     req.Name,
	}
	if err := h.db.Create(&user).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.tokens.IssueVerification(user.Email); err != nil {
		// Account creation already succeeded; a failed token issue only
		// delays verification and the user can request a resend.
		h.logger.Error("Failed to issue verification token", zap.String("email", user.Email), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"username":   user.Username,
			"name":       user.Name,
			"created_at": user.CreatedAt,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil || !user.HasPassword() || !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"name":     user.Name,
		"image":    user.Image,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	respondMessage(c, http.StatusOK, "Logged out")
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// forgotPasswordMessage is returned whether or not the account exists, so the
// endpoint cannot be used to enumerate registered emails.
const forgotPasswordMessage = "If an account exists with this email, you will receive a password reset link."

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		respondValidation(c, "Email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondMessage(c, http.StatusOK, forgotPasswordMessage)
			return
		}
		respondError(c, h.logger, err)
		return
	}

	// OAuth-only accounts have no password to reset.
	if !user.HasPassword() {
		respondMessage(c, http.StatusOK, forgotPasswordMessage)
		return
	}

	if err := h.tokens.IssueReset(email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, forgotPasswordMessage)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}
	if req.Token == "" {
		respondValidation(c, "Reset token is required")
		return
	}

	if err := h.tokens.ConsumeReset(req.Token, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Password reset successfully. You can now log in with your new password.")
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		respondValidation(c, "Verification token is required")
		return
	}

	if err := h.tokens.ConsumeVerification(req.Token); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Email verified successfully")
}

// SendVerification re-issues a verification link for the logged-in user.
func (h *AuthHandler) SendVerification(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if user.EmailVerified() {
		respondMessage(c, http.StatusOK, "Email is already verified")
		return
	}

	if err := h.tokens.IssueVerification(user.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Verification email sent successfully")
}
