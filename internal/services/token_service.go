package services

import (
	"errors"
	"time"

	"blogify/internal/apperr"
	"blogify/internal/models"
	"blogify/internal/utils"

	"gorm.io/gorm"
)

const (
	tokenSecretBytes = 32 // 256 bits of entropy

	// VerificationTokenTTL bounds email verification links.
	VerificationTokenTTL = 24 * time.Hour
	// ResetTokenTTL bounds password reset links. Shorter because a reset
	// grants credential takeover.
	ResetTokenTTL = time.Hour
)

// Notifier delivers token links by email. Sends are best-effort: the
// implementation logs failures and never propagates them.
type Notifier interface {
	SendVerificationLink(email, secret string)
	SendPasswordResetLink(email, secret string)
}

// TokenService runs the verify-email and reset-password token lifecycles:
// single-use, time-bounded tokens with at most one live token per email and
// purpose.
type TokenService struct {
	db     *gorm.DB
	mailer Notifier
	now    func() time.Time
}

func NewTokenService(conn *gorm.DB, mailer Notifier) *TokenService {
	return &TokenService{
		db:     conn,
		mailer: mailer,
		now:    time.Now,
	}
}

// IssueVerification supersedes any live verification token for the email and
// mails a fresh link. The stored token is the raw secret: verification only
// flips a flag, so the lower-trust representation is acceptable.
func (s *TokenService) IssueVerification(email string) error {
	if err := s.db.Where("identifier = ?", email).Delete(&models.VerificationToken{}).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to clear verification tokens", err)
	}

	secret, err := utils.GenerateSecret(tokenSecretBytes)
	if err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to generate token", err)
	}

	token := models.VerificationToken{
		Identifier: email,
		Token:      secret,
		ExpiresAt:  s.now().Add(VerificationTokenTTL),
	}
	if err := s.db.Create(&token).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to store verification token", err)
	}

	s.mailer.SendVerificationLink(email, secret)
	return nil
}

// IssueReset supersedes any live reset token for the email and mails a fresh
// link. Only the SHA-256 hash of the secret is stored.
func (s *TokenService) IssueReset(email string) error {
	if err := s.db.Where("email = ?", email).Delete(&models.PasswordResetToken{}).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to clear reset tokens", err)
	}

	secret, err := utils.GenerateSecret(tokenSecretBytes)
	if err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to generate token", err)
	}

	token := models.PasswordResetToken{
		Email:     email,
		TokenHash: utils.HashSecret(secret),
		ExpiresAt: s.now().Add(ResetTokenTTL),
	}
	if err := s.db.Create(&token).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to store reset token", err)
	}

	s.mailer.SendPasswordResetLink(email, secret)
	return nil
}

// ConsumeVerification validates a verification secret and marks the owning
// account's email as verified. Verifying an already-verified account is a
// no-op success; the token is consumed either way.
func (s *TokenService) ConsumeVerification(secret string) error {
	var token models.VerificationToken
	if err := s.db.Where("token = ?", secret).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Invalid verification token")
		}
		return apperr.Wrap(apperr.Unexpected, "failed to look up verification token", err)
	}

	if token.ExpiresAt.Before(s.now()) {
		if err := s.db.Delete(&token).Error; err != nil {
			return apperr.Wrap(apperr.Unexpected, "failed to drop expired verification token", err)
		}
		return apperr.New(apperr.Expired, "Verification token has expired. Please request a new one.")
	}

	var user models.User
	if err := s.db.Where("email = ?", token.Identifier).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "User not found")
		}
		return apperr.Wrap(apperr.Unexpected, "failed to load user", err)
	}

	if !user.EmailVerified() {
		verifiedAt := s.now()
		if err := s.db.Model(&user).Update("email_verified_at", &verifiedAt).Error; err != nil {
			return apperr.Wrap(apperr.Unexpected, "failed to mark email verified", err)
		}
	}

	if err := s.db.Delete(&token).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to consume verification token", err)
	}
	return nil
}

// ConsumeReset validates a reset secret and installs the new password. On
// success it deletes the consumed token and every other reset token for the
// same email, so two valid reset links can never coexist after one is used.
func (s *TokenService) ConsumeReset(secret, newPassword string) error {
	if newPassword == "" {
		return apperr.New(apperr.Validation, "Password is required")
	}
	if len(newPassword) < 8 {
		return apperr.New(apperr.Validation, "Password must be at least 8 characters long")
	}

	var token models.PasswordResetToken
	if err := s.db.Where("token_hash = ?", utils.HashSecret(secret)).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Invalid or expired reset token")
		}
		return apperr.Wrap(apperr.Unexpected, "failed to look up reset token", err)
	}

	if token.ExpiresAt.Before(s.now()) {
		if err := s.db.Delete(&token).Error; err != nil {
			return apperr.Wrap(apperr.Unexpected, "failed to drop expired reset token", err)
		}
		return apperr.New(apperr.Expired, "Reset token has expired. Please request a new one.")
	}

	var user models.User
	if err := s.db.Where("email = ?", token.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "User not found")
		}
		return apperr.Wrap(apperr.Unexpected, "failed to load user", err)
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to hash password", err)
	}
	if err := s.db.Model(&user).Update("password", hash).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to update password", err)
	}

	if err := s.db.Delete(&token).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to consume reset token", err)
	}
	// Sweep any other live token for this owner. Two simultaneous "forgot
	// password" calls may briefly leave two rows; this converges to zero.
	if err := s.db.Where("email = ?", token.Email).Delete(&models.PasswordResetToken{}).Error; err != nil {
		return apperr.Wrap(apperr.Unexpected, "failed to clear reset tokens", err)
	}
	return nil
}
