package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"blogify/internal/middleware"
	"blogify/internal/models"
	"blogify/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var usernameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// NewGoogleOAuthConfig builds the OAuth2 config for Google sign-in.
func NewGoogleOAuthConfig(clientID, clientSecret, siteURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimSuffix(siteURL, "/") + "/auth/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleProfile is the subset of the userinfo response we consume.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// LinkOrCreateAccount resolves a Google profile to a local account. An
// existing account with the same email gets the Google identity linked; a
// new account is created with a unique username derived from the email and
// no password.
func LinkOrCreateAccount(conn *gorm.DB, profile GoogleProfile) (*models.User, error) {
	email := strings.ToLower(profile.Email)

	var user models.User
	err := conn.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.GoogleID == "" {
			updates := map[string]interface{}{"google_id": profile.ID}
			if user.Image == "" && profile.Picture != "" {
				updates["image"] = profile.Picture
			}
			if err := conn.Model(&user).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	base := usernameSanitizer.ReplaceAllString(strings.Split(email, "@")[0], "_")
	if base == "" {
		base = "user"
	}
	username := base
	for counter := 1; ; counter++ {
		var taken models.User
		if err := conn.Where("username = ?", username).First(&taken).Error; err == gorm.ErrRecordNotFound {
			break
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}

	user = models.User{
		Email:    email,
		Username: username,
		Name:     profile.Name,
		Image:    profile.Picture,
		GoogleID: profile.ID,
		Password: "", // OAuth accounts carry no credential
	}
	if err := conn.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GoogleLogin starts the OAuth flow with a random state token bound to the
// session.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.oauthConfig == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state, err := utils.GenerateStateToken()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	session := sessions.Default(c)
	session.Set("oauth_state", state)
	session.Save()

	c.Redirect(http.StatusTemporaryRedirect, h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// GoogleCallback validates state, exchanges the code, and signs the user in.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauthConfig == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	session := sessions.Default(c)
	savedState := session.Get("oauth_state")
	if savedState == nil || c.Query("state") != savedState.(string) {
		respondValidation(c, "Invalid state parameter")
		return
	}
	session.Delete("oauth_state")
	session.Save()

	code := c.Query("code")
	if code == "" {
		respondValidation(c, "Missing authorization code")
		return
	}

	token, err := h.oauthConfig.Exchange(context.Background(), code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	profile, err := fetchGoogleProfile(c.Request.Context(), token.AccessToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !profile.VerifiedEmail {
		respondValidation(c, "Google account email is not verified")
		return
	}

	user, err := LinkOrCreateAccount(h.db, *profile)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func fetchGoogleProfile(ctx context.Context, accessToken string) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo request failed: %s: %s", resp.Status, body)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
