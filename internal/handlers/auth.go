package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tickettractor/backend/internal/config"
	"github.com/tickettractor/backend/internal/middleware"
	"github.com/tickettractor/backend/internal/services"
	"github.com/tickettractor/backend/pkg/logger"
	"github.com/tickettractor/backend/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
	frontendURL string
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		frontendURL: strings.TrimRight(cfg.App.FrontendURL, "/"),
	}
}

// Login returns the Atlassian authorize URL for the frontend to redirect to.
// GET /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	authURL, err := h.authService.BuildAuthorizeURL()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"auth_url": authURL})
}

// Callback handles the OAuth redirect from Atlassian. It always redirects to
// the frontend login route: with a session handle on success, with an error
// message otherwise. No raw error pages.
// GET /api/auth/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		h.redirectError(c, "missing authorization code")
		return
	}

	outcome, err := h.authService.CompleteLogin(code, state)
	if err != nil {
		logger.Warn().Err(err).Msg("oauth callback failed")
		h.redirectError(c, err.Error())
		return
	}

	q := url.Values{}
	q.Set("token", outcome.Handle)
	q.Set("display_name", outcome.DisplayName)
	c.Redirect(http.StatusFound, h.frontendURL+"/login?"+q.Encode())
}

func (h *AuthHandler) redirectError(c *gin.Context, msg string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/login?error="+url.QueryEscape(msg))
}

// GetCurrentUser returns the profile attached to the session.
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	response.Success(c, creds.UserInfo)
}

// Logout invalidates the session referenced by the bearer handle (or a
// "token" field in the body, for clients that already dropped the header).
// Always succeeds.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	handle := middleware.BearerHandle(c)
	if handle == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			handle = body.Token
		}
	}
	if handle != "" {
		h.authService.Logout(handle)
	}
	response.Success(c, gin.H{"message": "logged out successfully"})
}
