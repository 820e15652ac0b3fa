package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tickettractor/backend/internal/config"
	"github.com/tickettractor/backend/internal/models"
	"github.com/tickettractor/backend/internal/services/jira"
	"github.com/tickettractor/backend/internal/store"
	"github.com/tickettractor/backend/internal/utils"
	"github.com/tickettractor/backend/pkg/logger"
)

const (
	// refreshMargin is how close to expiry an access token may get before a
	// resolve triggers a refresh.
	refreshMargin = 60 * time.Second

	// stateTTL bounds how long an issued anti-forgery state stays valid.
	stateTTL = 10 * time.Minute
)

// ErrUnauthenticated is returned when a session handle is missing, invalid,
// expired, or references a session that no longer exists or can no longer be
// refreshed.
var ErrUnauthenticated = errors.New("not authenticated")

// Credentials are the live Jira credentials resolved from a session handle.
type Credentials struct {
	AccessToken string
	CloudID     string
	UserInfo    models.UserInfo
}

// LoginOutcome is what a completed OAuth callback hands back to the frontend.
type LoginOutcome struct {
	Handle      string
	DisplayName string
}

// AuthService orchestrates the Atlassian OAuth 2.0 (3LO) flow and the session
// lifecycle built on top of it.
type AuthService struct {
	cfg        *config.Config
	sessions   store.SessionStore
	jiraClient *jira.Client
	httpClient *http.Client

	stateMu sync.Mutex
	states  map[string]time.Time // state value -> expiry
}

func NewAuthService(cfg *config.Config, sessions store.SessionStore) *AuthService {
	return &AuthService{
		cfg:        cfg,
		sessions:   sessions,
		jiraClient: jira.NewClient(cfg.Atlassian.APIBaseURL),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		states:     make(map[string]time.Time),
	}
}

// JiraClient exposes the gateway configured against the same API base URL.
func (s *AuthService) JiraClient() *jira.Client {
	return s.jiraClient
}

// BuildAuthorizeURL returns the Atlassian authorize URL with a fresh
// anti-forgery state value and the configured scopes and callback URI.
func (s *AuthService) BuildAuthorizeURL() (string, error) {
	state := uuid.NewString()
	s.registerState(state)

	q := url.Values{}
	q.Set("audience", "api.atlassian.com")
	q.Set("client_id", s.cfg.Atlassian.ClientID)
	q.Set("scope", s.cfg.Atlassian.Scopes)
	q.Set("redirect_uri", s.cfg.CallbackURL())
	q.Set("state", state)
	q.Set("response_type", "code")

	return s.cfg.Atlassian.AuthURL + "?" + q.Encode(), nil
}

func (s *AuthService) registerState(state string) {
	if !s.cfg.Atlassian.VerifyState {
		return
	}
	now := time.Now()
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for v, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, v)
		}
	}
	s.states[state] = now.Add(stateTTL)
}

// consumeState checks the callback's state value against the issued set.
// Each state is one-shot.
func (s *AuthService) consumeState(state string) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(expiry)
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (s *AuthService) postTokenRequest(payload map[string]string) (*tokenResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.Atlassian.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var tokens tokenResponse
	// The token endpoint reports failures both as non-2xx statuses and as
	// error fields in a 200 body; decode either way.
	if err := json.Unmarshal(respBody, &tokens); err != nil {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return &tokens, nil
}

// exchangeCode trades an authorization code for an access/refresh token pair.
func (s *AuthService) exchangeCode(code string) (*tokenResponse, error) {
	return s.postTokenRequest(map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     s.cfg.Atlassian.ClientID,
		"client_secret": s.cfg.Atlassian.ClientSecret,
		"code":          code,
		"redirect_uri":  s.cfg.CallbackURL(),
	})
}

func (s *AuthService) refreshTokens(refreshToken string) (*tokenResponse, error) {
	tokens, err := s.postTokenRequest(map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     s.cfg.Atlassian.ClientID,
		"client_secret": s.cfg.Atlassian.ClientSecret,
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		if tokens.ErrorDescription != "" {
			return nil, errors.New(tokens.ErrorDescription)
		}
		return nil, errors.New("no access token in refresh response")
	}
	return tokens, nil
}

type accessibleResource struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// getAccessibleResources lists the Atlassian Cloud sites this token can reach.
func (s *AuthService) getAccessibleResources(accessToken string) ([]accessibleResource, error) {
	u := strings.TrimRight(s.cfg.Atlassian.APIBaseURL, "/") + "/oauth/token/accessible-resources"
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("accessible-resources returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var resources []accessibleResource
	if err := json.Unmarshal(respBody, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// resolveCloudID picks the cloud id whose site URL contains the configured
// domain. Without a match: first accessible resource, unless strict matching
// is on, in which case the login fails.
func (s *AuthService) resolveCloudID(accessToken string) (string, error) {
	resources, err := s.getAccessibleResources(accessToken)
	if err != nil {
		return "", err
	}

	for _, r := range resources {
		if strings.Contains(r.URL, s.cfg.Atlassian.SiteDomain) {
			return r.ID, nil
		}
	}
	if s.cfg.Atlassian.StrictSiteMatch {
		return "", fmt.Errorf("no accessible Jira site matching %s", s.cfg.Atlassian.SiteDomain)
	}
	if len(resources) > 0 {
		return resources[0].ID, nil
	}
	return "", errors.New("no accessible Jira site found")
}

// CompleteLogin handles the OAuth callback: verifies state, exchanges the
// code, discovers the cloud id, fetches the user profile, persists a Session,
// and returns the signed handle.
func (s *AuthService) CompleteLogin(code, state string) (*LoginOutcome, error) {
	if s.cfg.Atlassian.VerifyState && !s.consumeState(state) {
		return nil, errors.New("invalid or expired state parameter")
	}

	tokens, err := s.exchangeCode(code)
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		msg := tokens.ErrorDescription
		if msg == "" {
			msg = tokens.Error
		}
		if msg == "" {
			msg = "no access token in provider response"
		}
		return nil, errors.New(msg)
	}

	cloudID, err := s.resolveCloudID(tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	// Profile fetch needs read:jira-user; a login without it still succeeds
	// with a placeholder profile.
	userInfo := models.UserInfo{DisplayName: "Jira User"}
	if profile, err := s.jiraClient.GetCurrentUser(cloudID, tokens.AccessToken); err != nil {
		logger.Warn().Err(err).Msg("could not fetch user profile, using placeholder")
	} else {
		userInfo = models.UserInfo{
			AccountID:   profile.AccountID,
			DisplayName: profile.DisplayName,
			Email:       profile.EmailAddress,
			AvatarURL:   profile.AvatarURLs["48x48"],
		}
	}

	sessionID, err := utils.NewSessionID()
	if err != nil {
		return nil, err
	}

	expiresIn := tokens.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	now := time.Now()
	session := &models.Session{
		SessionID:    sessionID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		CloudID:      cloudID,
		ExpiresAt:    now.Unix() + expiresIn,
		CreatedAt:    now.Unix(),
		AccountID:    userInfo.AccountID,
		DisplayName:  userInfo.DisplayName,
		Email:        userInfo.Email,
		AvatarURL:    userInfo.AvatarURL,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	// Opportunistic cleanup piggybacks on login; volume is low enough that a
	// dedicated timer is not worth its moving parts.
	s.CleanupExpiredSessions()

	handle, err := utils.GenerateSessionHandle(sessionID, time.Duration(s.cfg.JWT.ExpireHour)*time.Hour)
	if err != nil {
		return nil, err
	}

	displayName := userInfo.DisplayName
	if displayName == "" {
		displayName = userInfo.Email
	}
	return &LoginOutcome{Handle: handle, DisplayName: displayName}, nil
}

// ResolveSession validates the handle and returns live Jira credentials,
// refreshing the access token in place when it is within the safety margin of
// expiry. A failed refresh deletes the session.
func (s *AuthService) ResolveSession(handle string) (*Credentials, error) {
	sessionID, err := utils.ParseSessionHandle(handle)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if session.TokenExpiresWithin(time.Now(), refreshMargin) {
		refreshed, err := s.refreshSession(sessionID, session)
		if err != nil {
			logger.Warn().Err(err).Msg("token refresh failed, invalidating session")
			s.sessions.Delete(sessionID)
			return nil, ErrUnauthenticated
		}
		session = refreshed
	}

	return &Credentials{
		AccessToken: session.AccessToken,
		CloudID:     session.CloudID,
		UserInfo:    session.UserInfo(),
	}, nil
}

func (s *AuthService) refreshSession(sessionID string, session *models.Session) (*models.Session, error) {
	if session.RefreshToken == "" {
		return nil, errors.New("session has no refresh token")
	}

	tokens, err := s.refreshTokens(session.RefreshToken)
	if err != nil {
		return nil, err
	}

	var updated *models.Session
	err = s.sessions.Update(sessionID, func(stored *models.Session) error {
		stored.AccessToken = tokens.AccessToken
		if tokens.RefreshToken != "" {
			stored.RefreshToken = tokens.RefreshToken
		}
		expiresIn := tokens.ExpiresIn
		if expiresIn == 0 {
			expiresIn = 3600
		}
		stored.ExpiresAt = time.Now().Unix() + expiresIn
		out := *stored
		updated = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Logout deletes the referenced session. Best-effort: an invalid handle is
// not an error to the caller.
func (s *AuthService) Logout(handle string) {
	sessionID, err := utils.ParseSessionHandle(handle)
	if err != nil {
		return
	}
	if err := s.sessions.Delete(sessionID); err != nil {
		logger.Warn().Err(err).Msg("logout delete failed")
	}
}

// CleanupExpiredSessions removes sessions older than the handle's maximum
// signed lifetime. No valid handle can reference them regardless of token
// state.
func (s *AuthService) CleanupExpiredSessions() int64 {
	cutoff := time.Now().Unix() - s.cfg.HandleLifetimeSeconds()
	deleted, err := s.sessions.DeleteCreatedBefore(cutoff)
	if err != nil {
		logger.Warn().Err(err).Msg("session cleanup failed")
		return 0
	}
	if deleted > 0 {
		logger.Infof("Cleaned up %d expired sessions", deleted)
	}
	return deleted
}
