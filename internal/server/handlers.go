package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spinsync/spinsync/internal/models"
	"github.com/spinsync/spinsync/internal/services"
	"github.com/spinsync/spinsync/internal/shared"
	"github.com/spinsync/spinsync/internal/tasks"
)

// stateCookie carries the OAuth state value between /login and /callback.
const stateCookie = "spinsync_oauth_state"

// handleIndex redirects to the login flow.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}

// handleLogin stores a random state value in a short-lived cookie and sends
// the browser to the Spotify consent page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateID()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.config.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.auth.LoginURL(state), http.StatusFound)
}

// handleCallback completes the OAuth flow: it validates the state, exchanges
// the authorization code for a session, binds the session to a cookie, and
// sends the browser to the frontend dashboard.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		s.writeError(w, http.StatusBadRequest, "Invalid state parameter")
		return
	}
	clearCookie(w, stateCookie)

	session, err := s.auth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn("authorization code exchange failed", "error", err)
		s.respondError(w, err)
		return
	}

	s.setSessionCookie(w, session.ID)
	http.Redirect(w, r, s.config.Server.FrontendURL+"/dashboard", http.StatusFound)
}

// handleRefreshToken forces a refresh grant for the current session.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	if id == "" {
		s.respondError(w, shared.ErrNotAuthenticated)
		return
	}

	if _, err := s.auth.RefreshSession(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed successfully"})
}

// handleProfile proxies the Spotify profile for the current session. Upstream
// failures pass through with their original status and body.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	profile, err := s.service.Profile(r.Context(), token)
	if err != nil {
		var upstream *services.UpstreamError
		if errors.As(err, &upstream) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(upstream.Status)
			fmt.Fprint(w, upstream.Body)
			return
		}
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profile)
}

// handleTopTracks returns the user's top tracks for the requested window.
func (s *Server) handleTopTracks(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	limit := queryInt(r, "limit", 5)
	timeRange := r.URL.Query().Get("time_range")
	if timeRange == "" {
		timeRange = "short_term"
	}

	items, err := s.service.TopTracks(r.Context(), token, limit, timeRange)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if items == nil {
		items = []models.Track{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleRecentTracks returns recently played tracks flattened for display.
func (s *Server) handleRecentTracks(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	history, err := s.service.RecentlyPlayed(r.Context(), token, queryInt(r, "limit", 5))
	if err != nil {
		s.respondError(w, err)
		return
	}

	tracks := make([]models.RecentTrack, 0, len(history))
	for _, item := range history {
		if item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, models.NewRecentTrack(item))
	}

	s.writeJSON(w, http.StatusOK, tracks)
}

// handleCreateMix builds and publishes a mix playlist for the current session.
func (s *Server) handleCreateMix(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			s.logger.Debug("mix progress", "phase", update.Phase, "message", update.Message)
		}
	}()

	result, err := s.engine.Build(r.Context(), progress, token)
	close(progress)
	<-done
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"message":      "Playlist created!",
		"playlist_url": result.PlaylistURL,
	})
}

// handleLogout discards the session and expires its cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	if id == "" {
		s.respondError(w, shared.ErrNotAuthenticated)
		return
	}

	if err := s.auth.Logout(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	clearCookie(w, s.config.Server.CookieName)
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionID extracts the session id from the request cookie. Missing cookies
// are not an error here; callers treat "" as unauthenticated.
func (s *Server) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(s.config.Server.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// accessToken resolves the request's session cookie to a valid access token.
func (s *Server) accessToken(r *http.Request) (string, error) {
	id := s.sessionID(r)
	if id == "" {
		return "", shared.ErrNotAuthenticated
	}
	return s.auth.Access(r.Context(), id)
}

// setSessionCookie binds a session id to the browser. SameSite=None because
// the SPA calls this API from another origin with credentials.
func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.Server.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   s.config.Sessions.TTLHours * 3600,
		HttpOnly: true,
		Secure:   s.config.Server.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// respondError maps the error taxonomy onto HTTP statuses. Upstream failures
// keep their original status so the frontend sees what Spotify said.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var upstream *services.UpstreamError

	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		s.writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, shared.ErrNoRefreshToken):
		s.writeError(w, http.StatusUnauthorized, "No refresh token in session")
	case errors.Is(err, shared.ErrRefreshFailed):
		s.writeError(w, http.StatusBadRequest, "Failed to refresh token")
	case errors.Is(err, shared.ErrExchangeFailed):
		s.writeError(w, http.StatusBadRequest, "Failed to get access token")
	case errors.Is(err, shared.ErrNoCandidates):
		s.writeError(w, http.StatusBadRequest, "No tracks available to generate a playlist")
	case errors.As(err, &upstream):
		s.writeError(w, upstream.Status, "Unable to fetch data")
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// queryInt parses a positive integer query parameter, falling back on
// absent or malformed values.
func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
