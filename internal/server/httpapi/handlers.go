package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/server/guard"
	"github.com/dmitrijs2005/authservice/internal/server/models"
	"github.com/dmitrijs2005/authservice/internal/server/services"
	"github.com/dmitrijs2005/authservice/internal/server/validation"
)

const maxBodyBytes = 1 << 20

// Sessions is the part of services.SessionService the handlers use.
type Sessions interface {
	SignUp(ctx context.Context, name, email, password string, c services.ClientInfo) (*services.TokenPair, error)
	SignIn(ctx context.Context, email, password string, c services.ClientInfo) (*services.TokenPair, error)
	RefreshAccess(ctx context.Context, refreshToken string, c services.ClientInfo) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Authorizer is satisfied by *guard.Guard.
type Authorizer interface {
	Authorize(ctx context.Context, c guard.Credentials) (*guard.Result, error)
}

type Handler struct {
	sessions Sessions
	guard    Authorizer
	cookies  *Cookies
	logger   logging.Logger
}

func NewHandler(s Sessions, g Authorizer, c *Cookies, l logging.Logger) *Handler {
	return &Handler{sessions: s, guard: g, cookies: c, logger: l}
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// decode reads a JSON body. An empty body leaves dst untouched when
// optional is set.
func decode(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func clientInfo(r *http.Request) services.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return services.ClientInfo{IP: ip, UserAgent: r.UserAgent()}
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, pair *services.TokenPair) {
	h.cookies.SetAccess(w, pair.AccessToken)
	if pair.RefreshToken != "" {
		h.cookies.SetRefresh(w, pair.RefreshToken)
	}
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(r, &req, false); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.SignUp(req.Name, req.Email, req.Password); err != nil {
		writeError(w, err, "")
		return
	}

	pair, err := h.sessions.SignUp(r.Context(), req.Name, req.Email, req.Password, clientInfo(r))
	if err != nil {
		writeError(w, err, "Invalid credentials")
		return
	}

	h.setSessionCookies(w, pair)
	writeData(w, http.StatusCreated, pair)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(r, &req, false); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.SignIn(req.Email, req.Password); err != nil {
		writeError(w, err, "")
		return
	}

	pair, err := h.sessions.SignIn(r.Context(), req.Email, req.Password, clientInfo(r))
	if err != nil {
		writeError(w, err, "Invalid credentials")
		return
	}

	h.setSessionCookies(w, pair)
	writeData(w, http.StatusOK, pair)
}

// Refresh takes the refresh token from the body, the refresh cookie or the
// X-Refresh-Token header, in that order.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req, true); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	token := req.RefreshToken
	if token == "" {
		token = h.credentials(r).RefreshToken
	}

	pair, err := h.sessions.RefreshAccess(r.Context(), token, clientInfo(r))
	if err != nil {
		writeError(w, err, "Invalid refresh token")
		return
	}

	h.setSessionCookies(w, pair)
	writeData(w, http.StatusOK, pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), h.credentials(r).RefreshToken)

	// drop anything the guard attached before clearing the cookies
	w.Header().Del("Set-Cookie")
	w.Header().Del(common.ReissuedAccessTokenHeader)
	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	payload, ok := guard.PayloadFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.sessions.GetUser(r.Context(), payload.UserID)
	if err != nil {
		writeError(w, err, "Unauthorized")
		return
	}

	writeData(w, http.StatusOK, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
