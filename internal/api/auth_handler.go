package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/authstate"
	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
)

// AuthHandler serves the account endpoints and keeps the shared auth state
// in step with what the backend reports.
type AuthHandler struct {
	authService core.AuthService
	store       *authstate.Store
	log         *zap.Logger
}

func NewAuthHandler(authService core.AuthService, store *authstate.Store, log *zap.Logger) *AuthHandler {
	if authService == nil {
		panic("AuthService cannot be nil for AuthHandler")
	}
	if store == nil {
		panic("auth state store cannot be nil for AuthHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{authService: authService, store: store, log: log.Named("auth_handler")}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Passwords do not match"})
		return
	}

	h.store.SetLoading(true)
	user, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		h.store.SetLoading(false)
		h.log.Info("Sign up failed", zap.String("email", req.Email), zap.Error(err))
		writeError(c, h.log, err)
		return
	}

	// Without a session for the new account it still awaits email
	// confirmation. Sign-up drops any earlier session, so the store is
	// signed out.
	session, err := h.authService.GetSession(c.Request.Context())
	if err != nil || session == nil || session.User == nil || session.User.ID != user.ID {
		h.store.Clear()
		c.JSON(http.StatusCreated, UserResponse{User: user, ConfirmationRequired: true})
		return
	}

	h.store.SetUser(user)
	c.JSON(http.StatusCreated, UserResponse{User: user})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.store.SetLoading(true)
	user, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.store.SetLoading(false)
		h.log.Info("Sign in failed", zap.String("email", req.Email), zap.Error(err))
		writeError(c, h.log, err)
		return
	}

	h.store.SetUser(user)
	c.JSON(http.StatusOK, UserResponse{User: user})
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	h.store.SetLoading(true)
	if err := h.authService.SignOut(c.Request.Context()); err != nil {
		h.store.SetLoading(false)
		h.log.Error("Failed to sign out", zap.Error(err))
		writeError(c, h.log, err)
		return
	}

	h.store.Clear()
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Password reset email sent"})
}

func (h *AuthHandler) GetSession(c *gin.Context) {
	session, err := h.authService.GetSession(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: session})
}

// GetCurrentUser asks the backend for the signed-in user rather than
// trusting the cached state.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetCurrentUser(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.ErrNotAuthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, UserResponse{User: user})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.ErrNotAuthenticated.Error()})
		return
	}

	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.UpdateProfile(c.Request.Context(), user.ID, update); err != nil {
		writeError(c, h.log, err)
		return
	}

	updated := update.Apply(*user)
	h.store.SetUser(&updated)
	c.JSON(http.StatusOK, UserResponse{User: &updated})
}

func (h *AuthHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get())
}

// StreamState pushes every auth state change as a server-sent event until
// the client goes away.
func (h *AuthHandler) StreamState(c *gin.Context) {
	states, subID := h.store.Subscribe(c.Request.Context())
	defer h.store.Unsubscribe(subID)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case state, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", state)
			return true
		}
	})
}
