package preferences

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"learning-backend/internal/shared/server/middleware"
	"learning-backend/internal/shared/server/respond"
	"learning-backend/internal/users"
)

// Handler exposes the preference store over HTTP. Reads honor the
// owner-or-staff rule; writes are owner-only.
type Handler struct {
	Svc   *Service
	Users *users.Service
}

func NewHandler(svc *Service, userSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Users: userSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:username/preferences", h.getAll)
	rg.PATCH("/users/:username/preferences", h.updateMany)
	rg.GET("/users/:username/preferences/:key", h.getOne)
	rg.PUT("/users/:username/preferences/:key", h.setOne)
	rg.DELETE("/users/:username/preferences/:key", h.deleteOne)
	rg.PUT("/users/:username/email-optin", h.setEmailOptIn)
}

// resolve enforces authorization for the target user and writes the error
// response itself; the bool reports whether the caller may proceed.
func (h *Handler) resolve(c *gin.Context, allowStaff bool) (users.User, bool) {
	target, err := h.Users.Resolve(
		c.Request.Context(),
		middleware.UsernameFromContext(c),
		middleware.IsStaffFromContext(c),
		c.Param("username"),
		allowStaff,
	)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		case errors.Is(err, users.ErrNotAuthorized):
			respond.Error(c, http.StatusForbidden, "forbidden", "not allowed to access this user's preferences", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve user", nil)
		}
		return users.User{}, false
	}
	return target, true
}

func (h *Handler) getAll(c *gin.Context) {
	target, ok := h.resolve(c, true)
	if !ok {
		return
	}
	prefs, err := h.Svc.GetAll(c.Request.Context(), target.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load preferences", nil)
		return
	}
	respond.JSON(c, http.StatusOK, prefs)
}

func (h *Handler) getOne(c *gin.Context) {
	target, ok := h.resolve(c, true)
	if !ok {
		return
	}
	value, err := h.Svc.Get(c.Request.Context(), target.ID, c.Param("key"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "preference not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load preference", nil)
		return
	}
	respond.JSON(c, http.StatusOK, value)
}

func (h *Handler) setOne(c *gin.Context) {
	target, ok := h.resolve(c, false)
	if !ok {
		return
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.Set(c.Request.Context(), target.ID, c.Param("key"), body.Value); err != nil {
		var invalid ValidationErrors
		if errors.As(err, &invalid) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid preference", validationDetails(invalid))
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store preference", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteOne(c *gin.Context) {
	target, ok := h.resolve(c, false)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), target.ID, c.Param("key")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "preference not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete preference", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateMany(c *gin.Context) {
	target, ok := h.resolve(c, false)
	if !ok {
		return
	}
	var update map[string]*string
	if err := c.ShouldBindJSON(&update); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.UpdateMany(c.Request.Context(), target.ID, update); err != nil {
		var invalid ValidationErrors
		if errors.As(err, &invalid) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid preferences", validationDetails(invalid))
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update preferences", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setEmailOptIn(c *gin.Context) {
	target, ok := h.resolve(c, false)
	if !ok {
		return
	}
	var body struct {
		Org   string `json:"org"`
		OptIn *bool  `json:"optIn"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Org) == "" || body.OptIn == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "org and optIn are required", nil)
		return
	}
	if err := h.Svc.SetEmailOptIn(c.Request.Context(), target, body.Org, *body.OptIn); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record email opt-in", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func validationDetails(invalid ValidationErrors) map[string]any {
	details := make(map[string]any, len(invalid))
	for key, msg := range invalid {
		details[key] = gin.H{"developer_message": msg}
	}
	return details
}
