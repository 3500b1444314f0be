package profileimages

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learning-backend/internal/shared/metrics"
	"learning-backend/internal/shared/server/middleware"
	"learning-backend/internal/shared/server/respond"
	"learning-backend/internal/users"
)

// Cap the request body a little above the validator's limit so declared
// sizes just over the bound are rejected by the validator, not the transport.
const maxRequestBytes = MaxUploadBytes + 64<<10

// Handler wires the upload endpoint to the service.
type Handler struct {
	Svc   *Service
	Users *users.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, userSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Users: userSvc}
}

// RegisterRoutes attaches profile image routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/users/:username/profile-image", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	username := c.Param("username")

	_, err := h.Users.Resolve(
		c.Request.Context(),
		middleware.UsernameFromContext(c),
		middleware.IsStaffFromContext(c),
		username,
		true, // staff may upload on a user's behalf
	)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		case errors.Is(err, users.ErrNotAuthorized):
			respond.Error(c, http.StatusForbidden, "forbidden", "not allowed to modify this user's profile image", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve user", nil)
		}
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	start := metrics.NowMillis()
	upload := Upload{
		Content:     file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		FileName:    fileHeader.Filename,
	}

	paths, result, err := h.Svc.ProcessUpload(c.Request.Context(), username, upload)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store profile image", nil)
		return
	}
	if !result.OK() {
		c.Set("rejectReason", string(result.Reason))
		metrics.IncUploadRejected()
		respond.Error(c, http.StatusBadRequest, string(result.Reason), result.Reason.Message(), nil)
		return
	}

	c.Set("imageType", string(result.Type))
	metrics.IncUploadAccepted()
	metrics.ObserveUploadDurationMs(metrics.NowMillis() - start)

	respond.JSON(c, http.StatusOK, gin.H{
		"status": "success",
		"paths":  paths,
	})
}
