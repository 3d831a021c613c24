package handler

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

type AttachmentHandler struct {
	store ports.AttachmentStore
}

func NewAttachmentHandler(store ports.AttachmentStore) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// Download streams a stored quote picture.
//
// @Summary      Download a quote picture
// @Tags         quotes
// @Produce      octet-stream
// @Param        ref  path  string  true  "Picture reference"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /uploads/{ref} [get]
func (h *AttachmentHandler) Download(c echo.Context) error {
	ref := c.Param("ref")
	if ref == "" {
		return domain.ErrAttachmentNotFound
	}

	body, file, err := h.store.Open(c.Request().Context(), ref)
	if err != nil {
		return err
	}
	defer body.Close()

	if file.Filename != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": file.Filename}))
	}
	return c.Stream(http.StatusOK, file.ContentType, body)
}
