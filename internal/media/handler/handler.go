package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/media"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/logger"
)

// multipart overhead allowed on top of the image itself
const formSlack = 1 << 20

type MediaHandler struct {
	uc     media.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewMediaHandler(uc media.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *MediaHandler {
	return &MediaHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *MediaHandler) Register(rt *httpapi.Router) {
	rt.Admin("POST /api/admin/products/{id}/images", model.PermMediaUpload, h.Upload)
	rt.Admin("DELETE /api/admin/media", model.PermMediaUpload, h.Delete)
}

// Upload expects a multipart form with the image in the "file" field.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageBytes+formSlack)
	if err := r.ParseMultipartForm(media.MaxImageBytes + formSlack); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.resp.Error(w, r, apperr.Invalid("media.too_large"))
			return
		}
		h.resp.Error(w, r, apperr.Invalid("error.invalid_request"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		v := apperr.NewValidator()
		v.Add("file", "validation.required")
		h.resp.Error(w, r, v.Err())
		return
	}
	defer file.Close()

	up, err := h.uc.Upload(r.Context(), &media.UploadInput{
		ProductID:   r.PathValue("id"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, up)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Delete(r.Context(), r.URL.Query().Get("key")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}
