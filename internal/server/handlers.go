package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/models"
	"github.com/parsascontentcorner/guildproxy/internal/siteconfig"
	"github.com/parsascontentcorner/guildproxy/internal/uploads"
)

// Cache is the read-through cache behind the public GET routes
type Cache interface {
	Get(ctx context.Context, key models.CacheKey) (any, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	cache   Cache
	uploads uploads.Store
	site    siteconfig.Store
	logger  *zap.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(cache Cache, uploadStore uploads.Store, site siteconfig.Store, logger *zap.Logger) *Handlers {
	return &Handlers{
		cache:   cache,
		uploads: uploadStore,
		site:    site,
		logger:  logger,
	}
}

// HealthHandler handles health check requests
func (h *Handlers) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error("failed to write health check response", zap.Error(err))
	}
}

// Cached serves the current value of key as JSON
func (h *Handlers) Cached(key models.CacheKey) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := h.cache.Get(r.Context(), key)
		if err != nil {
			h.logger.Error("cache lookup failed", zap.String("key", string(key)), zap.Error(err))
			writeError(w, h.logger, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, h.logger, http.StatusOK, value)
	}
}

// JoinHandler records that a visitor clicked the invite
func (h *Handlers) JoinHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("join event recorded", zap.String("request_id", RequestIDFromContext(r.Context())))
	writeSuccess(w, h.logger, "Join recorded")
}

// ListUploadsHandler lists pending and approved uploads
func (h *Handlers) ListUploadsHandler(w http.ResponseWriter, r *http.Request) {
	pending, err := h.uploads.ListPending(r.Context())
	if err != nil {
		h.logger.Error("failed to list pending uploads", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	approved, err := h.uploads.ListApproved(r.Context())
	if err != nil {
		h.logger.Error("failed to list approved uploads", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, models.UploadListing{Pending: pending, Approved: approved})
}

type uploadIDRequest struct {
	ID string `json:"id" validate:"required"`
}

// ApproveHandler moves a pending upload to approved
func (h *Handlers) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	h.reviewUpload(w, r, h.uploads.Approve, "Image approved")
}

// RejectHandler deletes a pending upload
func (h *Handlers) RejectHandler(w http.ResponseWriter, r *http.Request) {
	h.reviewUpload(w, r, h.uploads.Reject, "Image rejected")
}

func (h *Handlers) reviewUpload(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, filename string) error,
	successMsg string,
) {
	var req uploadIDRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, h.logger, err, "No filename provided")
		return
	}

	if err := action(r.Context(), req.ID); err != nil {
		if errors.Is(err, uploads.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("upload review failed", zap.String("id", req.ID), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, h.logger, successMsg)
}

type setAssetRequest struct {
	Type string `json:"type" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

// SetAssetHandler updates a site asset such as the banner or profile picture
func (h *Handlers) SetAssetHandler(w http.ResponseWriter, r *http.Request) {
	var req setAssetRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, h.logger, err, "Missing type or url")
		return
	}

	if err := h.site.SetAsset(r.Context(), req.Type, req.URL); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, h.logger, req.Type+" updated")
}

type addJennaRequest struct {
	Filename string `json:"filename" validate:"required"`
}

type addJennaResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// AddJennaHandler adds an approved upload to the Jenna page
func (h *Handlers) AddJennaHandler(w http.ResponseWriter, r *http.Request) {
	var req addJennaRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, h.logger, err, "No filename provided")
		return
	}

	url, err := h.site.AddJennaImage(r.Context(), req.Filename)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, addJennaResponse{
		Status:  "success",
		Message: "Image added to Jenna page",
		URL:     url,
	})
}

type collectResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// CollectJennaImagesHandler runs an image collection pass
func (h *Handlers) CollectJennaImagesHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.site.CollectJennaImages(r.Context())
	if err != nil {
		h.logger.Warn("image collection failed", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, collectResponse{
		Status:  "ok",
		Message: "Images collected successfully",
		Count:   count,
	})
}

type channelsRequest struct {
	Action  string          `json:"action" validate:"required|in:add,delete"`
	Channel json.RawMessage `json:"channel"`
	Name    string          `json:"name"`
}

// ChannelsHandler adds or deletes a channel directory entry
func (h *Handlers) ChannelsHandler(w http.ResponseWriter, r *http.Request) {
	var req channelsRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, h.logger, err, "Invalid action")
		return
	}

	switch req.Action {
	case "add":
		var channel siteconfig.ChannelEntry
		if len(req.Channel) == 0 || json.Unmarshal(req.Channel, &channel) != nil || channel == (siteconfig.ChannelEntry{}) {
			break
		}
		if err := h.site.AddChannel(r.Context(), channel); err != nil {
			writeError(w, h.logger, http.StatusInternalServerError, err.Error())
			return
		}
		writeSuccess(w, h.logger, "Channel added")
		return

	case "delete":
		if req.Name == "" {
			break
		}
		if err := h.site.DeleteChannel(r.Context(), req.Name); err != nil {
			writeError(w, h.logger, http.StatusInternalServerError, err.Error())
			return
		}
		writeSuccess(w, h.logger, "Channel deleted")
		return
	}

	writeError(w, h.logger, http.StatusBadRequest, "Invalid action")
}

type uploadResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Uploader string `json:"uploader"`
}

// UploadHandler streams the first multipart "image" part into the pending
// directory. An optional "uploader" text part names the submitter; it may
// come before or after the image.
func (h *Handlers) UploadHandler(w http.ResponseWriter, r *http.Request) {
	// Bodies have no size limit, so the server-wide write timeout must not
	// run out while the upload is still streaming.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", zap.Error(err))
	}

	reader, err := r.MultipartReader()
	if err != nil {
		h.logger.Debug("upload is not multipart", zap.Error(err))
		writeError(w, h.logger, http.StatusBadRequest, "Invalid upload")
		return
	}

	uploader := models.PendingUploader
	var saved *models.StoredUpload
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.logger.Debug("failed to read multipart body", zap.Error(err))
			break
		}

		switch part.FormName() {
		case "uploader":
			name, err := io.ReadAll(part)
			if err == nil && len(name) > 0 {
				uploader = strings.TrimSpace(string(name))
			}

		case "image":
			if saved != nil {
				break
			}
			saved, err = h.saveUpload(r.Context(), uploader, part.FileName(), part)
			if err != nil {
				_ = part.Close()
				h.writeUploadError(w, err)
				return
			}
		}
		_ = part.Close()
	}

	if saved == nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid upload")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, uploadResponse{
		Status:   "success",
		Message:  "Upload successful",
		Filename: saved.Filename,
		Uploader: uploader,
	})
}

var errNoFile = errors.New("no file provided")

func (h *Handlers) saveUpload(ctx context.Context, uploader, filename string, body io.Reader) (*models.StoredUpload, error) {
	if filename == "" {
		return nil, errNoFile
	}
	return h.uploads.Save(ctx, uploader, filename, body)
}

func (h *Handlers) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoFile):
		writeError(w, h.logger, http.StatusBadRequest, "No file provided")
	case errors.Is(err, uploads.ErrInvalidName):
		writeError(w, h.logger, http.StatusBadRequest, "Invalid upload")
	default:
		h.logger.Error("failed to save upload", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
	}
}
