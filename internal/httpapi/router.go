// Package httpapi is the browser-facing gateway: document upload, page preview and export download.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/intake"
)

// MaxUploadBytes caps a single uploaded document.
const MaxUploadBytes = 32 << 20

// Previewer renders a document page as PNG.
type Previewer interface {
	Preview(ctx context.Context, doc extract.Document, page, maxW, maxH int) ([]byte, int, error)
}

type Handler struct {
	svc         *intake.Service
	preview     Previewer
	previewPage int
	logger      *slog.Logger
}

func NewHandler(svc *intake.Service, preview Previewer, previewPage int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if previewPage < 1 {
		previewPage = 2
	}
	return &Handler{svc: svc, preview: preview, previewPage: previewPage, logger: logger}
}

// NewRouter wires the routes. An empty origins list allows any origin.
func NewRouter(h *Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	r.MaxMultipartMemory = MaxUploadBytes

	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-Preview-Page"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	r.Use(cors.New(cfg))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.GET("/options", h.options)
	api.POST("/preview", h.renderPreview)
	api.POST("/sessions", h.login)
	api.DELETE("/sessions/:id", h.logout)
	api.POST("/sessions/:id/extract", h.extract)
	api.GET("/sessions/:id/contracts", h.contracts)
	api.GET("/sessions/:id/export", h.export)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := common.EnsureRequestID(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", common.RequestIDFromContext(ctx),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

type loginRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID.String(), "salesperson": sess.Salesperson})
}

func (h *Handler) logout(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	h.svc.Logout(id)
	c.Status(http.StatusNoContent)
}

func (h *Handler) options(c *gin.Context) {
	o := h.svc.Options()
	c.JSON(http.StatusOK, gin.H{"offices": o.Offices, "channels": o.Channels, "kinds": o.Kinds})
}

func (h *Handler) extract(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	doc, ok := upload(c)
	if !ok {
		return
	}
	ex, err := h.svc.ExtractDocument(c.Request.Context(), id, doc)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cached": ex.Cached, "fields": ex.Result.Map(), "found": ex.Result.FoundCount()})
}

func (h *Handler) renderPreview(c *gin.Context) {
	doc, ok := upload(c)
	if !ok {
		return
	}
	w, _ := strconv.Atoi(c.DefaultQuery("width", "900"))
	hgt, _ := strconv.Atoi(c.DefaultQuery("height", "0"))
	png, page, err := h.preview.Preview(c.Request.Context(), doc, h.previewPage, w, hgt)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("X-Preview-Page", strconv.Itoa(page))
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) contracts(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListContracts(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		out = append(out, gin.H{
			"row":      r.Index,
			"date":     r.Field(constants.ColDate),
			"customer": r.Customer,
			"office":   r.Office,
			"channel":  r.Channel,
			"status":   r.Status,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) export(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	from, err := dateQuery(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	data, err := h.svc.ExportContracts(c.Request.Context(), id, from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="contracts.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}

func upload(c *gin.Context) (extract.Document, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return extract.Document{}, false
	}
	defer file.Close()

	if !constants.AllowedExt(filepath.Ext(header.Filename)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only pdf, jpg, jpeg and png files are accepted"})
		return extract.Document{}, false
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading uploaded file"})
		return extract.Document{}, false
	}
	if len(data) > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return extract.Document{}, false
	}
	return extract.Document{Name: header.Filename, Data: data}, true
}

func dateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(constants.DateLayout, raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fail(c *gin.Context, err error) {
	c.JSON(httpStatus(err), gin.H{"error": common.UserMessage(err)})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrUnsupportedDocument):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrMissingColumn):
		return http.StatusConflict
	case errors.Is(err, common.ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
