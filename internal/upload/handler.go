package upload

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sticky-uploads/internal/signing"
	"sticky-uploads/internal/sticky"
	"sticky-uploads/internal/storage"
	"sticky-uploads/internal/store"
)

// DefaultUploadPath is the scope tokens are minted under when a client does
// not say which upload endpoint produced them.
const DefaultUploadPath = "/upload/default/"

type Handler struct {
	store   *store.Store
	reg     *storage.Registry
	signer  *signing.Signer
	policy  *Policy
	maxSize int64
}

func NewHandler(s *store.Store, reg *storage.Registry, signer *signing.Signer, policy *Policy, maxSize int64) *Handler {
	return &Handler{store: s, reg: reg, signer: signer, policy: policy, maxSize: maxSize}
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Post("/upload/default/", h.Upload)
	app.Post("/upload/restore/", h.Restore)
	app.Get("/files", h.List)
	app.Get("/files/:id", h.Serve)
}

// Upload saves the posted file through the default storage backend and
// returns a sticky token scoped to this endpoint's path. The token is the
// only thing the client has to carry into the next form step.
func (h *Handler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Missing file in form data"))
	}

	if h.maxSize > 0 && file.Size > h.maxSize {
		msg := fmt.Sprintf("File too large: %d bytes (max %d)", file.Size, h.maxSize)
		return respondError(c, NewAppError("FILE_TOO_LARGE", 413, msg))
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if details := h.policy.Check(file.Filename, file.Size, contentType); len(details) > 0 {
		return respondError(c, ValidationError(details))
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	ds := storage.NewDefaultStorage(h.reg)
	stored, err := ds.Save(file.Filename, src)
	if err != nil {
		return fmt.Errorf("save file: %w", err)
	}

	token, err := sticky.Serialize(h.signer, stored, ds, c.Path())
	if err != nil {
		return fmt.Errorf("serialize upload: %w", err)
	}

	id := uuid.New().String()
	rec := store.UploadRecord{
		ID:          id,
		Filename:    file.Filename,
		StoredName:  stored,
		Storage:     storage.IdentifierFor(ds),
		ContentType: contentType,
		Size:        file.Size,
		TokenScope:  c.Path(),
	}
	if err := h.store.InsertUpload(c.Context(), rec); err != nil {
		return fmt.Errorf("insert _uploads: %w", err)
	}

	return c.Status(201).JSON(fiber.Map{
		"data": fiber.Map{
			"id":          id,
			"filename":    file.Filename,
			"stored_name": stored,
			"size":        file.Size,
			"token":       token,
			"url":         fmt.Sprintf("/files/%s", id),
		},
	})
}

// Restore resolves a sticky token posted from a later form step and streams
// the referenced file back. Every rejection looks the same: a 404, never a
// hint of which check failed.
func (h *Handler) Restore(c *fiber.Ctx) error {
	token := c.FormValue("upload")
	scope := c.FormValue("upload_url")
	if scope == "" {
		scope = DefaultUploadPath
	}

	f := sticky.OpenStoredFile(h.signer, h.reg, token, scope)
	if f == nil {
		return respondError(c, NewAppError("NOT_FOUND", 404, "Upload could not be restored"))
	}

	// No defer Close: the body is streamed after this handler returns, and
	// fasthttp closes the stream itself once it has been sent.
	c.Set("Content-Type", contentTypeFor(f.Name))
	c.Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, f.Name))
	return c.SendStream(f)
}

// Serve streams a recorded upload by id, resolving its backend through the
// registry the same way a token would.
func (h *Handler) Serve(c *fiber.Ctx) error {
	id := c.Params("id")

	rec, err := h.store.GetUpload(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return respondError(c, NewAppError("NOT_FOUND", 404, fmt.Sprintf("File %s not found", id)))
	}
	if err != nil {
		return fmt.Errorf("get _uploads: %w", err)
	}

	backend := h.reg.Lookup(rec.Storage)
	if backend == nil {
		return respondError(c, NewAppError("NOT_FOUND", 404, fmt.Sprintf("File %s not found", id)))
	}

	reader, err := backend.New().Open(rec.StoredName)
	if err != nil {
		return fmt.Errorf("open stored file: %w", err)
	}

	// No defer Close: the body is streamed after this handler returns, and
	// fasthttp closes the stream itself once it has been sent.
	c.Set("Content-Type", rec.ContentType)
	c.Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, rec.Filename))
	return c.SendStream(reader)
}

// List returns all recorded uploads, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	records, err := h.store.ListUploads(c.Context())
	if err != nil {
		return fmt.Errorf("list _uploads: %w", err)
	}
	return c.JSON(fiber.Map{"data": records})
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
