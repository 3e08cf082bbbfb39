package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/storage"
	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

// FileHandler serves the storage tree: GET and HEAD read files and list
// directories, PUT stores files and DELETE removes files or directories.
type FileHandler struct {
	storage ports.Storage
	logger  *slog.Logger
}

func NewFileHandler(store ports.Storage, logger *slog.Logger) *FileHandler {
	return &FileHandler{storage: store, logger: logger}
}

// requestPath returns the decoded request path and its storage key.
func requestPath(c *fiber.Ctx) (string, string, error) {
	raw, err := url.PathUnescape(c.Path())
	if err != nil {
		return "", "", fiber.NewError(fiber.StatusBadRequest, "Bad request path")
	}
	return raw, storage.CleanPath(raw), nil
}

func contentType(key string) string {
	if ext := filepath.Ext(key); ext != "" {
		if mime := utils.GetMIME(ext); mime != "" {
			return mime
		}
	}
	return fiber.MIMEOctetStream
}

// Get handles GET and HEAD.
func (h *FileHandler) Get(c *fiber.Ctx) error {
	raw, key, err := requestPath(c)
	if err != nil {
		return err
	}

	info, err := h.storage.Stat(c.Context(), key)
	if errors.Is(err, ports.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	}
	if err != nil {
		h.logger.Error("stat failed", "path", key, "err", err)
		return fiber.ErrInternalServerError
	}

	if info.IsDir {
		return h.listDirectory(c, raw, key)
	}

	c.Set(fiber.HeaderContentType, contentType(key))
	c.Set(fiber.HeaderLastModified, info.ModTime.UTC().Format(http.TimeFormat))

	if c.Method() == fiber.MethodHead {
		c.Response().Header.SetContentLength(int(info.Size))
		return nil
	}

	rc, info, err := h.storage.Open(c.Context(), key)
	if errors.Is(err, ports.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	}
	if err != nil {
		h.logger.Error("open failed", "path", key, "err", err)
		return fiber.ErrInternalServerError
	}
	return c.SendStream(rc, int(info.Size))
}

func (h *FileHandler) listDirectory(c *fiber.Ctx, raw, key string) error {
	// Relative links in a listing only resolve against a trailing slash.
	if !strings.HasSuffix(raw, "/") {
		location := c.Path() + "/"
		if q := string(c.Request().URI().QueryString()); q != "" {
			location += "?" + q
		}
		return c.Redirect(location, fiber.StatusMovedPermanently)
	}

	files, err := h.storage.List(c.Context(), key)
	if err != nil {
		h.logger.Error("list failed", "path", key, "err", err)
		return fiber.ErrInternalServerError
	}
	body, err := c.App().Config().JSONEncoder(files)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/json; charset=utf-8")
	return c.Send(body)
}

// errBodyTooLarge is returned by limitedBody once the limit is exceeded.
var errBodyTooLarge = errors.New("request body too large")

// limitedBody fails reads that go past n bytes, so an oversized upload is
// abandoned before it replaces anything in storage.
type limitedBody struct {
	r io.Reader
	n int64
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.n < 0 {
		return 0, errBodyTooLarge
	}
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, errBodyTooLarge
	}
	return n, err
}

// Put stores the request body at the request path. Bodies over the app's
// BodyLimit are answered with 413; streamed bodies are not bounded by fiber.
func (h *FileHandler) Put(c *fiber.Ctx) error {
	_, key, err := requestPath(c)
	if err != nil {
		return err
	}
	if key == "" {
		return fiber.ErrMethodNotAllowed
	}

	limit := int64(c.App().Config().BodyLimit)
	if cl := c.Request().Header.ContentLength(); cl > 0 && int64(cl) > limit {
		return fiber.ErrRequestEntityTooLarge
	}

	var body io.Reader = c.Context().RequestBodyStream()
	if body == nil {
		body = bytes.NewReader(c.Body())
	}

	n, err := h.storage.Put(c.Context(), key, &limitedBody{r: body, n: limit})
	if errors.Is(err, errBodyTooLarge) {
		h.logger.Warn("upload over body limit", "path", key, "limit", limit)
		return fiber.ErrRequestEntityTooLarge
	}
	if err != nil {
		if !errors.Is(err, ports.ErrIsDirectory) {
			h.logger.Warn("store failed", "path", key, "err", err)
		}
		return fiber.ErrMethodNotAllowed
	}
	h.logger.Debug("stored", "path", key, "bytes", n)
	return c.SendStatus(fiber.StatusOK)
}

// Delete removes the file or directory tree at the request path.
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	_, key, err := requestPath(c)
	if err != nil {
		return err
	}
	if key == "" {
		return fiber.ErrMethodNotAllowed
	}

	err = h.storage.Delete(c.Context(), key)
	if errors.Is(err, ports.ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		h.logger.Error("delete failed", "path", key, "err", err)
		return fiber.ErrInternalServerError
	}
	h.logger.Debug("deleted", "path", key)
	return c.SendStatus(fiber.StatusOK)
}
