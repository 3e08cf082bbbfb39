package http

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

// ServerName is sent in the Server header of every response.
const ServerName = "SimpleHTTPFileServer/1.0"

// AccessLogFormat is the common log format used for access lines.
const AccessLogFormat = "${ip} - - [${time}] \"${method} ${url} ${proto}\" ${status} ${bytesSent}\n"

// Options wires the file server application.
type Options struct {
	Storage ports.Storage
	// Authorizer enables access control when set.
	Authorizer ports.Authorizer
	Realm      string
	Logger     *slog.Logger
	// AccessLog receives access lines and, with LogHeaders, request headers.
	AccessLog  io.Writer
	LogHeaders bool
	Threads    int
	BodyLimit  int
}

// NewApp builds the fiber application serving the storage tree.
func NewApp(opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.AccessLog == nil {
		opts.AccessLog = io.Discard
	}
	if opts.Realm == "" {
		opts.Realm = "Test"
	}

	app := fiber.New(fiber.Config{
		ServerHeader:          ServerName,
		AppName:               ServerName,
		BodyLimit:             opts.BodyLimit,
		StreamRequestBody:     true,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:        AccessLogFormat,
		TimeFormat:    "02/Jan/2006 15:04:05",
		Output:        opts.AccessLog,
		DisableColors: true,
		CustomTags: map[string]logger.LogFunc{
			// ${protocol} is the URL scheme; access lines want the HTTP version.
			"proto": func(output logger.Buffer, c *fiber.Ctx, _ *logger.Data, _ string) (int, error) {
				return output.Write(c.Request().Header.Protocol())
			},
		},
	}))
	app.Use(Concurrency(opts.Threads))
	if opts.LogHeaders {
		app.Use(HeaderLogger(opts.AccessLog))
	}
	if opts.Authorizer != nil {
		app.Use(AccessControl(opts.Authorizer, opts.Storage, opts.Realm))
	}

	files := NewFileHandler(opts.Storage, opts.Logger)
	app.Get("/*", files.Get)
	app.Put("/*", files.Put)
	app.Delete("/*", files.Delete)

	return app
}
