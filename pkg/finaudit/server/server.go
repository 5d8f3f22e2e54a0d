// Package server exposes verification over HTTP.
package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// Version is reported by the health endpoint.
var Version = "dev"

// MaxBodySize bounds request bodies.
const MaxBodySize = 32 << 20

// VerifyRequest is the body of POST /api/verify.
type VerifyRequest struct {
	Tables  []models.RawTable `json:"tables"`
	Options *RequestOptions   `json:"options,omitempty"`
}

// RequestOptions overrides the server's options for one request. Decimal
// values may be sent as JSON numbers or strings.
type RequestOptions struct {
	TotalKeywords      []string                   `json:"total_keywords,omitempty"`
	Tolerance          *decimal.Decimal           `json:"tolerance,omitempty"`
	ExcessiveSignRatio *decimal.Decimal           `json:"excessive_sign_ratio,omitempty"`
	SparseColumnRatio  *decimal.Decimal           `json:"sparse_column_ratio,omitempty"`
	Tables             map[string]TableThresholds `json:"tables,omitempty"`
}

// TableThresholds overrides thresholds for one table.
type TableThresholds struct {
	Tolerance          *decimal.Decimal `json:"tolerance,omitempty"`
	ExcessiveSignRatio *decimal.Decimal `json:"excessive_sign_ratio,omitempty"`
	SparseColumnRatio  *decimal.Decimal `json:"sparse_column_ratio,omitempty"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Option string `json:"option,omitempty"`
}

// Server serves verification requests with a base set of options.
type Server struct {
	opts   finaudit.Options
	logger *slog.Logger
}

// New returns a Server. A nil logger discards request logs.
func New(opts finaudit.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{opts: opts, logger: logger}
}

// App builds the fiber application serving the API routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "finaudit",
		BodyLimit:             MaxBodySize,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the API routes on router.
func (s *Server) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api")
	api.Get("/health", s.HandleHealth)
	api.Post("/verify", s.HandleVerify)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
	})
}

// HandleVerify verifies the posted tables and returns the report.
func (s *Server) HandleVerify(c *fiber.Ctx) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if len(req.Tables) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no tables given")
	}

	opts := s.requestOptions(req.Options)
	report, err := finaudit.Verify(c.UserContext(), req.Tables, opts)
	if err != nil {
		var cfgErr *finaudit.ConfigError
		if errors.As(err, &cfgErr) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: cfgErr.Error(), Option: cfgErr.Option})
		}
		return err
	}

	s.logger.Info("verified",
		slog.Int("tables", len(req.Tables)),
		slog.Int("findings", len(report.Findings)),
		slog.Int("errors", len(report.Errors)),
	)
	return c.JSON(report)
}

// requestOptions layers per-request overrides onto the server options.
func (s *Server) requestOptions(ro *RequestOptions) finaudit.Options {
	opts := s.opts
	opts.Logger = nil
	if ro == nil {
		return opts
	}

	if ro.TotalKeywords != nil {
		opts.TotalKeywords = ro.TotalKeywords
	}
	if ro.Tolerance != nil {
		opts.Thresholds.Tolerance = *ro.Tolerance
	}
	if ro.ExcessiveSignRatio != nil {
		opts.Thresholds.ExcessiveSignRatio = *ro.ExcessiveSignRatio
	}
	if ro.SparseColumnRatio != nil {
		opts.Thresholds.SparseColumnRatio = *ro.SparseColumnRatio
	}
	if len(ro.Tables) > 0 {
		merged := make(map[string]finaudit.ThresholdOverride, len(s.opts.TableThresholds)+len(ro.Tables))
		for name, ov := range s.opts.TableThresholds {
			merged[name] = ov
		}
		for name, t := range ro.Tables {
			merged[name] = finaudit.ThresholdOverride{
				Tolerance:          t.Tolerance,
				ExcessiveSignRatio: t.ExcessiveSignRatio,
				SparseColumnRatio:  t.SparseColumnRatio,
			}
		}
		opts.TableThresholds = merged
	}
	return opts
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}
