// Package api exposes the parsing pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wealthdesk/stmtparse/internal/common"
	"github.com/wealthdesk/stmtparse/internal/engine"
	"github.com/wealthdesk/stmtparse/internal/model"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// ParseRequest is the JSON body for POST /parse-email.
type ParseRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ParseResponse is the JSON rendering of a ParseResult.
type ParseResponse struct {
	StatementCategory []string         `json:"statement_category"`
	StatementTypes    []string         `json:"statement_types"`
	PANNumbers        []string         `json:"pan_numbers"`
	DICode            []string         `json:"di_code"`
	AccountCode       []string         `json:"account_code"`
	AIFFolio          []string         `json:"aif_folio"`
	FromDate          string           `json:"from_date"`
	ToDate            string           `json:"to_date"`
	Confidence        float64          `json:"confidence"`
	Metadata          ResponseMetadata `json:"metadata"`
	Success           bool             `json:"success"`
	Error             string           `json:"error,omitempty"`
	ProcessedAt       string           `json:"processed_at,omitempty"`
}

// ResponseMetadata mirrors model.Metadata on the wire.
type ResponseMetadata struct {
	RequestID        string  `json:"request_id,omitempty"`
	ParsingMethod    string  `json:"parsing_method,omitempty"`
	DecisionState    string  `json:"decision_state,omitempty"`
	DateSource       string  `json:"date_source,omitempty"`
	MLSkipReason     string  `json:"ml_skip_reason,omitempty"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
	HasIdentifiers   bool    `json:"has_identifiers"`
	MLSkipped        bool    `json:"ml_skipped"`
}

// Server wires the engine into a fiber application.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger
	app    *fiber.App
}

// NewServer builds the HTTP server around an engine.
func NewServer(e *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: e,
		logger: logger,
		app: fiber.New(fiber.Config{
			AppName:               "stmtparse",
			DisableStartupMessage: true,
		}),
	}

	s.app.Post("/parse-email", s.handleParse)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/test", s.handleTest)

	return s
}

// App exposes the fiber application, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleParse(c *fiber.Ctx) error {
	var req ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ParseResponse{
			Success: false,
			Error:   "invalid request body",
		})
	}
	return s.parse(c, req)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "stmtparse",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleTest runs a canned request through the live pipeline, useful for
// smoke-testing a deployment.
func (s *Server) handleTest(c *fiber.Ctx) error {
	return s.parse(c, ParseRequest{
		Subject: "PMS Statement Request",
		Body:    "Send me portfolio statement as on 15-Mar-2024 for PAN ABCDE1234F and DI D0131848",
	})
}

func (s *Server) parse(c *fiber.Ctx, req ParseRequest) error {
	result, err := s.engine.Parse(c.Context(), req.Subject, req.Body)
	if err != nil {
		if errors.Is(err, common.ErrEmptyInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ParseResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		s.logger.Error("parse failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ParseResponse{
			Success: false,
			Error:   "internal server error",
		})
	}

	return c.JSON(toResponse(result))
}

func toResponse(r *model.ParseResult) ParseResponse {
	typeLabels := r.Selection.AllTypes()
	if typeLabels == nil {
		typeLabels = []string{}
	}

	return ParseResponse{
		StatementCategory: r.Selection.Categories(),
		StatementTypes:    typeLabels,
		PANNumbers:        r.Identifiers[model.KindPAN],
		DICode:            r.Identifiers[model.KindDICode],
		AccountCode:       r.Identifiers[model.KindAccountCode],
		AIFFolio:          r.Identifiers[model.KindAIFFolio],
		FromDate:          r.DateRange.From.Format("2006-01-02"),
		ToDate:            r.DateRange.To.Format("2006-01-02"),
		Confidence:        r.Confidence,
		Success:           true,
		ProcessedAt:       r.Metadata.ProcessedAt.Format(time.RFC3339),
		Metadata: ResponseMetadata{
			RequestID:        r.RequestID,
			ParsingMethod:    string(r.Method),
			DecisionState:    r.Metadata.DecisionState,
			DateSource:       r.Metadata.DateSource,
			MLSkipReason:     r.Metadata.MLSkipReason,
			ProcessingTimeMS: float64(r.Metadata.Duration.Microseconds()) / 1000.0,
			HasIdentifiers:   r.Metadata.HasIdentifiers,
			MLSkipped:        r.Metadata.MLSkipped,
		},
	}
}
