package server

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/calyptra/fnchat/internal/resource"
	"github.com/calyptra/fnchat/internal/tools"
)

// Server exposes tool discovery and resource redemption over HTTP.
// Binary tool results live behind resource locators; browsers and
// other clients fetch the bytes here.
type Server struct {
	app      *fiber.App
	registry *tools.Registry
	store    *resource.Store
	logger   *zap.Logger
}

func New(registry *tools.Registry, store *resource.Store, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:      app,
		registry: registry,
		store:    store,
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/api/functions", s.handleFunctions)
	s.app.Get("/resources/:id", s.handleResource)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleFunctions returns the tool specifications in the shape sent
// to the model.
func (s *Server) handleFunctions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"tools": s.registry.Specs(),
	})
}

func (s *Server) handleResource(c *fiber.Ctx) error {
	id := c.Params("id")
	data, contentType, err := s.store.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "resource not found",
		})
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("resource server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
