// Package server exposes the agentic patterns, chat sessions and the recorded
// trace DAG over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/chaining"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/memory"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/multiagent"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/parallel"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/reflection"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/routing"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/tooluse"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

// Server is the fiber app serving pattern runs. Pattern handlers are
// stateless; chat sessions live in memory for the life of the process.
type Server struct {
	config Config
	model  *llm.Model
	storer merkle.Storer
	owned  bool
	logger *zap.Logger
	app    *fiber.App

	chaining   *chaining.Chain
	routing    *routing.Coordinator
	parallel   *parallel.Chain
	reflection *reflection.Loop
	tooluse    *tooluse.Runner
	team       *multiagent.Team
	memory     *memory.Memory

	mu       sync.Mutex
	sessions map[string]*memory.Session
}

// New creates a Server. When storer is nil model calls are recorded into an
// in-memory DAG owned by the server.
func New(config Config, model *llm.Model, storer merkle.Storer, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		config:   config,
		storer:   storer,
		logger:   log,
		sessions: make(map[string]*memory.Session),
	}
	if s.storer == nil {
		s.storer = merkle.NewMemoryStorer()
		s.owned = true

		recorded := *model
		recorded.Client = tape.NewRecorder(model.Client, s.storer, log)
		model = &recorded
		log.Info("using in-memory storage")
	}
	s.model = model

	mem, err := memory.New(model,
		memory.WithSummarizeAfter(config.SummarizeAfter),
		memory.WithKeepLast(config.KeepLast),
		memory.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("memory pattern: %w", err)
	}
	team, err := multiagent.New(model, log)
	if err != nil {
		return nil, fmt.Errorf("multi-agent pattern: %w", err)
	}

	s.chaining = chaining.New(model)
	s.routing = routing.New(model, log)
	s.parallel = parallel.New(model)
	s.reflection = reflection.New(model, reflection.WithLogger(log))
	s.tooluse = tooluse.New(model, nil, log)
	s.team = team
	s.memory = mem

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StreamRequestBody:     true,
	})
	s.app = app

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Post("/api/chat", s.handleChat)

	v1 := app.Group("/v1")
	v1.Post("/chain", s.pattern(chaining.Name, s.runChain))
	v1.Post("/route", s.pattern(routing.Name, s.runRoute))
	v1.Post("/parallel", s.pattern(parallel.Name, s.runParallel))
	v1.Post("/reflect", s.pattern(reflection.Name, s.runReflect))
	v1.Post("/agent", s.pattern(tooluse.Name, s.runAgent))
	v1.Post("/team", s.pattern(multiagent.Name, s.runTeam))

	v1.Post("/sessions", s.handleCreateSession)
	v1.Get("/sessions/:id", s.handleGetSession)
	v1.Post("/sessions/:id/messages", s.handleSendMessage)
	v1.Delete("/sessions/:id", s.handleDeleteSession)

	app.Get("/dag/stats", s.handleDAGStats)
	app.Get("/dag/node/:hash", s.handleGetNode)
	app.Get("/dag/history", s.handleListHistories)
	app.Get("/dag/history/:hash", s.handleGetHistory)
	app.Post("/dag/nodes", s.handlePutNodes)

	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Run starts the server on the configured listen address and blocks until
// ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddr, err)
	}

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		if err := s.Shutdown(); err != nil {
			return err
		}
		return <-errc
	}
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting server",
		zap.String("listen", ln.Addr().String()),
		zap.String("model", s.model.Name),
	)
	return s.app.Listener(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// Close releases the DAG if the server created it.
func (s *Server) Close() error {
	if !s.owned {
		return nil
	}
	return s.storer.Close()
}

// InputRequest is the body of every pattern endpoint.
type InputRequest struct {
	Input string `json:"input"`
}

// decodeInput parses an InputRequest, writing a 400 on failure.
func (s *Server) decodeInput(c *fiber.Ctx) (string, bool, error) {
	var req InputRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Debug("failed to parse request", zap.Error(err))
		return "", false, c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Input) == "" {
		return "", false, c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "input is required"})
	}
	return req.Input, true, nil
}

// modelFailure writes a 502 for an error raised while running a pattern.
func (s *Server) modelFailure(c *fiber.Ctx, name string, err error) error {
	s.logger.Error("pattern failed", zap.String("pattern", name), zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: err.Error()})
}

func (s *Server) pattern(name string, run func(ctx context.Context, input string) (any, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, ok, err := s.decodeInput(c)
		if !ok {
			return err
		}

		start := time.Now()
		s.logger.Debug("running pattern",
			zap.String("pattern", name),
			zap.String("input_preview", logger.Preview(input, 100)),
		)

		out, err := run(c.UserContext(), input)
		if err != nil {
			return s.modelFailure(c, name, err)
		}

		s.logger.Info("pattern completed",
			zap.String("pattern", name),
			zap.Duration("duration", time.Since(start)),
		)
		return c.JSON(out)
	}
}
