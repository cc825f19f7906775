package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/memory"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
)

// SessionResponse describes a chat session.
type SessionResponse struct {
	ID       string        `json:"id"`
	Messages []llm.Message `json:"messages"`
	Summary  string        `json:"summary"`
}

func (s *Server) session(id string) (*memory.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = memory.NewSession(s.memory)
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session_id", id))
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{ID: id, Messages: []llm.Message{}})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id := c.Params("id")
	sess, ok := s.session(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	}

	st := sess.State()
	if st.Messages == nil {
		st.Messages = []llm.Message{}
	}
	return c.JSON(SessionResponse{ID: id, Messages: st.Messages, Summary: st.Summary})
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	id := c.Params("id")
	sess, ok := s.session(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	}

	input, ok, err := s.decodeInput(c)
	if !ok {
		return err
	}

	reply, err := sess.Send(c.UserContext(), input)
	if err != nil {
		return s.modelFailure(c, memory.Name, err)
	}

	s.logger.Debug("session turn",
		zap.String("session_id", id),
		zap.Bool("summarized", reply.Summarized),
	)
	return c.JSON(reply)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	}
	s.logger.Info("session deleted", zap.String("session_id", id))
	return c.SendStatus(fiber.StatusNoContent)
}
