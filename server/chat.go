package server

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
)

// handleChat serves an Ollama-compatible /api/chat on top of the configured
// provider. Requests go through the same recorded client the patterns use, so
// raw chat traffic lands in the DAG too.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "messages are required"})
	}
	if req.Model == "" {
		req.Model = s.model.Name
	}
	if req.Options == nil {
		req.Options = s.model.Options
	}

	// Ollama defaults to streaming
	streaming := req.Stream == nil || *req.Stream

	s.logger.Debug("received chat request",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Bool("stream", streaming),
	)

	streamer, ok := s.model.Client.(llm.Streamer)
	if !streaming || !ok {
		return s.handleNonStreamingChat(c, &req, startTime)
	}
	return s.handleStreamingChat(c, streamer, &req, startTime)
}

func (s *Server) handleNonStreamingChat(c *fiber.Ctx, req *llm.ChatRequest, startTime time.Time) error {
	stream := false
	req.Stream = &stream

	resp, err := s.model.Client.Chat(c.UserContext(), req)
	if err != nil {
		s.logger.Error("chat request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	s.logger.Debug("received response from upstream",
		zap.String("model", resp.Model),
		zap.String("content_preview", logger.Preview(resp.Message.Content, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return c.JSON(resp)
}

func (s *Server) handleStreamingChat(c *fiber.Ctx, streamer llm.Streamer, req *llm.ChatRequest, startTime time.Time) error {
	c.Set("Content-Type", "application/x-ndjson")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		writeLine := func(v any) error {
			line, err := json.Marshal(v)
			if err != nil {
				return err
			}
			w.Write(line)
			w.WriteByte('\n')
			return w.Flush()
		}

		sawDone := false
		resp, err := streamer.ChatStream(context.Background(), req, func(chunk llm.StreamChunk) error {
			sawDone = sawDone || chunk.Done
			return writeLine(chunk)
		})
		if err != nil {
			s.logger.Error("error streaming chat", zap.Error(err))
			_ = writeLine(llm.ErrorResponse{Error: "upstream request failed"})
			return
		}

		// Providers that only deliver content chunks still end the stream
		// with a done chunk carrying the metrics.
		if !sawDone {
			_ = writeLine(llm.StreamChunk{
				Model:              resp.Model,
				CreatedAt:          resp.CreatedAt,
				Message:            llm.Message{Role: llm.RoleAssistant},
				Done:               true,
				DoneReason:         resp.DoneReason,
				TotalDuration:      resp.TotalDuration,
				LoadDuration:       resp.LoadDuration,
				PromptEvalCount:    resp.PromptEvalCount,
				PromptEvalDuration: resp.PromptEvalDuration,
				EvalCount:          resp.EvalCount,
				EvalDuration:       resp.EvalDuration,
			})
		}

		s.logger.Debug("streaming complete",
			zap.String("full_content_preview", logger.Preview(resp.Message.Content, 200)),
			zap.Duration("duration", time.Since(startTime)),
		)
	}))

	return nil
}
