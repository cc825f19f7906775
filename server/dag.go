package server

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

// PutNodesResponse reports the outcome of POST /dag/nodes.
type PutNodesResponse struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Errors    int `json:"errors"`
}

// HistoriesResponse lists one history per leaf.
type HistoriesResponse struct {
	Count     int             `json:"count"`
	Histories []*tape.History `json:"histories"`
}

func (s *Server) handleDAGStats(c *fiber.Ctx) error {
	stats, err := tape.ComputeStats(c.UserContext(), s.storer)
	if err != nil {
		s.logger.Error("failed to compute stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to compute stats"})
	}
	return c.JSON(stats)
}

func (s *Server) handleGetNode(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	node, err := s.storer.Get(c.UserContext(), hash)
	if err != nil {
		return s.lookupFailure(c, err)
	}
	return c.JSON(node)
}

func (s *Server) handleListHistories(c *fiber.Ctx) error {
	histories, skipped, err := tape.All(c.UserContext(), s.storer)
	if err != nil {
		s.logger.Error("failed to list histories", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}
	for _, hash := range skipped {
		s.logger.Warn("failed to build history for leaf", zap.String("hash", hash))
	}
	return c.JSON(HistoriesResponse{Count: len(histories), Histories: histories})
}

func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	history, err := tape.Load(c.UserContext(), s.storer, hash)
	if err != nil {
		return s.lookupFailure(c, err)
	}
	return c.JSON(history)
}

// handlePutNodes ingests nodes pushed from another store. Nodes whose hash
// does not match their content are counted as errors and skipped.
func (s *Server) handlePutNodes(c *fiber.Ctx) error {
	var nodes []*merkle.Node
	if err := json.Unmarshal(c.Body(), &nodes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	var resp PutNodesResponse
	for _, node := range nodes {
		if node == nil || !node.Verify() {
			resp.Errors++
			continue
		}
		isNew, err := s.storer.Put(c.UserContext(), node)
		if err != nil {
			s.logger.Warn("failed to store pushed node",
				zap.String("hash", logger.Preview(node.Hash, 16)),
				zap.Error(err),
			)
			resp.Errors++
			continue
		}
		if isNew {
			resp.New++
		} else {
			resp.Duplicate++
		}
	}

	s.logger.Info("nodes pushed",
		zap.Int("new", resp.New),
		zap.Int("duplicate", resp.Duplicate),
		zap.Int("errors", resp.Errors),
	)
	return c.JSON(resp)
}

func (s *Server) lookupFailure(c *fiber.Ctx, err error) error {
	var notFound merkle.ErrNotFound
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}
	s.logger.Error("failed to read DAG", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to read DAG"})
}
