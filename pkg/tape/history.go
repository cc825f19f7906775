package tape

import (
	"context"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
)

// History is a recorded conversation ending at Head.
type History struct {
	Messages []Entry `json:"messages"`
	Head     string  `json:"head_hash"`
	Depth    int     `json:"depth"`
}

// Entry is one recorded message.
type Entry struct {
	Hash       string          `json:"hash"`
	ParentHash *string         `json:"parent_hash,omitempty"`
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	Model      string          `json:"model,omitempty"`
	Pattern    string          `json:"pattern,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCalls  []string        `json:"tool_calls,omitempty"`
	Metrics    *merkle.Metrics `json:"metrics,omitempty"`
}

// Load returns the conversation ending at hash, oldest message first.
func Load(ctx context.Context, s merkle.Storer, hash string) (*History, error) {
	path, err := merkle.Path(ctx, s, hash)
	if err != nil {
		return nil, err
	}

	h := &History{Head: hash, Depth: len(path), Messages: make([]Entry, len(path))}
	for i, n := range path {
		h.Messages[i] = Entry{
			Hash:       n.Hash,
			ParentHash: n.ParentHash,
			Role:       n.Bucket.Role,
			Content:    n.Bucket.Content,
			Model:      n.Bucket.Model,
			Pattern:    n.Bucket.Pattern,
			ToolName:   n.Bucket.ToolName,
			ToolCalls:  n.Bucket.ToolCalls,
			Metrics:    n.Bucket.Metrics,
		}
	}
	return h, nil
}

// All returns one history per leaf. Leaves whose ancestry cannot be loaded
// are returned in skipped.
func All(ctx context.Context, s merkle.Storer) (histories []*History, skipped []string, err error) {
	leaves, err := s.Leaves(ctx)
	if err != nil {
		return nil, nil, err
	}
	histories = make([]*History, 0, len(leaves))
	for _, leaf := range leaves {
		h, err := Load(ctx, s, leaf.Hash)
		if err != nil {
			skipped = append(skipped, leaf.Hash)
			continue
		}
		histories = append(histories, h)
	}
	return histories, skipped, nil
}

// Stats summarises the shape of the DAG.
type Stats struct {
	TotalNodes int `json:"total_nodes"`
	RootCount  int `json:"root_count"`
	LeafCount  int `json:"leaf_count"`
}

func ComputeStats(ctx context.Context, s merkle.Storer) (*Stats, error) {
	nodes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	roots, err := s.Roots(ctx)
	if err != nil {
		return nil, err
	}
	leaves, err := s.Leaves(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalNodes: len(nodes), RootCount: len(roots), LeafCount: len(leaves)}, nil
}
