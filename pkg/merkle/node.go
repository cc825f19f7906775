// Package merkle implements a content-addressed Merkle DAG of conversation
// messages. A node's hash covers its bucket and its parent's hash, so equal
// histories share nodes and divergent replies branch from the common prefix.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Bucket is the hashable payload of a node: one message plus the context it
// was recorded in.
type Bucket struct {
	// Type is "message" for every node written by the recorder.
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`

	// Pattern names the workflow that issued the model call.
	Pattern string `json:"pattern,omitempty"`

	ToolName  string   `json:"tool_name,omitempty"`
	ToolCalls []string `json:"tool_calls,omitempty"`

	// Metrics is only set on response nodes.
	Metrics *Metrics `json:"metrics,omitempty"`
}

// Metrics carries the provider's timing and token counts for a reply.
type Metrics struct {
	TotalDurationNs      int64 `json:"total_duration_ns,omitempty"`
	PromptEvalCount      int   `json:"prompt_eval_count,omitempty"`
	PromptEvalDurationNs int64 `json:"prompt_eval_duration_ns,omitempty"`
	EvalCount            int   `json:"eval_count,omitempty"`
	EvalDurationNs       int64 `json:"eval_duration_ns,omitempty"`
}

// Node is a single content-addressed node in the DAG.
type Node struct {
	// Hash is the SHA-256 of the canonical JSON of {bucket, parent}, hex-encoded.
	Hash string `json:"hash"`

	// ParentHash is nil for root nodes.
	ParentHash *string `json:"parent_hash"`

	Bucket Bucket `json:"bucket"`
}

type hashInput struct {
	Bucket Bucket `json:"bucket"`
	Parent string `json:"parent,omitempty"`
}

// NewNode creates a node with the computed hash for bucket under parent.
func NewNode(bucket Bucket, parent *Node) *Node {
	n := &Node{Bucket: bucket}
	if parent != nil {
		h := parent.Hash
		n.ParentHash = &h
	}
	n.Hash = n.computeHash()
	return n
}

// Verify reports whether the node's hash matches its contents.
func (n *Node) Verify() bool {
	return n.Hash == n.computeHash()
}

func (n *Node) computeHash() string {
	in := hashInput{Bucket: n.Bucket}
	if n.ParentHash != nil {
		in.Parent = *n.ParentHash
	}

	// Bucket has only fixed-order struct fields, so this encoding is canonical.
	data, err := json.Marshal(in)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
