package merkle

import "context"

// Storer persists and traverses the DAG. Put is idempotent: storing a node
// whose hash already exists is a no-op.
type Storer interface {
	// Put stores a node and reports whether it was new.
	Put(ctx context.Context, node *Node) (bool, error)

	// Get returns ErrNotFound if the node doesn't exist.
	Get(ctx context.Context, hash string) (*Node, error)

	Has(ctx context.Context, hash string) (bool, error)

	// GetByParent returns the children of parentHash, or the roots when it is nil.
	GetByParent(ctx context.Context, parentHash *string) ([]*Node, error)

	// List returns every node in insertion order.
	List(ctx context.Context) ([]*Node, error)

	Roots(ctx context.Context) ([]*Node, error)

	// Leaves returns nodes with no children.
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	// Depth is 0 for roots.
	Depth(ctx context.Context, hash string) (int, error)

	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "node not found"
	}

	return "node not found: " + e.Hash
}

// Path returns the path from root to hash (root first).
func Path(ctx context.Context, s Storer, hash string) ([]*Node, error) {
	ancestry, err := s.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(ancestry)-1; i < j; i, j = i+1, j-1 {
		ancestry[i], ancestry[j] = ancestry[j], ancestry[i]
	}
	return ancestry, nil
}

// walkAncestry follows parent links from hash using get.
func walkAncestry(ctx context.Context, hash string, get func(context.Context, string) (*Node, error)) ([]*Node, error) {
	var out []*Node
	current := hash
	for {
		node, err := get(ctx, current)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
		if node.ParentHash == nil {
			return out, nil
		}
		current = *node.ParentHash
	}
}
