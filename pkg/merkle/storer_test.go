package merkle_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
)

func contents(nodes []*merkle.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Bucket.Content
	}
	return out
}

// storerBehaviour runs the shared Storer contract against newStorer.
func storerBehaviour(newStorer func() merkle.Storer) {
	var (
		storer merkle.Storer
		ctx    context.Context
	)

	put := func(nodes ...*merkle.Node) {
		for _, n := range nodes {
			_, err := storer.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		storer = newStorer()
	})

	AfterEach(func() {
		Expect(storer.Close()).To(Succeed())
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a node with its parent link", func() {
			parent := merkle.NewNode(msg("user", "parent"), nil)
			child := merkle.NewNode(msg("assistant", "child"), parent)
			put(parent, child)

			got, err := storer.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Hash).To(Equal(child.Hash))
			Expect(got.Bucket).To(Equal(child.Bucket))
			Expect(*got.ParentHash).To(Equal(parent.Hash))
			Expect(got.Verify()).To(BeTrue())
		})

		It("round-trips metrics and tool fields", func() {
			b := msg("assistant", "")
			b.ToolCalls = []string{"search_information"}
			b.Metrics = &merkle.Metrics{EvalCount: 3, TotalDurationNs: 42}
			node := merkle.NewNode(b, nil)
			put(node)

			got, err := storer.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Bucket).To(Equal(b))
		})

		It("returns ErrNotFound for an unknown hash", func() {
			_, err := storer.Get(ctx, "nonexistent")
			Expect(err).To(MatchError(merkle.ErrNotFound{Hash: "nonexistent"}))
		})

		It("reports whether a put was new", func() {
			node := merkle.NewNode(msg("user", "test"), nil)

			isNew, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			isNew, err = storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			nodes, _ := storer.List(ctx)
			Expect(nodes).To(HaveLen(1))
		})

		It("rejects nil nodes", func() {
			_, err := storer.Put(ctx, nil)
			Expect(err).To(MatchError(ContainSubstring("nil node")))
		})
	})

	Describe("Has", func() {
		It("reports existence", func() {
			node := merkle.NewNode(msg("user", "test"), nil)
			put(node)

			Expect(storer.Has(ctx, node.Hash)).To(BeTrue())
			Expect(storer.Has(ctx, "nonexistent")).To(BeFalse())
		})
	})

	Describe("traversal", func() {
		var root, child, leaf, branch, root2 *merkle.Node

		BeforeEach(func() {
			root = merkle.NewNode(msg("system", "root"), nil)
			child = merkle.NewNode(msg("user", "child"), root)
			leaf = merkle.NewNode(msg("assistant", "leaf"), child)
			branch = merkle.NewNode(msg("assistant", "branch"), child)
			root2 = merkle.NewNode(msg("system", "root2"), nil)
			put(root, child, leaf, branch, root2)
		})

		It("lists every node in insertion order", func() {
			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(nodes)).To(Equal([]string{"root", "child", "leaf", "branch", "root2"}))
		})

		It("finds children and roots", func() {
			children, err := storer.GetByParent(ctx, &child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(children)).To(ConsistOf("leaf", "branch"))

			roots, err := storer.GetByParent(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(roots)).To(ConsistOf("root", "root2"))

			roots, err = storer.Roots(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(2))
		})

		It("finds leaves", func() {
			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(leaves)).To(ConsistOf("leaf", "branch", "root2"))
		})

		It("walks ancestry newest first", func() {
			a, err := storer.Ancestry(ctx, leaf.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(a)).To(Equal([]string{"leaf", "child", "root"}))

			p, err := merkle.Path(ctx, storer, leaf.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(p)).To(Equal([]string{"root", "child", "leaf"}))
		})

		It("computes depth", func() {
			Expect(storer.Depth(ctx, root.Hash)).To(Equal(0))
			Expect(storer.Depth(ctx, leaf.Hash)).To(Equal(2))

			_, err := storer.Depth(ctx, "missing")
			Expect(err).To(BeAssignableToTypeOf(merkle.ErrNotFound{}))
		})
	})

	Describe("content-addressed deduplication", func() {
		It("stores a shared prefix once and branches on divergent replies", func() {
			sys := merkle.NewNode(msg("system", "be helpful"), nil)
			user := merkle.NewNode(msg("user", "hi"), sys)
			a := merkle.NewNode(msg("assistant", "hello"), user)

			sys2 := merkle.NewNode(msg("system", "be helpful"), nil)
			user2 := merkle.NewNode(msg("user", "hi"), sys2)
			b := merkle.NewNode(msg("assistant", "hey"), user2)

			put(sys, user, a, sys2, user2, b)

			nodes, _ := storer.List(ctx)
			Expect(nodes).To(HaveLen(4))
			leaves, _ := storer.Leaves(ctx)
			Expect(contents(leaves)).To(ConsistOf("hello", "hey"))
		})
	})
}

var _ = Describe("MemoryStorer", func() {
	storerBehaviour(func() merkle.Storer { return merkle.NewMemoryStorer() })
})

var _ = Describe("SQLiteStorer", func() {
	storerBehaviour(func() merkle.Storer {
		s, err := merkle.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates the database file", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")

		s, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("persists nodes across reopen", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "tapes.db")
		ctx := context.Background()
		node := merkle.NewNode(msg("user", "persisted"), nil)

		s, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Put(ctx, node)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())

		s, err = merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		got, err := s.Get(ctx, node.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Bucket.Content).To(Equal("persisted"))
	})
})
