package mergecmder_test

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	mergecmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/merge"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
)

var _ = Describe("Merge Command", func() {
	var (
		ctx     context.Context
		tmpDir  string
		srcPath string
		dstPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()
		srcPath = filepath.Join(tmpDir, "source.db")
		dstPath = filepath.Join(tmpDir, "target.db")
	})

	makeNode := func(role, text string, parent *merkle.Node) *merkle.Node {
		return merkle.NewNode(merkle.Bucket{
			Type:    "message",
			Role:    role,
			Content: text,
			Model:   "test-model",
		}, parent)
	}

	seed := func(path string, nodes ...*merkle.Node) {
		s, err := merkle.NewSQLiteStorer(path)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		for _, n := range nodes {
			_, err := s.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	count := func(path string) int {
		s, err := merkle.NewSQLiteStorer(path)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		nodes, err := s.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		return len(nodes)
	}

	merge := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := mergecmder.NewMergeCmd(&cmdenv.Flags{})
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("merges nodes from source into target", func() {
		nodeA := makeNode("user", "hello from source", nil)
		seed(srcPath, nodeA, makeNode("assistant", "hi back", nodeA))
		seed(dstPath, makeNode("user", "hello from target", nil))

		out, err := merge("--sqlite", dstPath, srcPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("2 new, 0 already existed"))
		Expect(count(dstPath)).To(Equal(3))
	})

	It("deduplicates when merging the same source twice", func() {
		seed(srcPath, makeNode("user", "dedup test", nil))

		_, err := merge("--sqlite", dstPath, srcPath)
		Expect(err).NotTo(HaveOccurred())
		out, err := merge("--sqlite", dstPath, srcPath)
		Expect(err).NotTo(HaveOccurred())

		Expect(out).To(ContainSubstring("Merged 0 new nodes from 1 sources (1 already existed)"))
		Expect(count(dstPath)).To(Equal(1))
	})

	It("merges multiple sources", func() {
		src2Path := filepath.Join(tmpDir, "source2.db")
		seed(srcPath, makeNode("user", "from source 1", nil))
		seed(src2Path, makeNode("user", "from source 2", nil))

		_, err := merge("--sqlite", dstPath, srcPath, src2Path)
		Expect(err).NotTo(HaveOccurred())
		Expect(count(dstPath)).To(Equal(2))
	})

	It("requires at least one source", func() {
		_, err := merge("--sqlite", dstPath)
		Expect(err).To(HaveOccurred())
	})
})
