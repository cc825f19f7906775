package pushcmder_test

import (
	"bytes"
	"context"
	"net"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	pushcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/push"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/llmtest"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
	"github.com/ncminhbka/Agentic-Design-Patterns/server"
)

var _ = Describe("Push Command", func() {
	var (
		ctx       context.Context
		localPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		localPath = filepath.Join(GinkgoT().TempDir(), "local.db")
	})

	makeNode := func(role, text string, parent *merkle.Node) *merkle.Node {
		return merkle.NewNode(merkle.Bucket{
			Type:    "message",
			Role:    role,
			Content: text,
			Model:   "test-model",
		}, parent)
	}

	seed := func(nodes ...*merkle.Node) {
		local, err := merkle.NewSQLiteStorer(localPath)
		Expect(err).NotTo(HaveOccurred())
		defer local.Close()
		for _, n := range nodes {
			_, err := local.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	startServer := func() (string, *merkle.MemoryStorer, func()) {
		serverStorer := merkle.NewMemoryStorer()

		srv, err := server.New(server.Config{ListenAddr: ":0", SummarizeAfter: 2},
			llm.NewModel(llmtest.Replies(), "test-model"), serverStorer, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.Serve(listener)
		}()

		addr := "http://" + listener.Addr().String()
		cleanup := func() {
			_ = srv.Shutdown()
		}
		return addr, serverStorer, cleanup
	}

	push := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := pushcmder.NewPushCmd(&cmdenv.Flags{})
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("pushes local nodes to a remote server", func() {
		nodeA := makeNode("user", "hello from push test", nil)
		seed(nodeA, makeNode("assistant", "hi back from push test", nodeA))

		addr, serverStorer, cleanup := startServer()
		defer cleanup()

		out, err := push("--sqlite", localPath, addr)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Pushed 2 new nodes (0 already existed, 0 errors)"))

		nodes, err := serverStorer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
	})

	It("deduplicates on double push", func() {
		seed(makeNode("user", "dedup push test", nil))

		addr, serverStorer, cleanup := startServer()
		defer cleanup()

		_, err := push("--sqlite", localPath, addr)
		Expect(err).NotTo(HaveOccurred())
		out, err := push("--sqlite", localPath, addr)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Pushed 0 new nodes (1 already existed, 0 errors)"))

		nodes, err := serverStorer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(1))
	})

	It("pushes in batches", func() {
		nodeA := makeNode("user", "one", nil)
		nodeB := makeNode("assistant", "two", nodeA)
		seed(nodeA, nodeB, makeNode("user", "three", nodeB))

		addr, serverStorer, cleanup := startServer()
		defer cleanup()

		_, err := push("--sqlite", localPath, "--batch-size", "1", addr)
		Expect(err).NotTo(HaveOccurred())

		nodes, err := serverStorer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(3))
	})

	It("reports an empty database", func() {
		seed()
		out, err := push("--sqlite", localPath, "http://127.0.0.1:1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No local nodes to push."))
	})

	It("fails when the server is unreachable", func() {
		seed(makeNode("user", "unreachable", nil))
		_, err := push("--sqlite", localPath, "http://127.0.0.1:1")
		Expect(err).To(MatchError(ContainSubstring("push failed on batch 0-0")))
	})
})
