package merkle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
)

func msg(role, content string) merkle.Bucket {
	return merkle.Bucket{Type: "message", Role: role, Content: content}
}

var _ = Describe("Node", func() {
	Describe("NewNode", func() {
		Context("when creating a root node", func() {
			It("keeps the bucket and has no parent", func() {
				b := msg("user", "hello world")
				node := merkle.NewNode(b, nil)

				Expect(node.Bucket).To(Equal(b))
				Expect(node.ParentHash).To(BeNil())
			})

			It("produces consistent hashes for the same bucket", func() {
				Expect(merkle.NewNode(msg("user", "same"), nil).Hash).
					To(Equal(merkle.NewNode(msg("user", "same"), nil).Hash))
			})

			It("hashes every bucket field", func() {
				base := merkle.NewNode(msg("user", "x"), nil)

				other := msg("assistant", "x")
				Expect(merkle.NewNode(other, nil).Hash).NotTo(Equal(base.Hash))

				tagged := msg("user", "x")
				tagged.Pattern = "routing"
				Expect(merkle.NewNode(tagged, nil).Hash).NotTo(Equal(base.Hash))
			})
		})

		Context("when creating a child node", func() {
			var parent *merkle.Node

			BeforeEach(func() {
				parent = merkle.NewNode(msg("system", "parent"), nil)
			})

			It("links the child to the parent", func() {
				child := merkle.NewNode(msg("user", "child"), parent)

				Expect(child.ParentHash).NotTo(BeNil())
				Expect(*child.ParentHash).To(Equal(parent.Hash))
			})

			It("does not alias the parent's hash", func() {
				child := merkle.NewNode(msg("user", "child"), parent)
				parent.Hash = "changed"

				Expect(*child.ParentHash).NotTo(Equal("changed"))
			})

			It("produces different hashes under different parents", func() {
				parent2 := merkle.NewNode(msg("system", "other"), nil)

				Expect(merkle.NewNode(msg("user", "same"), parent).Hash).
					NotTo(Equal(merkle.NewNode(msg("user", "same"), parent2).Hash))
			})
		})
	})

	Describe("Hash computation", func() {
		It("produces a SHA-256 hex string", func() {
			Expect(merkle.NewNode(msg("user", "test"), nil).Hash).To(MatchRegexp("^[a-f0-9]{64}$"))
		})

		It("verifies untampered nodes only", func() {
			node := merkle.NewNode(msg("user", "test"), nil)
			Expect(node.Verify()).To(BeTrue())

			node.Bucket.Content = "tampered"
			Expect(node.Verify()).To(BeFalse())
		})
	})
})
