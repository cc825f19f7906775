package reflection_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/reflection"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/llmtest"
)

var _ = Describe("Loop", func() {
	ctx := context.Background()

	It("stops as soon as the critic accepts", func() {
		fake := llmtest.Replies("draft 1", "- add a docstring", "draft 2", reflection.StopPhrase)

		res, err := reflection.New(llm.NewModel(fake, "m")).Run(ctx, "do math")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Accepted).To(BeTrue())
		Expect(res.Final).To(Equal("draft 2"))
		Expect(res.Iterations).To(Equal([]reflection.Iteration{
			{Draft: "draft 1", Critique: "- add a docstring"},
			{Draft: "draft 2", Critique: reflection.StopPhrase},
		}))

		reqs := fake.Requests()
		Expect(reqs).To(HaveLen(4))

		// The second draft sees the first draft and the refine request.
		second := reqs[2].Messages
		Expect(second).To(HaveLen(4))
		Expect(second[1]).To(Equal(llm.UserMessage("do math")))
		Expect(second[2]).To(Equal(llm.AssistantMessage("draft 1")))
		Expect(second[3].Content).To(Equal(reflection.RefineMessage("- add a docstring")))

		review := reqs[1]
		Expect(llmtest.SystemPrompt(&review)).To(ContainSubstring(reflection.StopPhrase))
		Expect(llmtest.LastContent(&review)).To(ContainSubstring("Answer to review:\ndraft 1"))
	})

	It("returns the last draft when the budget runs out", func() {
		fake := llmtest.Replies("d1", "c1", "d2", "c2")

		res, err := reflection.New(llm.NewModel(fake, "m"), reflection.WithMaxIterations(2)).Run(ctx, "task")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Accepted).To(BeFalse())
		Expect(res.Final).To(Equal("d2"))
		Expect(res.Iterations).To(HaveLen(2))
	})

	It("can review with a separate critic model", func() {
		producer := llmtest.Replies("draft")
		critic := llmtest.Replies("looks good: " + reflection.StopPhrase)

		res, err := reflection.New(llm.NewModel(producer, "p"),
			reflection.WithCritic(llm.NewModel(critic, "c"))).Run(ctx, "task")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Accepted).To(BeTrue())
		Expect(producer.Calls()).To(Equal(1))
		Expect(critic.Calls()).To(Equal(1))
	})

	It("reports model failures with the iteration", func() {
		boom := errors.New("boom")
		fake := llmtest.Func(func(*llm.ChatRequest) (llm.Message, error) { return llm.Message{}, boom })

		_, err := reflection.New(llm.NewModel(fake, "m")).Run(ctx, "task")
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(HavePrefix("iteration 1: producing draft"))
	})

	It("rejects a zero budget", func() {
		_, err := reflection.New(llm.NewModel(llmtest.Replies(), "m"), reflection.WithMaxIterations(0)).Run(ctx, "task")
		Expect(err).To(HaveOccurred())
	})
})
