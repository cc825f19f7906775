package multiagent_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/multiagent"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/llmtest"
)

var _ = Describe("Team", func() {
	ctx := context.Background()

	It("threads each agent's output into the next", func() {
		fake := llmtest.Replies("notes", "insights", "final")
		team, err := multiagent.New(llm.NewModel(fake, "m"), nil)
		Expect(err).NotTo(HaveOccurred())

		s, err := team.Run(ctx, multiagent.ExampleQuery)
		Expect(err).NotTo(HaveOccurred())
		Expect(*s).To(Equal(multiagent.State{
			Query:         multiagent.ExampleQuery,
			ResearchNotes: "notes",
			Analysis:      "insights",
			FinalAnswer:   "final",
		}))

		reqs := fake.Requests()
		Expect(reqs).To(HaveLen(3))
		Expect(llmtest.SystemPrompt(&reqs[0])).To(ContainSubstring("research agent"))
		Expect(llmtest.LastContent(&reqs[0])).To(Equal(multiagent.ExampleQuery))
		Expect(llmtest.LastContent(&reqs[1])).To(Equal("Research notes:\nnotes"))
		Expect(llmtest.LastContent(&reqs[2])).To(Equal("Question:\n" + multiagent.ExampleQuery + "\n\nAnalysis:\ninsights"))
	})

	It("names the failing agent", func() {
		fake := llmtest.Replies("notes")
		team, err := multiagent.New(llm.NewModel(fake, "m"), nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = team.Run(ctx, "q")
		Expect(errors.Is(err, llmtest.ErrNoReplies)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("node analysis"))
	})
})
