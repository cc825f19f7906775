package parallel_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/parallel"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/llmtest"
)

// byInstruction answers according to the system prompt, so the reply does
// not depend on which branch reaches the model first.
func byInstruction(req *llm.ChatRequest) (llm.Message, error) {
	system := llmtest.SystemPrompt(req)
	switch {
	case strings.HasPrefix(system, "Summarize"):
		return llm.AssistantMessage("a summary"), nil
	case strings.HasPrefix(system, "Generate three"):
		return llm.AssistantMessage("q1? q2? q3?"), nil
	case strings.HasPrefix(system, "Identify"):
		return llm.AssistantMessage("rocket, orbit, moon"), nil
	case strings.HasPrefix(system, "Based on"):
		return llm.AssistantMessage("synthesis"), nil
	}
	return llm.Message{}, errors.New("unexpected prompt: " + system)
}

var _ = Describe("Chain", func() {
	ctx := context.Background()

	It("runs the three branches and synthesises their outputs", func() {
		fake := llmtest.Func(byInstruction)

		res, err := parallel.New(llm.NewModel(fake, "m")).Run(ctx, parallel.ExampleTopic)
		Expect(err).NotTo(HaveOccurred())
		Expect(*res).To(Equal(parallel.Result{
			Summary:   "a summary",
			Questions: "q1? q2? q3?",
			KeyTerms:  "rocket, orbit, moon",
			Answer:    "synthesis",
		}))

		reqs := fake.Requests()
		Expect(reqs).To(HaveLen(4))
		last := reqs[3]
		Expect(llmtest.SystemPrompt(&last)).To(ContainSubstring("Summary: a summary"))
		Expect(llmtest.SystemPrompt(&last)).To(ContainSubstring("Key Terms: rocket, orbit, moon"))
		Expect(llmtest.LastContent(&last)).To(Equal("Original topic: " + parallel.ExampleTopic))
	})

	It("issues the branch calls concurrently", func() {
		var (
			mu      sync.Mutex
			waiting int
		)
		release := make(chan struct{})
		fake := llmtest.Func(func(req *llm.ChatRequest) (llm.Message, error) {
			if !strings.HasPrefix(llmtest.SystemPrompt(req), "Based on") {
				mu.Lock()
				waiting++
				if waiting == 3 {
					close(release)
				}
				mu.Unlock()
				<-release
			}
			return byInstruction(req)
		})

		_, err := parallel.New(llm.NewModel(fake, "m")).Run(ctx, "topic")
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails without synthesis when a branch fails", func() {
		fake := llmtest.Func(func(req *llm.ChatRequest) (llm.Message, error) {
			if strings.HasPrefix(llmtest.SystemPrompt(req), "Identify") {
				return llm.Message{}, errors.New("model down")
			}
			return byInstruction(req)
		})

		_, err := parallel.New(llm.NewModel(fake, "m")).Run(ctx, "topic")
		Expect(err).To(MatchError(ContainSubstring("branch key_terms")))
		for _, r := range fake.Requests() {
			Expect(llmtest.SystemPrompt(&r)).NotTo(HavePrefix("Based on"))
		}
	})
})
