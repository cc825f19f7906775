package tooluse_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/tooluse"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/llmtest"
)

var queryFor = map[string]string{
	"What is the capital of France?":     "capital of france",
	"What's the weather like in London?": "weather in london",
	"Tell me something about dogs.":      "dogs",
}

// scripted calls the tool on the first turn of each conversation and
// answers with the tool output on the second.
func scripted(req *llm.ChatRequest) (llm.Message, error) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role == llm.RoleTool {
		return llm.AssistantMessage("Answer: " + last.Content), nil
	}
	q, ok := queryFor[last.Content]
	if !ok {
		return llm.Message{}, errors.New("unscripted query " + last.Content)
	}
	args, _ := json.Marshal(map[string]string{"query": q})
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:       "call-" + q,
			Function: llm.ToolCallFunction{Name: "search_information", Arguments: args},
		}},
	}, nil
}

var _ = Describe("Runner", func() {
	ctx := context.Background()

	It("answers a query through the tool", func() {
		fake := llmtest.Func(scripted)
		res, err := tooluse.New(llm.NewModel(fake, "m"), nil, nil).Run(ctx, "What is the capital of France?")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Answer).To(Equal("Answer: The capital of France is Paris."))

		reqs := fake.Requests()
		Expect(llmtest.SystemPrompt(&reqs[0])).To(Equal(tooluse.SystemPrompt))
		Expect(reqs[0].Tools).To(HaveLen(1))
	})

	It("runs all queries and keeps their order", func() {
		fake := llmtest.Func(scripted)
		outcomes := tooluse.New(llm.NewModel(fake, "m"), nil, nil).RunAll(ctx, tooluse.ExampleQueries)

		Expect(outcomes).To(HaveLen(3))
		for i, o := range outcomes {
			Expect(o.Err).NotTo(HaveOccurred())
			Expect(o.Query).To(Equal(tooluse.ExampleQueries[i]))
			Expect(o.ToolCalls).To(Equal(1))
		}
		Expect(outcomes[1].Answer).To(ContainSubstring("cloudy"))
		Expect(outcomes[2].Answer).To(ContainSubstring("No specific information found"))
		Expect(fake.Calls()).To(Equal(6))
	})

	It("reports a failing query without aborting the others", func() {
		fake := llmtest.Func(func(req *llm.ChatRequest) (llm.Message, error) {
			if strings.Contains(req.Messages[1].Content, "dogs") {
				return llm.Message{}, errors.New("model down")
			}
			return scripted(req)
		})

		outcomes := tooluse.New(llm.NewModel(fake, "m"), nil, nil).RunAll(ctx, tooluse.ExampleQueries)
		Expect(outcomes[0].Err).NotTo(HaveOccurred())
		Expect(outcomes[1].Err).NotTo(HaveOccurred())
		Expect(outcomes[2].Err).To(MatchError(ContainSubstring("model down")))
		Expect(outcomes[2].Answer).To(BeEmpty())
	})
})
