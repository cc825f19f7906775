package llm_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/llmtest"
)

var _ = Describe("Model", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("sends a non-streaming request with the model name and options", func() {
		fake := llmtest.Replies("hello")
		m := llm.NewModel(fake, "llama3.2")

		reply, err := m.Invoke(ctx, []llm.Message{llm.UserMessage("hi")})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Role).To(Equal(llm.RoleAssistant))
		Expect(reply.Content).To(Equal("hello"))

		reqs := fake.Requests()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].Model).To(Equal("llama3.2"))
		Expect(reqs[0].Stream).NotTo(BeNil())
		Expect(*reqs[0].Stream).To(BeFalse())
		Expect(*reqs[0].Options.Temperature).To(Equal(0.0))
	})

	It("wraps provider errors with the model name", func() {
		boom := errors.New("boom")
		fake := llmtest.Func(func(*llm.ChatRequest) (llm.Message, error) {
			return llm.Message{}, boom
		})
		m := llm.NewModel(fake, "m")

		_, err := m.Invoke(ctx, nil)
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(ContainSubstring("chat m"))
	})

	It("streams tokens when OnToken is set and the client can stream", func() {
		fake := llmtest.Replies("one two three")
		m := llm.NewModel(fake, "m")
		var got strings.Builder
		m.OnToken = func(s string) { got.WriteString(s) }

		reply, err := m.Invoke(ctx, []llm.Message{llm.UserMessage("count")})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Content).To(Equal("one two three"))
		Expect(got.String()).To(Equal("one two three"))
		Expect(*fake.Requests()[0].Stream).To(BeTrue())
	})

	It("offers tools only on the copy returned by WithTools", func() {
		fake := llmtest.Replies("a", "b")
		m := llm.NewModel(fake, "m")
		withTools := m.WithTools([]llm.Tool{{Type: "function", Function: llm.ToolFunction{Name: "t"}}})

		_, err := withTools.Invoke(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Invoke(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		reqs := fake.Requests()
		Expect(reqs[0].Tools).To(HaveLen(1))
		Expect(reqs[1].Tools).To(BeEmpty())
	})
})

var _ = Describe("APIError", func() {
	It("includes the status and body", func() {
		err := &llm.APIError{StatusCode: 404, Body: "model not found"}
		Expect(err.Error()).To(Equal("upstream returned 404: model not found"))
	})

	It("omits an empty body", func() {
		err := &llm.APIError{StatusCode: 500}
		Expect(err.Error()).To(Equal("upstream returned 500"))
	})
})

var _ = Describe("ToolMessage", func() {
	It("carries the tool name and call id", func() {
		call := llm.ToolCall{ID: "c1", Function: llm.ToolCallFunction{Name: "search_information"}}
		msg := llm.ToolMessage(call, "Paris")
		Expect(msg.Role).To(Equal(llm.RoleTool))
		Expect(msg.ToolName).To(Equal("search_information"))
		Expect(msg.ToolCallID).To(Equal("c1"))
		Expect(msg.Content).To(Equal("Paris"))
	})
})
