package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/ollama"
)

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		received llm.ChatRequest
		handler  http.HandlerFunc
	)

	BeforeEach(func() {
		ctx = context.Background()
		received = llm.ChatRequest{}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &received)).To(Succeed())
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Chat", func() {
		It("posts a non-streaming request and decodes the reply", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"Paris"},"done":true,"eval_count":3}`)
			}

			c := ollama.New(server.URL + "/")
			resp, err := c.Chat(ctx, &llm.ChatRequest{
				Model:    "llama3.2",
				Messages: []llm.Message{llm.UserMessage("capital of France?")},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message.Content).To(Equal("Paris"))
			Expect(resp.EvalCount).To(Equal(3))

			Expect(received.Model).To(Equal("llama3.2"))
			Expect(received.Stream).NotTo(BeNil())
			Expect(*received.Stream).To(BeFalse())
			Expect(received.Messages).To(HaveLen(1))
		})

		It("passes tool call arguments through as raw JSON", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"search_information","arguments":{"query":"capital of france"}}}]},"done":true}`)
			}

			resp, err := ollama.New(server.URL).Chat(ctx, &llm.ChatRequest{Model: "m"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message.ToolCalls).To(HaveLen(1))
			Expect(resp.Message.ToolCalls[0].Function.Name).To(Equal("search_information"))
			Expect(string(resp.Message.ToolCalls[0].Function.Arguments)).To(MatchJSON(`{"query":"capital of france"}`))
		})

		It("returns an APIError with Ollama's error text on non-200", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":"model 'nope' not found"}`)
			}

			_, err := ollama.New(server.URL).Chat(ctx, &llm.ChatRequest{Model: "nope"})
			var apiErr *llm.APIError
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			apiErr = err.(*llm.APIError)
			Expect(apiErr.StatusCode).To(Equal(http.StatusNotFound))
			Expect(apiErr.Body).To(Equal("model 'nope' not found"))
		})

		It("does not mutate the caller's request", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"ok"},"done":true}`)
			}
			req := &llm.ChatRequest{Model: "m"}
			_, err := ollama.New(server.URL).Chat(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Stream).To(BeNil())
		})
	})

	Describe("ChatStream", func() {
		It("delivers every chunk and accumulates the content", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/x-ndjson")
				_, _ = io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":"Hel"},"done":false}`+"\n")
				_, _ = io.WriteString(w, "\n")
				_, _ = io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":"lo"},"done":false}`+"\n")
				_, _ = io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":""},"done":true,"eval_count":2}`+"\n")
			}

			var chunks []string
			resp, err := ollama.New(server.URL).ChatStream(ctx, &llm.ChatRequest{Model: "m"}, func(c llm.StreamChunk) error {
				chunks = append(chunks, c.Message.Content)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*received.Stream).To(BeTrue())
			Expect(chunks).To(Equal([]string{"Hel", "lo", ""}))
			Expect(resp.Message.Content).To(Equal("Hello"))
			Expect(resp.Message.Role).To(Equal(llm.RoleAssistant))
			Expect(resp.EvalCount).To(Equal(2))
			Expect(resp.Done).To(BeTrue())
		})

		It("fails when the stream ends without a done chunk", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`+"\n")
			}

			_, err := ollama.New(server.URL).ChatStream(ctx, &llm.ChatRequest{Model: "m"}, func(llm.StreamChunk) error { return nil })
			Expect(err).To(MatchError(llm.ErrEmptyResponse))
		})
	})
})
