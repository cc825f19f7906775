package chain_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/chain"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/llmtest"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/prompt"
)

func upper() chain.Runnable[string, string] {
	return chain.Func[string, string](func(_ context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	})
}

func suffix(sfx string) chain.Runnable[string, string] {
	return chain.Func[string, string](func(_ context.Context, s string) (string, error) {
		return s + sfx, nil
	})
}

func length() chain.Runnable[string, int] {
	return chain.Func[string, int](func(_ context.Context, s string) (int, error) {
		return len(s), nil
	})
}

var _ = Describe("Pipe", func() {
	ctx := context.Background()

	It("feeds each step's output to the next", func() {
		out, err := chain.Pipe3(upper(), suffix("!"), length()).Invoke(ctx, "abc")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(4))
	})

	It("stops at the first failing step", func() {
		boom := errors.New("boom")
		var called bool
		failing := chain.Func[string, string](func(context.Context, string) (string, error) {
			return "", boom
		})
		after := chain.Func[string, string](func(_ context.Context, s string) (string, error) {
			called = true
			return s, nil
		})

		_, err := chain.Pipe[string, string, string](failing, after).Invoke(ctx, "x")
		Expect(err).To(MatchError(boom))
		Expect(called).To(BeFalse())
	})

	It("composes four steps", func() {
		out, err := chain.Pipe4(upper(), suffix("-"), suffix("z"), length()).Invoke(ctx, "ab")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(4))
	})

	It("passes input through unchanged", func() {
		out, err := chain.Passthrough[string]().Invoke(ctx, "same")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("same"))
	})
})

var _ = Describe("Prompt", func() {
	It("formats the template, calls the model and returns the text", func() {
		fake := llmtest.Replies("Paris")
		model := llm.NewModel(fake, "m")
		tmpl := prompt.FromTemplate("What is the capital of {country}?")

		out, err := chain.Prompt(model, tmpl).Invoke(context.Background(), prompt.Values{"country": "France"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Paris"))

		reqs := fake.Requests()
		Expect(reqs).To(HaveLen(1))
		Expect(llmtest.LastContent(&reqs[0])).To(Equal("What is the capital of France?"))
	})

	It("does not call the model when a variable is missing", func() {
		fake := llmtest.Replies("unused")
		model := llm.NewModel(fake, "m")

		_, err := chain.Prompt(model, prompt.FromTemplate("{a}")).Invoke(context.Background(), prompt.Values{})
		var missing *prompt.MissingVariableError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(fake.Calls()).To(Equal(0))
	})
})

var _ = Describe("Parallel", func() {
	ctx := context.Background()

	It("runs every branch on the same input", func() {
		p := chain.Parallel(map[string]chain.Runnable[string, string]{
			"upper": upper(),
			"bang":  suffix("!"),
			"topic": chain.Passthrough[string](),
		})

		out, err := p.Invoke(ctx, "go")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(map[string]string{"upper": "GO", "bang": "go!", "topic": "go"}))
	})

	It("cancels the other branches and names the failing one", func() {
		boom := errors.New("boom")
		var cancelled atomic.Bool
		p := chain.Parallel(map[string]chain.Runnable[string, string]{
			"bad": chain.Func[string, string](func(context.Context, string) (string, error) {
				return "", boom
			}),
			"slow": chain.Func[string, string](func(ctx context.Context, _ string) (string, error) {
				<-ctx.Done()
				cancelled.Store(true)
				return "", ctx.Err()
			}),
		})

		out, err := p.Invoke(ctx, "x")
		Expect(out).To(BeNil())
		Expect(err).To(HaveOccurred())
		Expect(cancelled.Load()).To(BeTrue())
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(HavePrefix("branch bad"))
	})

	It("returns an empty map for no branches", func() {
		out, err := chain.Parallel(map[string]chain.Runnable[string, int]{}).Invoke(ctx, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})
})

var _ = Describe("Branch", func() {
	ctx := context.Background()
	isBook := func(s string) bool { return s == "book" }
	isInfo := func(s string) bool { return s == "info" }

	b := chain.Branch(
		suffix(" (fallback)"),
		chain.When(isBook, suffix(" (booker)")),
		chain.When(isInfo, suffix(" (info)")),
	)

	It("takes the first matching case", func() {
		out, err := b.Invoke(ctx, "info")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("info (info)"))
	})

	It("falls back when nothing matches", func() {
		out, err := b.Invoke(ctx, "???")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("??? (fallback)"))
	})
})

var _ = Describe("Batch", func() {
	It("keeps input order and reports failures per item", func() {
		boom := errors.New("boom")
		var r chain.Runnable[int, int] = chain.Func[int, int](func(_ context.Context, n int) (int, error) {
			if n == 2 {
				return 0, boom
			}
			return n * 10, nil
		})

		results := chain.Batch(context.Background(), r, []int{1, 2, 3}, 0)
		Expect(results).To(HaveLen(3))
		Expect(results[0].Value).To(Equal(10))
		Expect(results[0].Err).NotTo(HaveOccurred())
		Expect(results[1].Err).To(MatchError(boom))
		Expect(results[2].Value).To(Equal(30))
		Expect(results[2].Err).NotTo(HaveOccurred())
	})

	It("never runs more than limit invocations at once", func() {
		var inFlight, peak atomic.Int32
		release := make(chan struct{})
		var r chain.Runnable[int, int] = chain.Func[int, int](func(_ context.Context, n int) (int, error) {
			cur := inFlight.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			<-release
			inFlight.Add(-1)
			return n, nil
		})

		done := make(chan []chain.Result[int])
		go func() { done <- chain.Batch(context.Background(), r, []int{1, 2, 3, 4, 5}, 2) }()

		Eventually(inFlight.Load).Should(Equal(int32(2)))
		Consistently(inFlight.Load, "50ms").Should(Equal(int32(2)))
		close(release)

		var results []chain.Result[int]
		Eventually(done).Should(Receive(&results))
		Expect(results).To(HaveLen(5))
		Expect(peak.Load()).To(Equal(int32(2)))
	})
})
