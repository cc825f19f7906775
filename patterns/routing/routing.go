// Package routing classifies a request with the model and delegates it to
// one of three handlers.
package routing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/chain"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/prompt"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

const Name = "routing"

// Route is a handler name the router may choose.
type Route string

const (
	Booker  Route = "booker"
	Info    Route = "info"
	Unclear Route = "unclear"
)

// ExampleRequests are run when no request is given: a booking, a
// factual question and noise.
var ExampleRequests = []string{
	"I want to book a room in Da Nang",
	"What is the capital of France?",
	"dfvscdscsdc",
}

var routerPrompt = prompt.FromMessages(
	prompt.System(`Analyze the request and return ONLY one word:
- 'booker' if it is about booking rooms, flight tickets or hotels.
- 'info' if it is a general knowledge or information question.
- 'unclear' if it is neither of the above.
Return exactly one word, with no explanation.`),
	prompt.Human("{request}"),
)

// ParseRoute maps the model's raw reply to a Route. Anything other than an
// exact booker or info, after trimming quotes, punctuation and case, is
// Unclear.
func ParseRoute(raw string) Route {
	word := strings.ToLower(strings.Trim(strings.TrimSpace(raw), " \t\r\n\"'`.,!?:;*"))
	switch Route(word) {
	case Booker:
		return Booker
	case Info:
		return Info
	default:
		return Unclear
	}
}

// Decision is the outcome of routing one request.
type Decision struct {
	Route    Route  `json:"route"`
	Raw      string `json:"raw"`
	Response string `json:"response"`
}

type routed struct {
	request string
	raw     string
	route   Route
}

// Coordinator runs the router and the branch.
type Coordinator struct {
	router chain.Runnable[prompt.Values, string]
	branch chain.Runnable[routed, string]
	logger *zap.Logger
}

func New(model *llm.Model, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{router: chain.Prompt(model, routerPrompt), logger: logger}
	c.branch = chain.Branch(
		c.handler(Unclear, "I am not sure how to handle the request: '%s'. Please clarify."),
		chain.When(is(Booker), c.handler(Booker, "Booking system received request: '%s'")),
		chain.When(is(Info), c.handler(Info, "Information system answering: '%s'")),
	)
	return c
}

func is(r Route) func(routed) bool {
	return func(in routed) bool { return in.route == r }
}

func (c *Coordinator) handler(r Route, format string) chain.Runnable[routed, string] {
	return chain.Func[routed, string](func(_ context.Context, in routed) (string, error) {
		c.logger.Info("routing request", zap.String("route", string(r)))
		return fmt.Sprintf(format, in.request), nil
	})
}

// Route classifies req and returns the chosen handler's response.
func (c *Coordinator) Route(ctx context.Context, req string) (*Decision, error) {
	ctx = tape.WithPattern(ctx, Name)

	raw, err := c.router.Invoke(ctx, prompt.Values{"request": req})
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	in := routed{request: req, raw: raw, route: ParseRoute(raw)}

	resp, err := c.branch.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Decision{Route: in.route, Raw: raw, Response: resp}, nil
}
