package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type SearchInformationInput struct {
	Query string `json:"query" jsonschema_description:"The topic or question to look up"`
}

var SearchInformationDefinition = Definition{
	Name: "search_information",
	Description: `Provides factual information on a given topic. Use this tool to find answers to questions
like 'What is the capital of France?' or 'What is the weather in London?'.`,
	InputSchema: SearchInformationInputSchema,
	Function:    SearchInformation,
}

var SearchInformationInputSchema = GenerateSchema[SearchInformationInput]()

var simulatedResults = map[string]string{
	"weather in london":   "The weather in London is currently cloudy with a temperature of 15°C.",
	"capital of france":   "The capital of France is Paris.",
	"population of earth": "The estimated population of Earth is around 8 billion people.",
	"tallest mountain":    "Mount Everest is the tallest mountain above sea level.",
}

// Lookup returns the simulated search result for query. Matching is exact
// on the lower-cased query.
func Lookup(query string) string {
	if r, ok := simulatedResults[strings.ToLower(query)]; ok {
		return r
	}
	return fmt.Sprintf("Simulated search result for '%s': No specific information found, but the topic seems interesting.", query)
}

// SearchInformation is the handler for search_information. It logs through
// the global zap logger.
func SearchInformation(_ context.Context, input json.RawMessage) (string, error) {
	in := SearchInformationInput{}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("decoding search_information input: %w", err)
	}

	log := zap.L()
	log.Info("tool called", zap.String("tool", "search_information"), zap.String("query", in.Query))
	result := Lookup(in.Query)
	log.Info("tool result", zap.String("tool", "search_information"), zap.String("result", result))
	return result, nil
}
