package classifications

import (
	"context"
	"fmt"
	"slices"

	"github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/speechmark/pkg/formatting"
)

const taggingPrompt = `You are a part-of-speech tagger using the Penn Treebank tag set.
Tag every word and punctuation mark of the user's text in order of appearance.
Use "." for sentence punctuation and "O" for anything that is not a word.
Respond with a JSON object of the form:
{"words": [{"word": "The", "label": "DT", "score": 0.98}, ...]}
"word" must be copied exactly from the text. "score" is your confidence between 0 and 1.`

type taggedWord struct {
	Word  string  `json:"word"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type taggingResponse struct {
	Words []taggedWord `json:"words"`
}

// OpenAI classifies text with a chat completion model. The model returns
// words without positions, so each word is located in the text by forward
// search; words that cannot be located are returned without offsets.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI classifier. An empty baseURL targets the
// public API; any OpenAI-compatible endpoint may be supplied instead.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Classify requests tags for text and aligns them to code-point offsets.
func (o *OpenAI) Classify(ctx context.Context, text string) ([]Prediction, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: taggingPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	parsed, err := formatting.Parse[taggingResponse](resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return align(text, parsed.Words), nil
}

// align locates each word in text, searching forward from the end of the
// previous match.
func align(text string, words []taggedWord) []Prediction {
	runes := []rune(text)
	cursor := 0

	preds := make([]Prediction, 0, len(words))
	for _, w := range words {
		p := Prediction{Word: w.Word, Label: w.Label, Score: w.Score}

		needle := []rune(w.Word)
		if len(needle) > 0 {
			if i := indexRunes(runes[cursor:], needle); i >= 0 {
				begin := cursor + i
				end := begin + len(needle)
				p.Offsets = &Offsets{Begin: begin, End: end}
				cursor = end
			}
		}

		preds = append(preds, p)
	}
	return preds
}

func indexRunes(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if slices.Equal(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
