package llm

import (
	"unicode/utf8"

	"github.com/Egham-7/pitchside/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter estimates prompt sizes for providers that do not report
// usage. Encodings are loaded once per model.
type TokenCounter struct {
	encodings *clientcache.Cache[*tiktoken.Tiktoken]
}

func NewTokenCounter() *TokenCounter {
	return &TokenCounter{encodings: clientcache.NewCache[*tiktoken.Tiktoken]()}
}

// Count returns the token count of text for model. When no encoding can be
// loaded it falls back to one token per four runes.
func (t *TokenCounter) Count(model, text string) int64 {
	if text == "" {
		return 0
	}
	enc, err := t.encodings.GetOrCreate(model, func() (*tiktoken.Tiktoken, error) {
		enc, err := tiktoken.EncodingForModel(model)
		if err == nil {
			return enc, nil
		}
		return tiktoken.GetEncoding(fallbackEncoding)
	})
	if err != nil {
		fiberlog.Debugf("TokenCounter: No encoding for %s, estimating: %v", model, err)
		return int64((utf8.RuneCountInString(text) + 3) / 4)
	}
	return int64(len(enc.Encode(text, nil, nil)))
}

// Fill estimates any usage the provider left at zero.
func (t *TokenCounter) Fill(req Request, resp *Response) {
	if resp == nil {
		return
	}
	if resp.Usage.InputTokens == 0 {
		resp.Usage.InputTokens = t.Count(req.Model, req.System) + t.Count(req.Model, req.User)
	}
	if resp.Usage.OutputTokens == 0 {
		resp.Usage.OutputTokens = t.Count(req.Model, resp.Text)
	}
}
