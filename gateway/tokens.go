package gateway

import (
	"sync"

	"github.com/linanwx/serifu/logger"
	"github.com/linanwx/serifu/provider"
	"github.com/tiktoken-go/tokenizer"
)

// perMessageOverhead approximates the role/framing tokens of chat formats.
const perMessageOverhead = 4

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

func loadCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
		if codecErr != nil {
			logger.Warn("tokenizer unavailable, falling back to char estimate", "err", codecErr)
		}
	})
	return codec, codecErr
}

// EstimateTokens approximates the prompt size of messages.
func EstimateTokens(messages []provider.Message) int {
	enc, err := loadCodec()
	total := 0
	for _, m := range messages {
		total += perMessageOverhead
		if err != nil {
			total += len([]rune(m.Content))/4 + 1
			continue
		}
		ids, _, encErr := enc.Encode(m.Content)
		if encErr != nil {
			total += len([]rune(m.Content))/4 + 1
			continue
		}
		total += len(ids)
	}
	return total
}
