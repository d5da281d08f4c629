// Package tokens estimates how many tokens a prompt will consume, so a run
// can warn before sending a netlist that exceeds the model's context window.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens with the cl100k_base encoding. The encoding tables
// load lazily on first use.
type Counter struct {
	enc  *tiktoken.Tiktoken
	once sync.Once
	err  error
}

var defaultCounter = &Counter{}

// Count returns the number of tokens in text.
func Count(text string) int {
	return defaultCounter.Count(text)
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	c.init()
	if c.err != nil || c.enc == nil {
		// Fallback: rough estimate (4 chars per token)
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// FitsContext reports whether a prompt of promptTokens plus the reply budget
// fits a model's context window. A zero contextTokens means unknown and is
// treated as fitting.
func FitsContext(promptTokens, replyBudget, contextTokens int) bool {
	if contextTokens == 0 {
		return true
	}
	return promptTokens+replyBudget <= contextTokens
}

func (c *Counter) init() {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
}
