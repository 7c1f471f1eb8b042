package core

import "github.com/juhapellotsalo/agentic-content-scout/models"

// MaxMessages is the default cap on the history sent to the model per call.
const MaxMessages = 16

// TrimMessages returns at most the last max messages. The stored history is
// never modified; the result is a fresh slice.
func TrimMessages(msgs []models.Message, max int) []models.Message {
	if max <= 0 {
		max = MaxMessages
	}
	start := 0
	if len(msgs) > max {
		start = len(msgs) - max
	}
	out := make([]models.Message, len(msgs)-start)
	copy(out, msgs[start:])
	return out
}
