package core

import (
	"fmt"
	"testing"

	"github.com/juhapellotsalo/agentic-content-scout/models"
)

func TestTrimMessagesBound(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 40} {
		msgs := make([]models.Message, n)
		for i := range msgs {
			msgs[i] = models.HumanMessage(fmt.Sprint(i))
		}
		got := TrimMessages(msgs, MaxMessages)
		want := n
		if want > MaxMessages {
			want = MaxMessages
		}
		if len(got) != want {
			t.Fatalf("n=%d: got %d messages, want %d", n, len(got), want)
		}
		if n > 0 && got[len(got)-1].Content != fmt.Sprint(n-1) {
			t.Fatalf("n=%d: last message not kept", n)
		}
		if len(msgs) != n {
			t.Fatalf("stored history modified")
		}
		if n > 0 {
			got[0].Content = "changed"
			if msgs[n-len(got)].Content == "changed" {
				t.Fatalf("n=%d: trimmed view aliases the stored history", n)
			}
		}
	}
}
