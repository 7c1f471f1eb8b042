package core

import "testing"

func TestMatchTopicReply(t *testing.T) {
	available := []string{"ai-safety", "metroidvania", "rust"}
	tests := []struct {
		reply, guess, want string
	}{
		{"yes", "rust", "rust"},
		{" Y ", "rust", "rust"},
		{"no", "rust", ""},
		{"", "rust", ""},
		{"   ", "", ""},
		{"Metroidvania", "", "metroidvania"},
		{"metroid", "", "metroidvania"},
		{"the rust one please", "", "rust"},
		{"safety", "rust", "ai-safety"},
		{"cooking", "", ""},
	}
	for _, tt := range tests {
		for i := 0; i < 3; i++ {
			if got := MatchTopicReply(tt.reply, tt.guess, available); got != tt.want {
				t.Fatalf("MatchTopicReply(%q, %q) = %q, want %q", tt.reply, tt.guess, got, tt.want)
			}
		}
	}
}
