package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
		{"collapses whitespace", "Nice   run,\n well   played", "Nice run, well played"},
		{"strips surrounding quotes", `"Well played"`, "Well played"},
		{"strips curly quotes", "“干得漂亮”", "干得漂亮"},
		{"short text unchanged", "GG.", "GG."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Sanitize(c.in); got != c.want {
				t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestSanitizeTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", 40) + "!!!"
	got := Sanitize(long)

	if n := utf8.RuneCountInString(got); n > maxCommentRunes+1 {
		t.Errorf("result length %d runes, want at most %d", n, maxCommentRunes+1)
	}
	if !strings.HasSuffix(got, ".") {
		t.Errorf("truncated text %q must end with a period", got)
	}
	if want := strings.Repeat("a", maxCommentRunes) + "."; got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}

func TestSanitizeTruncationDropsTrailingPunct(t *testing.T) {
	// The cut lands on punctuation, which is stripped before re-terminating.
	long := strings.Repeat("b", maxCommentRunes-1) + "，，，extra tail"
	got := Sanitize(long)

	if want := strings.Repeat("b", maxCommentRunes-1) + "."; got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("say hi to {display_name} who played {game_name} for {duration_text}",
		"player(nick)", "Counter-Strike 2", "1h 23m")
	want := "say hi to player(nick) who played Counter-Strike 2 for 1h 23m"
	if got != want {
		t.Errorf("BuildPrompt = %q, want %q", got, want)
	}
}

func TestBuildPromptEmptyTemplateUsesDefault(t *testing.T) {
	got := BuildPrompt("  ", "player", "Dota 2", "42s")
	if !strings.Contains(got, "player") || !strings.Contains(got, "Dota 2") {
		t.Errorf("default prompt missing substitutions: %q", got)
	}
	if strings.Contains(got, "{display_name}") || strings.Contains(got, "{game_name}") {
		t.Errorf("placeholders left unfilled: %q", got)
	}
}
