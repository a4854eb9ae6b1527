package transcript

import (
	"reflect"
	"testing"
)

func TestLastAssistantContents(t *testing.T) {
	history := []Message{
		User("topic"),
		Assistant("first"),
		User("interjection"),
		Assistant("second"),
		Assistant("third"),
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "last two", n: 2, want: []string{"second", "third"}},
		{name: "more than available", n: 10, want: []string{"first", "second", "third"}},
		{name: "zero", n: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastAssistantContents(history, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LastAssistantContents(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestLastAssistant(t *testing.T) {
	history := []Message{
		User("topic"),
		Assistant("reply"),
		User("more"),
	}

	got, ok := LastAssistant(history)
	if !ok || got != "reply" {
		t.Errorf("LastAssistant() = %q, %v, want %q, true", got, ok, "reply")
	}

	if _, ok := LastAssistant([]Message{User("only")}); ok {
		t.Error("LastAssistant() on user-only history reported a match")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single line", in: "hello", want: "hello"},
		{name: "multi line", in: "first\nsecond", want: "first"},
		{name: "leading blank lines", in: "\n\n  spaced  \nrest", want: "spaced"},
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: "  \n\t\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstLine(tt.in); got != tt.want {
				t.Errorf("FirstLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := []Message{User("a"), Assistant("b")}
	copied := Clone(original)

	copied[0].Content = "mutated"
	if original[0].Content != "a" {
		t.Error("Clone() shares backing storage with the original")
	}

	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
