package tokens

import "testing"

func TestApproxCounter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"short", "abcd", 1},
		{"integer division", "abcdefg", 1},
		{"eight chars", "abcdefgh", 2},
		{"sentence", "The Fourth Amendment protects against unreasonable searches.", 15},
	}

	c := ApproxCounter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Count(tt.text); got != tt.want {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestApproxCounterName(t *testing.T) {
	c := ApproxCounter{}
	if c.Name() != "approx" {
		t.Errorf("unexpected name %q", c.Name())
	}
}

func TestNewCounterNeverNil(t *testing.T) {
	c := NewCounter()
	if c == nil {
		t.Fatal("NewCounter returned nil")
	}
	if c.Count("") != 0 {
		t.Errorf("empty string should count 0 tokens, got %d", c.Count(""))
	}
}

func TestTiktokenCounter(t *testing.T) {
	c, err := NewTiktokenCounter()
	if err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}

	if got := c.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}

	// "hello world" is two tokens under cl100k_base.
	if got := c.Count("hello world"); got != 2 {
		t.Errorf("Count(\"hello world\") = %d, want 2", got)
	}

	if c.Name() != "cl100k_base" {
		t.Errorf("unexpected name %q", c.Name())
	}
}
