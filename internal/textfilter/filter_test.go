package textfilter

import "testing"

func TestFilterCheck(t *testing.T) {
	f := New(0, 0)
	tests := []struct {
		name   string
		input  string
		accept bool
		reason string
		text   string
	}{
		{name: "dialogue", input: "Sorry, Your Grace.", accept: true, text: "Sorry, Your Grace."},
		{name: "punctuation only", input: "....||", reason: ReasonTooFew},
		{name: "whitespace only", input: " \t\n ", reason: ReasonEmpty},
		{name: "empty", input: "", reason: ReasonEmpty},
		{name: "collapses whitespace", input: "  Where   are\nyou going?  ", accept: true, text: "Where are you going?"},
		{name: "symbol noise", input: "Ab|~#^*=<>", reason: ReasonLowQuality},
		{name: "short reply", input: "No.", accept: true, text: "No."},
		{name: "single letter", input: "I", reason: ReasonTooFew},
		{name: "compatibility forms", input: "Ｈｉ!", accept: true, text: "Hi!"},
		{name: "digits count as valid", input: "Room 101.", accept: true, text: "Room 101."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Check(tt.input)
			if got.Accepted != tt.accept {
				t.Fatalf("Check(%q).Accepted = %v (reason %q), want %v", tt.input, got.Accepted, got.Reason, tt.accept)
			}
			if !tt.accept && got.Reason != tt.reason {
				t.Fatalf("Check(%q).Reason = %q, want %q", tt.input, got.Reason, tt.reason)
			}
			if tt.accept && got.Text != tt.text {
				t.Fatalf("Check(%q).Text = %q, want %q", tt.input, got.Text, tt.text)
			}
		})
	}
}

func TestFilterThresholdsAreConfigurable(t *testing.T) {
	strict := Filter{MinLetters: 20, MinValidRatio: 0.5}
	if strict.Accept("Sorry, Your Grace.") {
		t.Fatal("expected a 20 letter minimum to reject a 14 letter line")
	}
	loose := Filter{MinLetters: 1, MinValidRatio: 0.1}
	if !loose.Accept("Ab|~#^*=<>") {
		t.Fatal("expected a 0.1 ratio to accept mostly-symbol text")
	}
}

func TestNewKeepsExplicitThresholds(t *testing.T) {
	f := New(5, 0.9)
	if f.MinLetters != 5 || f.MinValidRatio != 0.9 {
		t.Fatalf("unexpected filter %+v", f)
	}
}
