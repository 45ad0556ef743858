package pattern

import "testing"

func TestPatternString(t *testing.T) {
	tests := []struct {
		name string
		p    Pattern
		want string
	}{
		{
			name: "Exact",
			p:    Exact("com.example.Main"),
			want: "com.example.Main",
		},
		{
			name: "Prefix",
			p:    Prefix("com.example"),
			want: "com.example.*",
		},
		{
			name: "Default package class",
			p:    Exact("Top"),
			want: "Top",
		},
		{
			name: "Empty prefix",
			p:    Prefix(""),
			want: ".*",
		},
		{
			name: "Zero value",
			p:    Pattern{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want Pattern
	}{
		{
			name: "Prefix form",
			s:    "com.example.*",
			want: Prefix("com.example"),
		},
		{
			name: "Exact form",
			s:    "Top",
			want: Exact("Top"),
		},
		{
			name: "Dotted exact",
			s:    "com.example.Main",
			want: Exact("com.example.Main"),
		},
		{
			name: "Bare wildcard",
			s:    ".*",
			want: Prefix(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.s); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.s, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, p := range []Pattern{Exact("Top"), Prefix("com.foo"), Exact("com.foo.Bar")} {
		if got := Parse(p.String()); got != p {
			t.Errorf("Parse(String()) = %+v, want %+v", got, p)
		}
	}
}

func TestPatternEquality(t *testing.T) {
	// Patterns are plain values: same text and kind means equal,
	// regardless of where they were constructed.
	if Exact("com.foo") != Exact("com.foo") {
		t.Error("equal exact patterns compare unequal")
	}
	if Prefix("com.foo") == Exact("com.foo") {
		t.Error("prefix and exact with the same text compare equal")
	}

	set := make(map[Pattern]struct{})
	for _, p := range []Pattern{Exact("com.foo"), Prefix("com.foo"), Exact("com.foo")} {
		set[p] = struct{}{}
	}
	if len(set) != 2 {
		t.Errorf("set size = %d, want 2", len(set))
	}
}
