package petscii

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HELLO", "HELLO"},
		{"hello, world!", "HELLO, WORLD!"},
		{"café", "CAFE"},
		{"Ärger", "ARGER"},
		{"a\nb", "A\rB"},
		{"π", "?"},
		{"ﬁ", "FI"}, // compatibility ligature
	}
	for _, tt := range tests {
		if got := string(Encode(tt.in)); got != tt.want {
			t.Fatalf("Encode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	if got := Decode([]byte{'H', 'I', Return, 0x01}); got != "HI\n?" {
		t.Fatalf("Decode = %q", got)
	}
}
