package fingerprint

import "testing"

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"last-first form", "Smith, John", "Smith, J."},
		{"first-last form", "John Smith", "Smith, J."},
		{"middle initial", "Smith, John Michael", "Smith, J. M."},
		{"two authors with and", "John Smith and Jane Doe", "Smith, J. and Doe, J."},
		{"semicolon separator", "Smith, John; Doe, Jane", "Smith, J. and Doe, J."},
		{"nickname in quotes dropped", `William "Bill" Gates`, "Gates, W."},
		{"nickname in parens dropped", "Robert (Bob) Smith", "Smith, R."},
		{"diacritics stripped", "Jürgen Müller", "Muller, J."},
		{"surname particle kept", "Ludwig van Beethoven", "van Beethoven, L."},
		{"abbreviated given names", "Smith, J. M.", "Smith, J. M."},
		{"single token", "Aristotle", "Aristotle"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAuthors(tt.input); got != tt.want {
				t.Errorf("FormatAuthors(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatAuthorsDeterminism(t *testing.T) {
	input := "Smith, John and Jürgen Müller; Doe, Jane"
	a := FormatAuthors(input)
	b := FormatAuthors(input)
	if a != b {
		t.Errorf("FormatAuthors not deterministic: %q vs %q", a, b)
	}
}

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Müller", "Muller"},
		{"Çelik", "Celik"},
		{"naïve", "naive"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := removeDiacritics(tt.in); got != tt.want {
			t.Errorf("removeDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
