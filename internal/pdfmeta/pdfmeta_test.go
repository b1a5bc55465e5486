package pdfmeta

import "testing"

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"plain doi",
			"Available at https://doi.org/10.1234/widgets.2020.001 for download",
			"10.1234/widgets.2020.001",
		},
		{
			"trailing punctuation stripped",
			"see DOI: 10.1234/widgets.55.",
			"10.1234/widgets.55",
		},
		{
			"first of several",
			"10.1234/first-article and later 10.5678/second-article",
			"10.1234/first-article",
		},
		{
			"no doi",
			"a page of prose without any identifier",
			"",
		},
		{
			"registrant too short",
			"10.12/nope",
			"",
		},
		{
			"nothing after slash",
			"10.1234/",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDOI(tt.text); got != tt.want {
				t.Errorf("FindDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDOIMissingFile(t *testing.T) {
	if _, err := ExtractDOI("/nonexistent/file.pdf"); err == nil {
		t.Error("ExtractDOI succeeded on a missing file")
	}
}
