package storage

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"receipt.png", "receipt.png"},
		{"My Receipt 2024.pdf", "My_Receipt_2024.pdf"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\windows\\system.ini", "system.ini"},
		{"café lunch.jpg", "caf_lunch.jpg"},
		{"...", ""},
		{"", ""},
		{"._hidden.png", "hidden.png"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
