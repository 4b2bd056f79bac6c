package textutil

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Matrix", "matrix"},
		{"A Clockwork Orange", "clockwork orange"},
		{"An American in Paris", "american in paris"},
		{"Theodore Rex", "theodore rex"},
		{"2001: A Space Odyssey", "2001 a space odyssey"},
		{"  Amélie  ", "am lie"},
		{"The The", "the"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Favorite Films", "my-favorite-films"},
		{"  --Best of 2024!!  ", "best-of-2024"},
		{"TSPDT: 21st Century", "tspdt-21st-century"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	for _, in := range []string{"Tmdb ID", "tmdb-id", "TMDB_ID", " tmdb id "} {
		if got := NormalizeHeader(in); got != "tmdb_id" {
			t.Errorf("NormalizeHeader(%q) = %q, want tmdb_id", in, got)
		}
	}
}

func TestNameFromFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/tspdt_greatest-films.csv", "Tspdt Greatest Films"},
		{"horror.list.json", "Horror List"},
		{"", ""},
		{"___.csv", ""},
	}
	for _, tt := range tests {
		if got := NameFromFileName(tt.in); got != tt.want {
			t.Errorf("NameFromFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
