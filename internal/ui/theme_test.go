package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	for _, name := range ThemeNames() {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%s).Name = %q", name, got)
		}
	}
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(unknown).Name = %q, want Nightfox", got)
	}
}

func TestThemesDefineBadges(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, badge := range []string{"done", "ready", "soon", "high", "mid", "low"} {
			if th.BadgeColors[badge] == "" {
				t.Fatalf("%s: badge %q has no colour", name, badge)
			}
		}
		if th.Highlight == "" {
			t.Fatalf("%s: highlight colour missing", name)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 5, "abcd…"},
		{"ab", 0, ""},
		{"बारिश की बूंदें", 4, "बार…"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestTruncateMiddleKeepsEnd(t *testing.T) {
	got := truncateMiddle("/home/user/.local/state/kavita/kavita.log", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("truncateMiddle length = %d, want 20 (%q)", len([]rune(got)), got)
	}
	if got[len(got)-len("kavita.log"):] != "kavita.log" {
		t.Fatalf("truncateMiddle = %q, want file name kept", got)
	}
}

func TestWrap(t *testing.T) {
	lines := wrap("the rain falls soft upon the roof tonight", 12)
	for _, l := range lines {
		if len([]rune(l)) > 12 {
			t.Fatalf("line %q longer than 12", l)
		}
	}
	if len(lines) != 4 {
		t.Fatalf("wrap returned %d lines, want 4: %q", len(lines), lines)
	}
}
