package clipboard

import (
	"errors"
	"strings"
	"testing"
)

func lookPathFor(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestPickTool(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		goos      string
		available []string
		want      string
	}{
		{name: "prefers wayland", goos: "linux", available: []string{"xclip", "wl-copy"}, want: "wl-copy"},
		{name: "falls back to xclip", goos: "linux", available: []string{"xclip"}, want: "xclip"},
		{name: "macos", goos: "darwin", available: []string{"pbcopy"}, want: "pbcopy"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			argv, err := pickTool(tc.goos, lookPathFor(tc.available...))
			if err != nil {
				t.Fatalf("pickTool() error: %v", err)
			}
			if argv[0] != tc.want {
				t.Fatalf("pickTool() = %v, want %s", argv, tc.want)
			}
		})
	}
}

func TestPickToolMissing(t *testing.T) {
	_, err := pickTool("linux", lookPathFor())
	if err == nil || !strings.Contains(err.Error(), "wl-copy or xclip or xsel") {
		t.Fatalf("expected install hint, got %v", err)
	}
	if _, err := pickTool("plan9", lookPathFor("anything")); err == nil {
		t.Fatal("expected unsupported OS error")
	}
}
