package ui

import (
	"fmt"
	"sort"
)

// presets are the named palettes selectable with theme.preset. Individual
// theme.* keys override single colors on top of the chosen preset.
var presets = map[string]ThemeConfig{
	"gruvbox": {
		Primary: "#b8bb26", Secondary: "#83a598", Success: "#b8bb26", Error: "#fb4934",
		Warning: "#fabd2f", Muted: "#928374", Text: "#ebdbb2", Spinner: "#d3869b",
		UserMsgBg: "#3c3836",
	},
	"dracula": {
		Primary: "#bd93f9", Secondary: "#8be9fd", Success: "#50fa7b", Error: "#ff5555",
		Warning: "#f1fa8c", Muted: "#6272a4", Text: "#f8f8f2", Spinner: "#ff79c6",
		UserMsgBg: "#44475a",
	},
	"nord": {
		Primary: "#88c0d0", Secondary: "#81a1c1", Success: "#a3be8c", Error: "#bf616a",
		Warning: "#ebcb8b", Muted: "#4c566a", Text: "#eceff4", Spinner: "#b48ead",
		UserMsgBg: "#3b4252",
	},
	"solarized": {
		Primary: "#268bd2", Secondary: "#2aa198", Success: "#859900", Error: "#dc322f",
		Warning: "#b58900", Muted: "#586e75", Text: "#839496", Spinner: "#d33682",
		UserMsgBg: "#073642",
	},
	"classic": {
		Primary: "10", Secondary: "4", Success: "10", Error: "9",
		Warning: "11", Muted: "245", Text: "15", Spinner: "205",
		UserMsgBg: "236",
	},
}

// PresetNames lists the available presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvePreset returns the preset called name with the non-empty fields
// of overrides applied. An empty name starts from no preset.
func ResolvePreset(name string, overrides ThemeConfig) (ThemeConfig, error) {
	var base ThemeConfig
	if name != "" {
		p, ok := presets[name]
		if !ok {
			return overrides, fmt.Errorf("unknown theme preset %q (available: %v)", name, PresetNames())
		}
		base = p
	}

	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.Primary, overrides.Primary)
	pick(&base.Secondary, overrides.Secondary)
	pick(&base.Success, overrides.Success)
	pick(&base.Error, overrides.Error)
	pick(&base.Warning, overrides.Warning)
	pick(&base.Muted, overrides.Muted)
	pick(&base.Text, overrides.Text)
	pick(&base.Spinner, overrides.Spinner)
	pick(&base.UserMsgBg, overrides.UserMsgBg)
	return base, nil
}
