// Package clipboard copies text to the system clipboard through the
// platform's command-line tool.
package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// candidates lists clipboard writers per OS in preference order.
var candidates = map[string][][]string{
	"darwin":  {{"pbcopy"}},
	"linux":   {{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"freebsd": {{"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"windows": {{"clip.exe"}},
}

// CopyText copies text to the system clipboard.
func CopyText(text string) error {
	argv, err := pickTool(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func pickTool(goos string, lookPath func(string) (string, error)) ([]string, error) {
	tools, ok := candidates[goos]
	if !ok {
		return nil, fmt.Errorf("clipboard not supported on %s", goos)
	}
	for _, argv := range tools {
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	names := make([]string, len(tools))
	for i, argv := range tools {
		names[i] = argv[0]
	}
	return nil, fmt.Errorf("no clipboard utility found (install %s)", strings.Join(names, " or "))
}
