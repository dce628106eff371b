// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"strings"
)

const fakeYabaiScript = `#!/bin/sh
dir="$(dirname "$0")"
if [ "$1" = "-m" ] && [ "$2" = "query" ]; then
  case "$3" in
    --windows) cat "$dir/windows.json" ;;
    --displays) cat "$dir/displays.json" ;;
    *) echo "unknown query $3" >&2; exit 1 ;;
  esac
  exit $?
fi
echo "$*" >> "$dir/commands.log"
if [ -f "$dir/fail" ]; then
  echo "could not locate the window to act on!" >&2
  exit 1
fi
exit 0
`

// DefaultDisplays is a single 1440x900 display.
const DefaultDisplays = `[{"id":1,"uuid":"A","index":1,"frame":{"x":0.0,"y":0.0,"w":1440.0,"h":900.0}}]`

// FakeYabai is an executable shell script standing in for yabai. Queries
// answer from JSON files next to the script; control commands are appended
// to a log.
type FakeYabai struct {
	Dir  string
	Path string
}

// NewFakeYabai writes the script into dir with no windows and one display.
func NewFakeYabai(dir string) (*FakeYabai, error) {
	f := &FakeYabai{Dir: dir, Path: filepath.Join(dir, "yabai")}
	if err := os.WriteFile(f.Path, []byte(fakeYabaiScript), 0755); err != nil {
		return nil, err
	}
	if err := f.SetWindows("[]"); err != nil {
		return nil, err
	}
	if err := f.SetDisplays(DefaultDisplays); err != nil {
		return nil, err
	}
	return f, nil
}

// SetWindows replaces the `query --windows` answer.
func (f *FakeYabai) SetWindows(json string) error {
	return os.WriteFile(filepath.Join(f.Dir, "windows.json"), []byte(json), 0644)
}

// SetDisplays replaces the `query --displays` answer.
func (f *FakeYabai) SetDisplays(json string) error {
	return os.WriteFile(filepath.Join(f.Dir, "displays.json"), []byte(json), 0644)
}

// FailCommands makes every control command exit non-zero.
func (f *FakeYabai) FailCommands(fail bool) error {
	marker := filepath.Join(f.Dir, "fail")
	if !fail {
		err := os.Remove(marker)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(marker, nil, 0644)
}

// Commands returns every control command received, oldest first.
func (f *FakeYabai) Commands() []string {
	data, err := os.ReadFile(filepath.Join(f.Dir, "commands.log"))
	if err != nil {
		return nil
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// Window renders one `query --windows` element.
func Window(id, pid int, app, title string, y, h float64) string {
	return `{"id":` + itoa(id) + `,"pid":` + itoa(pid) + `,"app":` + quote(app) +
		`,"title":` + quote(title) + `,"frame":{"x":0.0,"y":` + ftoa(y) + `,"w":1440.0,"h":` + ftoa(h) +
		`},"space":1,"display":1,"has-focus":false,"is-visible":true,"is-minimized":false}`
}

// Windows joins elements into a JSON array.
func Windows(elems ...string) string {
	return "[" + strings.Join(elems, ",") + "]"
}
