package status

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/lofifm/prefabs"
)

// scriptModules are the only stdlib modules a status script may import.
var scriptModules = []string{"text", "fmt"}

// ScriptFormatter runs a tengo script to build the status line. The script
// reads the globals state, track, tracks and index and assigns line.
type ScriptFormatter struct {
	name     string
	compiled *tengo.Compiled
}

// LoadScriptFormatter compiles a script from prefabs/scripts.
func LoadScriptFormatter(name string) (*ScriptFormatter, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("status: load script %s: %w", name, err)
	}
	f, err := NewScriptFormatter(name, src)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func NewScriptFormatter(name string, src []byte) (*ScriptFormatter, error) {
	script := tengo.NewScript(src)
	_ = script.Add("state", "")
	_ = script.Add("track", "")
	_ = script.Add("tracks", 0)
	_ = script.Add("index", 0)
	_ = script.Add("line", "")

	script.SetImports(stdlib.GetModuleMap(scriptModules...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("status: compile script %s: %w", name, err)
	}
	return &ScriptFormatter{name: name, compiled: compiled}, nil
}

// Format runs the script for s. A script fault, including a panic inside
// the VM, comes back as an error.
func (f *ScriptFormatter) Format(s Snapshot) (line string, err error) {
	if f == nil || f.compiled == nil {
		return "", fmt.Errorf("status: nil script formatter")
	}
	defer func() {
		if r := recover(); r != nil {
			line, err = "", fmt.Errorf("status: run script %s: %v", f.name, r)
		}
	}()
	if err := f.compiled.Set("state", s.State); err != nil {
		return "", err
	}
	if err := f.compiled.Set("track", s.Track); err != nil {
		return "", err
	}
	if err := f.compiled.Set("tracks", s.Tracks); err != nil {
		return "", err
	}
	if err := f.compiled.Set("index", s.Index); err != nil {
		return "", err
	}
	if err := f.compiled.Set("line", ""); err != nil {
		return "", err
	}
	if err := f.compiled.Run(); err != nil {
		return "", fmt.Errorf("status: run script %s: %w", f.name, err)
	}
	return strings.TrimSpace(f.compiled.Get("line").String()), nil
}
