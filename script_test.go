package volt

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// scriptCase is one fixture from testdata/scripts/*.yaml. Each case runs in a
// fresh interpreter; exactly one of want/wantError is checked, and output (if
// set) must match what the script printed via console.
type scriptCase struct {
	Name      string `yaml:"name"`
	Source    string `yaml:"source"`
	Want      string `yaml:"want"`
	WantError string `yaml:"wantError"`
	Output    string `yaml:"output"`
}

type scriptFile struct {
	Cases []scriptCase `yaml:"cases"`
}

func Test_Scripts(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scripts", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no script fixtures found")
	}
	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var file scriptFile
			if err := yaml.Unmarshal(raw, &file); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			if len(file.Cases) == 0 {
				t.Fatal("fixture has no cases")
			}
			for _, tc := range file.Cases {
				tc := tc
				t.Run(tc.Name, func(t *testing.T) {
					runScriptCase(t, tc)
				})
			}
		})
	}
}

func runScriptCase(t *testing.T, tc scriptCase) {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldErr := ConsoleOut, ConsoleErr
	ConsoleOut, ConsoleErr = &buf, &buf
	defer func() { ConsoleOut, ConsoleErr = oldOut, oldErr }()

	ip := NewInterpreter()
	v, err := ip.EvalNamedSource(tc.Name, tc.Source)

	if tc.WantError != "" {
		if err == nil {
			t.Fatalf("expected error containing %q, got value %s", tc.WantError, PrintValue(v))
		}
		if !strings.Contains(err.Error(), tc.WantError) {
			t.Fatalf("error %q does not contain %q", err.Error(), tc.WantError)
		}
		return
	}
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if tc.Want != "" {
		if got := PrintValue(v); got != tc.Want {
			t.Fatalf("result %s, want %s", got, tc.Want)
		}
	}
	if tc.Output != "" {
		if got := buf.String(); got != tc.Output {
			t.Fatalf("output %q, want %q", got, tc.Output)
		}
	}
}
