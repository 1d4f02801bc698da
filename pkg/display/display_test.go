// Copyright 2025 Rizome Labs, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
)

func newTestDisplay(verbose bool) (*Display, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&buf, verbose), &buf
}

func TestEventStages(t *testing.T) {
	tests := []struct {
		stage runtime.Stage
		want  string
	}{
		{runtime.StageExecuting, "Attempt 1: executing script"},
		{runtime.StageFixing, "Fixing: requesting fix"},
		{runtime.StageReflecting, "Reflecting: null values"},
		{runtime.StageDone, "Done: script completed"},
	}

	messages := map[runtime.Stage]string{
		runtime.StageExecuting:  "executing script",
		runtime.StageFixing:     "requesting fix",
		runtime.StageReflecting: "null values",
		runtime.StageDone:       "script completed",
	}

	for _, tt := range tests {
		d, buf := newTestDisplay(false)
		d.Event(runtime.ProgressEvent{Stage: tt.stage, Attempt: 0, Message: messages[tt.stage]})
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("stage %s: output missing %q:\n%s", tt.stage, tt.want, buf.String())
		}
	}
}

func TestDisplayImplementsProgressSink(t *testing.T) {
	d, buf := newTestDisplay(false)

	var sink runtime.ProgressSink = d
	runtime.Notify(sink, runtime.StageExecuting, 1, "second attempt")

	if !strings.Contains(buf.String(), "Attempt 2: second attempt") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestCodeBox(t *testing.T) {
	d, buf := newTestDisplay(false)
	d.Code("Script", "const a = 1;\nreturn a;")

	out := buf.String()
	if !strings.Contains(out, "Script") {
		t.Errorf("output missing title:\n%s", out)
	}
	if !strings.Contains(out, "const a = 1;") {
		t.Errorf("output missing code:\n%s", out)
	}
	if !strings.Contains(out, "┌") || !strings.Contains(out, "└") {
		t.Errorf("output missing box borders:\n%s", out)
	}
}

func TestError(t *testing.T) {
	d, buf := newTestDisplay(false)

	d.Error(nil)
	if buf.Len() != 0 {
		t.Errorf("nil error should print nothing, got:\n%s", buf.String())
	}

	d.Error(errors.New("script compile error"))
	if !strings.Contains(buf.String(), "script compile error") {
		t.Errorf("output missing error:\n%s", buf.String())
	}
}

func TestInfoVerboseOnly(t *testing.T) {
	d, buf := newTestDisplay(false)
	d.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be silent without verbose, got:\n%s", buf.String())
	}

	d, buf = newTestDisplay(true)
	d.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("output missing info:\n%s", buf.String())
	}
}

func TestLogs(t *testing.T) {
	d, buf := newTestDisplay(false)

	d.Logs(nil)
	if buf.Len() != 0 {
		t.Errorf("empty logs should print nothing, got:\n%s", buf.String())
	}

	d.Logs([]string{"fetching quote", "warn: slow response"})
	out := buf.String()
	if !strings.Contains(out, "fetching quote") || !strings.Contains(out, "warn: slow response") {
		t.Errorf("output missing log lines:\n%s", out)
	}
}
