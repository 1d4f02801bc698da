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

// Package display provides CLI output formatting for script runs
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/utils"
)

// Colors for consistent theming
var (
	yellowColor  = color.New(color.FgYellow, color.Bold)
	greenColor   = color.New(color.FgGreen)
	redColor     = color.New(color.FgRed, color.Bold)
	cyanColor    = color.New(color.FgCyan)
	magentaColor = color.New(color.FgMagenta)
	blueColor    = color.New(color.FgBlue)
	dimColor     = color.New(color.Faint)
	boldColor    = color.New(color.Bold)
)

// Display handles all CLI output formatting
type Display struct {
	out     io.Writer
	verbose bool
	width   int
}

// New creates a display writing to stdout
func New(verbose bool) *Display {
	return NewWithWriter(os.Stdout, verbose)
}

// NewWithWriter creates a display writing to w
func NewWithWriter(w io.Writer, verbose bool) *Display {
	return &Display{
		out:     w,
		verbose: verbose,
		width:   80,
	}
}

// Progress implements runtime.ProgressSink so a Display can be handed
// directly to the healing loop
func (d *Display) Progress(event runtime.ProgressEvent) {
	d.Event(event)
}

// Event prints one lifecycle event of a run
func (d *Display) Event(event runtime.ProgressEvent) {
	switch event.Stage {
	case runtime.StageExecuting:
		fmt.Fprintln(d.out, cyanColor.Sprintf("▶ Attempt %d: %s", event.Attempt+1, event.Message))
	case runtime.StageFixing:
		fmt.Fprintln(d.out, yellowColor.Sprint("🔧 Fixing: ")+event.Message)
	case runtime.StageReflecting:
		fmt.Fprintln(d.out, magentaColor.Sprint("🔍 Reflecting: ")+event.Message)
	case runtime.StageDone:
		fmt.Fprintln(d.out, boldColor.Sprint("● Done: ")+event.Message)
	default:
		fmt.Fprintln(d.out, dimColor.Sprintf("%s: %s", event.Stage, event.Message))
	}
}

// Rule prints a horizontal rule with optional title
func (d *Display) Rule(title string) {
	ruleChar := "━"
	if title == "" {
		fmt.Fprintln(d.out, yellowColor.Sprint(strings.Repeat(ruleChar, d.width)))
		return
	}

	titleWithSpaces := fmt.Sprintf(" %s ", title)
	titleLen := len(titleWithSpaces)
	leftPadding := (d.width - titleLen) / 2
	rightPadding := d.width - titleLen - leftPadding

	if leftPadding < 3 {
		leftPadding = 3
		rightPadding = 3
	}

	fmt.Fprintln(d.out, yellowColor.Sprint(
		strings.Repeat(ruleChar, leftPadding)+
			boldColor.Sprint(titleWithSpaces)+
			strings.Repeat(ruleChar, rightPadding),
	))
}

// Run prints a run header with the script about to execute
func (d *Display) Run(title, script string) {
	d.Rule(title)
	d.Code("Script", script)
	fmt.Fprintln(d.out)
}

// Code prints a boxed code block
func (d *Display) Code(title, code string) {
	fmt.Fprintln(d.out)
	if title != "" {
		fmt.Fprintln(d.out, cyanColor.Sprint("📝 "+title))
	}
	fmt.Fprintln(d.out, d.codeBox(code))
}

// Logs prints the console output captured during an attempt
func (d *Display) Logs(lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, blueColor.Sprint("🗒  Console:"))
	fmt.Fprintln(d.out, d.indent(strings.Join(lines, "\n"), 3))
}

// Error prints an error message
func (d *Display) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, redColor.Sprint("❌ Error:"))
	fmt.Fprintln(d.out, d.indent(err.Error(), 3))
}

// Success prints a success message
func (d *Display) Success(message string) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, greenColor.Sprint("✅ "+message))
}

// Info prints an info message in verbose mode
func (d *Display) Info(message string) {
	if d.verbose {
		fmt.Fprintln(d.out, blueColor.Sprint("ℹ  "+message))
	}
}

// FinalResult prints the final result of a run
func (d *Display) FinalResult(result interface{}) {
	fmt.Fprintln(d.out)
	d.Rule("Result")
	fmt.Fprintln(d.out, greenColor.Sprint("🎯 Result:"))
	fmt.Fprintln(d.out, d.indent(utils.SafeStringConversion(result), 3))
	d.Rule("")
}

// indent adds spaces to the beginning of each line
func (d *Display) indent(content string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	lines := utils.StringToLines(content)
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// codeBox creates a simple box around code
func (d *Display) codeBox(code string) string {
	lines := strings.Split(code, "\n")
	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	if maxLen < 40 {
		maxLen = 40
	}

	var result strings.Builder

	result.WriteString(dimColor.Sprint("┌" + strings.Repeat("─", maxLen+2) + "┐\n"))
	for _, line := range lines {
		padding := maxLen - len(line)
		result.WriteString(dimColor.Sprint("│ "))
		result.WriteString(cyanColor.Sprint(line))
		result.WriteString(strings.Repeat(" ", padding))
		result.WriteString(dimColor.Sprint(" │\n"))
	}
	result.WriteString(dimColor.Sprint("└" + strings.Repeat("─", maxLen+2) + "┘"))

	return result.String()
}
