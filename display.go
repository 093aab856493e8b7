// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

// tabstopWidth is the number of columns a tab advances to in [Display] output.
const tabstopWidth = 4

// Display renders errors for people to read.
// Each error is printed as its message
// followed by the source line it starts on
// with the error's span underlined.
func Display(source string, errs ErrorList) string {
	sb := new(strings.Builder)
	for i, err := range errs {
		if i > 0 {
			sb.WriteString("\n")
		}
		displayError(sb, source, err)
	}
	return sb.String()
}

func displayError(sb *strings.Builder, source string, err *ParseError) {
	fmt.Fprintf(sb, "%s: %s\n", err.Kind.Category(), err.Error())
	start := err.Span.Start
	if !start.IsValid() || start.Offset > len(source) {
		return
	}
	line, lineStart := lineAt(source, start.Offset)

	// The underline ends at the span's end or the end of the line,
	// whichever comes first.
	startCol := start.Offset - lineStart
	endCol := min(max(err.Span.End.Offset-lineStart, startCol), len(line))

	lineno := strconv.Itoa(start.Line)
	gutter := strings.Repeat(" ", len(lineno))
	fmt.Fprintf(sb, "%s |\n", gutter)
	fmt.Fprintf(sb, "%s | %s\n", lineno, expandTabs(line))
	fmt.Fprintf(sb, "%s | ", gutter)
	pad := displayWidth(line[:startCol], 0)
	sb.WriteString(strings.Repeat(" ", pad))
	width := displayWidth(line[startCol:endCol], pad)
	sb.WriteString(strings.Repeat("^", max(width, 1)))
	sb.WriteString("\n")
}

// lineAt returns the line of source containing the given offset
// (without its line break) and the offset at which the line starts.
func lineAt(source string, offset int) (line string, start int) {
	start = strings.LastIndexAny(source[:offset], "\r\n") + 1
	end := strings.IndexAny(source[offset:], "\r\n")
	if end < 0 {
		return source[start:], start
	}
	return source[start : offset+end], start
}

// displayWidth returns the number of terminal columns s occupies
// when printed starting at the given column.
func displayWidth(s string, column int) int {
	start := column
	for {
		nextTab := strings.IndexByte(s, '\t')
		if nextTab < 0 {
			column += uniseg.StringWidth(s)
			return column - start
		}
		column += uniseg.StringWidth(s[:nextTab])
		column += tabstopWidth - column%tabstopWidth
		s = s[nextTab+1:]
	}
}

// expandTabs replaces tabs in s with spaces
// so that the underline lines up with the text.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	sb := new(strings.Builder)
	column := 0
	for {
		nextTab := strings.IndexByte(s, '\t')
		if nextTab < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:nextTab])
		column += uniseg.StringWidth(s[:nextTab])
		tab := tabstopWidth - column%tabstopWidth
		column += tab
		sb.WriteString(strings.Repeat(" ", tab))
		s = s[nextTab+1:]
	}
}
