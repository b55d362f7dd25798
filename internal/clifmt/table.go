package clifmt

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultTableWidth  = 100
	defaultDetailWidth = 36
)

// Row is one table line: a short name column and a free-form detail
// column that wraps to the available width.
type Row struct {
	Name   string
	Detail string
}

type TableOptions struct {
	Title        string
	NameHeader   string
	DetailHeader string
	EmptyText    string
	Width        int
}

// PrintTable renders rows as a two-column table. When out is a terminal
// the detail column wraps to the terminal width, otherwise to
// opts.Width.
func PrintTable(out io.Writer, rows []Row, opts TableOptions) {
	if out == nil {
		out = os.Stdout
	}

	if title := strings.TrimSpace(opts.Title); title != "" {
		fmt.Fprintln(out, Headerf("%s (%d)", title, len(rows)))
	}
	if len(rows) == 0 {
		empty := strings.TrimSpace(opts.EmptyText)
		if empty == "" {
			empty = "No entries."
		}
		fmt.Fprintln(out, Warn(empty))
		return
	}

	nameHeader := strings.TrimSpace(opts.NameHeader)
	if nameHeader == "" {
		nameHeader = "NAME"
	}
	detailHeader := strings.TrimSpace(opts.DetailHeader)
	if detailHeader == "" {
		detailHeader = "DETAILS"
	}

	nameWidth := utf8.RuneCountInString(nameHeader)
	for _, row := range rows {
		if w := utf8.RuneCountInString(row.Name); w > nameWidth {
			nameWidth = w
		}
	}
	detailWidth := detailColumnWidth(out, nameWidth, opts.Width)

	fmt.Fprintf(out, "%s  %s\n", Key(padRight(nameHeader, nameWidth)), Key(detailHeader))
	fmt.Fprintf(out, "%s  %s\n", Dim(strings.Repeat("-", nameWidth)), Dim(strings.Repeat("-", detailWidth)))

	for _, row := range rows {
		lines := wrapRunes(row.Detail, detailWidth)
		fmt.Fprintf(out, "%s  %s\n", Success(padRight(row.Name, nameWidth)), lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(out, "%s  %s\n", strings.Repeat(" ", nameWidth), line)
		}
	}
}

func detailColumnWidth(out io.Writer, nameWidth, fallbackWidth int) int {
	if fallbackWidth <= 0 {
		fallbackWidth = defaultTableWidth
	}
	width := fallbackWidth
	if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if terminalWidth, _, err := term.GetSize(int(file.Fd())); err == nil && terminalWidth > 0 {
			width = terminalWidth
		}
	}
	detailWidth := width - nameWidth - 2
	if detailWidth < defaultDetailWidth {
		detailWidth = defaultDetailWidth
	}
	return detailWidth
}

func padRight(s string, width int) string {
	missing := width - utf8.RuneCountInString(s)
	if missing <= 0 {
		return s
	}
	return s + strings.Repeat(" ", missing)
}

// wrapRunes wraps text to width, splitting words longer than a whole
// line. It always returns at least one line.
func wrapRunes(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" || width <= 0 {
		return []string{text}
	}

	var lines []string
	current := ""
	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > width {
			flush()
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			flush()
			current = word
		}
	}
	flush()

	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
