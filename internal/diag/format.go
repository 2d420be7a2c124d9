package diag

import (
	"fmt"
	"sort"
	"strings"

	"halfbyte/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShort renders diagnostics into a stable, single-line-per-entry form:
//
//	error SEM3001 main.hb:3:7 message
//
// Diagnostics whose span does not resolve in fs are printed with "-" as
// location. Entries are sorted by path, line, column, severity and code.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, shortEntry(severityLabel(d.Severity), d.Code, d.Primary, d.Message, fs))
		if includeNotes {
			for _, note := range d.Notes {
				rendered = append(rendered, shortEntry("note", d.Code, note.Span, note.Msg, fs))
			}
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		return di.Code < dj.Code
	})

	var b strings.Builder
	for i, d := range rendered {
		if d.Path == "" {
			fmt.Fprintf(&b, "%s %s - %s", d.Severity, d.Code, d.Message)
		} else {
			fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		}
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func shortEntry(sev string, code Code, span source.Span, msg string, fs *source.FileSet) shortDiagnostic {
	out := shortDiagnostic{Severity: sev, Code: code.ID(), Message: sanitizeMessage(msg)}
	if fs == nil {
		return out
	}
	if pos, ok := fs.Position(span); ok {
		out.Path = pos.Path
		out.Line = pos.Line
		out.Column = pos.Col
	}
	return out
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
