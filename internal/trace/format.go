package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Format is the encoding of a stream tracer.
type Format uint8

const (
	FormatAuto Format = iota // chosen from the output file name
	FormatText
	FormatNDJSON
	FormatChrome // chrome://tracing trace_event array
)

// ParseFormat parses a --trace-format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "chrome":
		return FormatChrome, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format %q (expected auto|text|ndjson|chrome)", s)
}

// formatFor picks a format from the output path when f is FormatAuto.
func formatFor(f Format, path string) Format {
	if f != FormatAuto {
		return f
	}
	switch {
	case strings.HasSuffix(path, ".ndjson"):
		return FormatNDJSON
	case strings.HasSuffix(path, ".json"):
		return FormatChrome
	}
	return FormatText
}

// FormatEvent encodes ev. start anchors the relative timestamps of the text
// and Chrome formats.
func FormatEvent(ev *Event, format Format, start time.Time) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	case FormatChrome:
		return formatChrome(ev, start)
	}
	return formatText(ev, start)
}

func formatNDJSON(ev *Event) []byte {
	data, err := json.Marshal(struct {
		Time     string            `json:"time"`
		Seq      uint64            `json:"seq"`
		Kind     string            `json:"kind"`
		Scope    string            `json:"scope"`
		SpanID   uint64            `json:"span_id"`
		ParentID uint64            `json:"parent_id,omitempty"`
		GID      uint64            `json:"gid,omitempty"`
		Name     string            `json:"name"`
		Detail   string            `json:"detail,omitempty"`
		Extra    map[string]string `json:"extra,omitempty"`
	}{
		Time:     ev.Time.Format(time.RFC3339Nano),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

func formatChrome(ev *Event, start time.Time) []byte {
	ph, instant := "i", "t"
	switch ev.Kind {
	case KindSpanBegin:
		ph, instant = "B", ""
	case KindSpanEnd:
		ph, instant = "E", ""
	}
	args := make(map[string]string, len(ev.Extra)+1)
	maps.Copy(args, ev.Extra)
	if ev.Detail != "" {
		args["detail"] = ev.Detail
	}
	data, err := json.Marshal(struct {
		Name  string            `json:"name"`
		Cat   string            `json:"cat"`
		Ph    string            `json:"ph"`
		Ts    int64             `json:"ts"`
		Pid   int               `json:"pid"`
		Tid   uint64            `json:"tid"`
		Scope string            `json:"s,omitempty"`
		Args  map[string]string `json:"args,omitempty"`
	}{
		Name:  ev.Name,
		Cat:   ev.Scope.String(),
		Ph:    ph,
		Ts:    ev.Time.Sub(start).Microseconds(),
		Pid:   1,
		Tid:   ev.GID,
		Scope: instant,
		Args:  args,
	})
	if err != nil {
		return nil
	}
	return data
}

// formatText renders one line: "[  1.234ms] → link (312 bytes) {k=v}".
func formatText(ev *Event, start time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%8.3fms] ", float64(ev.Time.Sub(start).Microseconds())/1000)
	if ev.Scope > ScopeDriver {
		sb.WriteString(strings.Repeat("  ", int(ev.Scope-ScopeDriver)))
	}
	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ")
	case KindSpanEnd:
		sb.WriteString("← ")
	case KindPoint:
		sb.WriteString("• ")
	case KindHeartbeat:
		sb.WriteString("♡ ")
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", ev.Detail)
	}
	if len(ev.Extra) > 0 {
		sb.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%s", k, ev.Extra[k])
		}
		sb.WriteString("}")
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
