package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONLocations(t *testing.T) {
	bag, fs := sample()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "SEM3002" || first.Severity != "ERROR" || first.Location == nil {
		t.Fatalf("first %+v", first)
	}
	if l := first.Location; l.File != "demo/hello.hb" || l.StartLine != 2 || l.StartCol != 15 || l.EndCol != 18 {
		t.Fatalf("location %+v", *l)
	}
	if len(first.Notes) != 1 || first.Notes[0].Location.StartCol != 4 {
		t.Fatalf("notes %+v", first.Notes)
	}
	if out.Diagnostics[1].Location != nil {
		t.Fatalf("spanless diagnostic got a location")
	}
}

func TestJSONMax(t *testing.T) {
	bag, fs := sample()
	out := Build(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("%+v", out)
	}
}
