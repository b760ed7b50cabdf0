package toon

import (
	"strings"
	"testing"
)

func TestEncodePrimitives(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{nil, "null"},
		{true, "true"},
		{42, "42"},
		{7.9, "7.9"},
		{"plain", "plain"},
		{"has, comma", `"has, comma"`},
	}
	for i, tc := range cases {
		if got := Encode(tc.value); got != tc.want {
			t.Fatalf("case %d: Encode(%v) = %q, want %q", i, tc.value, got, tc.want)
		}
	}
}

func TestEncodePrimitiveSlice(t *testing.T) {
	got := Encode([]string{"科幻", "冒险"})
	if got != "[2]: 科幻,冒险" {
		t.Fatalf("unexpected encoding: %q", got)
	}
}

func TestEncodeMapSorted(t *testing.T) {
	got := Encode(map[string]any{"title": "某片", "rating": 8.5})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 || lines[0] != "rating: 8.5" || lines[1] != "title: 某片" {
		t.Fatalf("unexpected encoding: %q", got)
	}
}

func TestEncodeUniformMapSliceAsTable(t *testing.T) {
	got := Encode([]any{
		map[string]any{"title": "a", "rate": "8.0"},
		map[string]any{"title": "b", "rate": "7.5"},
	})
	if !strings.HasPrefix(got, "[2]{rate,title}:") {
		t.Fatalf("expected table header, got %q", got)
	}
	if !strings.Contains(got, "8.0,a") || !strings.Contains(got, "7.5,b") {
		t.Fatalf("missing table rows: %q", got)
	}
}

func TestEncodeStruct(t *testing.T) {
	type item struct {
		Title  string  `json:"title"`
		Rating float64 `json:"rating"`
	}
	got := EncodeStruct(item{Title: "片名", Rating: 7.9})
	if !strings.Contains(got, "title: 片名") || !strings.Contains(got, "rating: 7.9") {
		t.Fatalf("unexpected encoding: %q", got)
	}
}

func TestEncodeStructSliceTable(t *testing.T) {
	type row struct {
		Title string `json:"title"`
		Rate  string `json:"rate"`
	}
	got := EncodeStruct([]row{{"a", "8"}, {"b", "7"}})
	if !strings.HasPrefix(got, "[2]{rate,title}:") {
		t.Fatalf("expected table encoding: %q", got)
	}
}
