package prompt

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestFormatTemplate(t *testing.T) {
	cases := []struct {
		name     string
		template string
		values   map[string]string
		want     string
		wantErr  bool
	}{
		{"simple", "hello {name}", map[string]string{"name": "world"}, "hello world", false},
		{"multiple", "{a}-{b}", map[string]string{"a": "x", "b": "y"}, "x-y", false},
		{"escaped braces", "{{literal}}", nil, "{literal}", false},
		{"missing value", "{gone}", map[string]string{}, "", true},
		{"unclosed", "{oops", nil, "", true},
		{"stray close", "oops}", nil, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatTemplate(tc.template, tc.values)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateStatic(t *testing.T) {
	if err := ValidateStatic("p", "no placeholders here, {{escaped}} ok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateStatic("p", "has {var}"); err == nil {
		t.Fatalf("expected error for leftover placeholder")
	}
}

func TestLoadYAMLMapping(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/chat.yaml": &fstest.MapFile{Data: []byte("system: 你是影视助手\nclosing: 数据优先级说明\n")},
	}

	mapping, err := LoadYAMLMapping(fsys, "prompts/chat.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mapping["system"] != "你是影视助手" || mapping["closing"] != "数据优先级说明" {
		t.Fatalf("unexpected mapping: %v", mapping)
	}
}

func TestLoadYAMLMappingRejectsTemplatedSystem(t *testing.T) {
	fsys := fstest.MapFS{
		"p.yaml": &fstest.MapFile{Data: []byte("system: hello {user}\n")},
	}
	if _, err := LoadYAMLMapping(fsys, "p.yaml"); err == nil {
		t.Fatalf("expected error for templated system prompt")
	}
	if _, err := LoadYAMLMapping(fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadYAMLDir(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/chat.yaml":    &fstest.MapFile{Data: []byte("system: a\n")},
		"prompts/decision.yml": &fstest.MapFile{Data: []byte("instruction: pick sources for {context}\n")},
	}

	prompts, err := LoadYAMLDir(fsys, "prompts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("unexpected prompt count: %d", len(prompts))
	}
	if !strings.Contains(prompts["decision"]["instruction"], "{context}") {
		t.Fatalf("unexpected decision prompt: %v", prompts["decision"])
	}
}
