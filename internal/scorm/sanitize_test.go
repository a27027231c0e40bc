package scorm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeValueStripsScriptBlocks(t *testing.T) {
	got := SanitizeValue(`before<script type="text/javascript">steal()</script>after`)
	if got != "beforeafter" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeValueStripsMultilineScript(t *testing.T) {
	got := SanitizeValue("a<script>\nvar x = 1;\n</script>b")
	if got != "ab" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeValueStripsDanglingScriptTag(t *testing.T) {
	got := SanitizeValue(`x<script src="evil.js">y`)
	if strings.Contains(got, "<script") {
		t.Fatalf("script tag survived: %q", got)
	}
}

func TestSanitizeValueStripsJavascriptURI(t *testing.T) {
	got := SanitizeValue(`<a href="javascript:doEvil()">go</a>`)
	if strings.Contains(strings.ToLower(got), "javascript:") {
		t.Fatalf("javascript uri survived: %q", got)
	}
}

func TestSanitizeValueStripsInlineHandlers(t *testing.T) {
	for _, in := range []string{
		`<img src=x onerror="alert(1)">`,
		`<div onclick='go()'>hi</div>`,
		`<body onload=init()>`,
	} {
		got := SanitizeValue(in)
		if strings.Contains(strings.ToLower(got), "onerror") ||
			strings.Contains(strings.ToLower(got), "onclick") ||
			strings.Contains(strings.ToLower(got), "onload") {
			t.Fatalf("handler survived in %q -> %q", in, got)
		}
	}
}

func TestSanitizeValueTrimsAndCaps(t *testing.T) {
	if got := SanitizeValue("  padded  "); got != "padded" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("x", MaxValueLength+50)
	if got := SanitizeValue(long); len(got) != MaxValueLength {
		t.Fatalf("cap not applied, len=%d", len(got))
	}
}

func TestSanitizeValueCapKeepsRunesWhole(t *testing.T) {
	// The last rune straddles the cap; truncation must drop it entirely
	// rather than store a broken multi-byte sequence.
	in := strings.Repeat("x", MaxValueLength-1) + "é"
	got := SanitizeValue(in)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8")
	}
	if len(got) != MaxValueLength-1 {
		t.Fatalf("len = %d, want %d", len(got), MaxValueLength-1)
	}
	if strings.ContainsRune(got, 'é') {
		t.Fatal("split rune survived the cap")
	}
}

func TestSanitizeValueLeavesPlainDataAlone(t *testing.T) {
	in := `{"page":3,"answers":["a","b"]}`
	if got := SanitizeValue(in); got != in {
		t.Fatalf("plain value mangled: %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags(`My <b>Course</b> Pack`); got != "My Course Pack" {
		t.Fatalf("got %q", got)
	}
}
