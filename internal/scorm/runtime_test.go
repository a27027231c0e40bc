package scorm

import "testing"

func newActiveStore(t *testing.T) *RuntimeDataStore {
	t.Helper()
	s := NewRuntimeDataStore(nil)
	if !s.Initialize() {
		t.Fatalf("Initialize failed: %s", s.LastError())
	}
	return s
}

func TestInitializeTwiceFailsAndStaysActive(t *testing.T) {
	s := newActiveStore(t)
	if s.Initialize() {
		t.Fatalf("second Initialize should fail")
	}
	if s.LastError() != "101" {
		t.Fatalf("expected error 101, got %s", s.LastError())
	}
	// Still active: a normal write must succeed.
	if !s.SetValue("cmi.suspend_data", "x") {
		t.Fatalf("store no longer active after failed re-initialize")
	}
}

func TestCallsBeforeInitializeFailWith112(t *testing.T) {
	s := NewRuntimeDataStore(nil)
	if got := s.GetValue("cmi.core.lesson_status"); got != "" {
		t.Fatalf("GetValue before init returned %q", got)
	}
	if s.LastError() != "112" {
		t.Fatalf("expected 112, got %s", s.LastError())
	}
	if s.SetValue("cmi.suspend_data", "x") {
		t.Fatalf("SetValue before init should fail")
	}
	if s.LastError() != "112" {
		t.Fatalf("expected 112, got %s", s.LastError())
	}
	if s.Commit() {
		t.Fatalf("Commit before init should fail")
	}
	if s.Terminate() {
		t.Fatalf("Terminate before init should fail")
	}
	if s.LastError() != "112" {
		t.Fatalf("expected 112, got %s", s.LastError())
	}
}

func TestCallsAfterTerminateFailWith112(t *testing.T) {
	s := newActiveStore(t)
	if !s.Terminate() {
		t.Fatalf("Terminate failed: %s", s.LastError())
	}
	if s.SetValue("cmi.suspend_data", "x") || s.LastError() != "112" {
		t.Fatalf("SetValue after terminate: ok=%v err=%s", false, s.LastError())
	}
	if got := s.GetValue("cmi.suspend_data"); got != "" || s.LastError() != "112" {
		t.Fatalf("GetValue after terminate: got=%q err=%s", got, s.LastError())
	}
	if s.Terminate() || s.LastError() != "112" {
		t.Fatalf("double Terminate should fail with 112, got %s", s.LastError())
	}
}

func TestReadOnlyElementsAlwaysRejected(t *testing.T) {
	s := newActiveStore(t)
	for _, element := range []string{
		"cmi.core.student_id",
		"cmi.core.student_name",
		"cmi.core.credit",
		"cmi.core.entry",
		"cmi.core.lesson_mode",
		"cmi.core.total_time",
		"cmi.launch_data",
		"cmi.comments_from_lms",
		"cmi.learner_id",
		"cmi.mode",
		"cmi.total_time",
	} {
		if s.SetValue(element, "anything") {
			t.Fatalf("write to %s should fail", element)
		}
		if s.LastError() != "403" {
			t.Fatalf("%s: expected 403, got %s", element, s.LastError())
		}
	}
}

func TestSeededReadOnlyValuesReadable(t *testing.T) {
	s := NewRuntimeDataStore(nil)
	s.Seed("cmi.core.student_id", "learner-7")
	s.Initialize()
	if got := s.GetValue("cmi.core.student_id"); got != "learner-7" {
		t.Fatalf("seeded value not readable, got %q", got)
	}
	if s.LastError() != "0" {
		t.Fatalf("expected 0 after successful read, got %s", s.LastError())
	}
}

func TestValidationFailureLeavesValueUnchanged(t *testing.T) {
	s := newActiveStore(t)
	if !s.SetValue("cmi.core.lesson_status", "completed") {
		t.Fatalf("valid status rejected: %s", s.LastError())
	}
	if s.SetValue("cmi.core.lesson_status", "finished") {
		t.Fatalf("invalid status accepted")
	}
	if s.LastError() != "405" {
		t.Fatalf("expected 405, got %s", s.LastError())
	}
	if got := s.GetValue("cmi.core.lesson_status"); got != "completed" {
		t.Fatalf("stored value changed to %q on failed write", got)
	}
}

func TestLessonStatusVocabulary(t *testing.T) {
	s := newActiveStore(t)
	for _, v := range []string{"passed", "completed", "failed", "incomplete", "browsed", "not attempted"} {
		if !s.SetValue("cmi.core.lesson_status", v) {
			t.Fatalf("status %q rejected: %s", v, s.LastError())
		}
	}
	for _, v := range []string{"Passed", "done", "NOT ATTEMPTED", " passed"} {
		if s.SetValue("cmi.core.lesson_status", v) {
			t.Fatalf("status %q accepted", v)
		}
	}
}

func TestExitVocabulary(t *testing.T) {
	s := newActiveStore(t)
	for _, v := range []string{"time-out", "suspend", "logout", "normal", ""} {
		if !s.SetValue("cmi.core.exit", v) {
			t.Fatalf("exit %q rejected: %s", v, s.LastError())
		}
	}
	if s.SetValue("cmi.core.exit", "quit") {
		t.Fatalf("exit %q accepted", "quit")
	}
}

func TestScoreValidation(t *testing.T) {
	s := newActiveStore(t)
	cases := []struct {
		value string
		ok    bool
	}{
		{"85", true},
		{"-10", true},
		{"99.5", true},
		{"-0.25", true},
		{"0", true},
		{"12.34.5", false},
		{"12.", false},
		{".5", false},
		{"ten", false},
		{"1234567.890", false}, // 11 chars, over the 10-char cap
		{"123456.890", true},   // exactly 10
	}
	for _, tc := range cases {
		got := s.SetValue("cmi.core.score.raw", tc.value)
		if got != tc.ok {
			t.Fatalf("score %q: got ok=%v want %v (err=%s)", tc.value, got, tc.ok, s.LastError())
		}
	}
	if !s.SetValue("cmi.score.max", "100") {
		t.Fatalf("2004 score element rejected: %s", s.LastError())
	}
}

func TestSessionTimeValidationIsStructuralOnly(t *testing.T) {
	s := newActiveStore(t)
	cases := []struct {
		value string
		ok    bool
	}{
		{"00:05:30", true},
		{"0005:30:00", true},
		{"23:59:59.99", true},
		{"23:59:59.9", true},
		// 61 minutes is semantically out of range but the pattern only
		// constrains digit counts, and that behavior is load-bearing for
		// existing content.
		{"250:61:00", true},
		{"1:00:00", false},
		{"10:5:00", false},
		{"10:00:00.999", false},
		{"10:00", false},
		{"10-00-00", false},
	}
	for _, tc := range cases {
		got := s.SetValue("cmi.core.session_time", tc.value)
		if got != tc.ok {
			t.Fatalf("session_time %q: got ok=%v want %v", tc.value, got, tc.ok)
		}
	}
}

func TestGlobalLengthCap(t *testing.T) {
	s := newActiveStore(t)
	long := make([]byte, MaxValueLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if s.SetValue("cmi.suspend_data", string(long)) {
		t.Fatalf("over-cap value accepted")
	}
	if s.LastError() != "405" {
		t.Fatalf("expected 405, got %s", s.LastError())
	}
	if !s.SetValue("cmi.suspend_data", string(long[:MaxValueLength])) {
		t.Fatalf("at-cap value rejected: %s", s.LastError())
	}
}

func TestRoundTripReturnsSanitizedValue(t *testing.T) {
	s := newActiveStore(t)
	raw := `progress<script>alert("x")</script> saved`
	if !s.SetValue("cmi.suspend_data", raw) {
		t.Fatalf("write rejected: %s", s.LastError())
	}
	got := s.GetValue("cmi.suspend_data")
	if got == raw {
		t.Fatalf("raw script-bearing input stored verbatim")
	}
	if got != "progress saved" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}

func TestGetValueOfUnsetElementIsEmptyWithNoError(t *testing.T) {
	s := newActiveStore(t)
	if got := s.GetValue("cmi.suspend_data"); got != "" {
		t.Fatalf("unset element returned %q", got)
	}
	if s.LastError() != "0" {
		t.Fatalf("expected 0, got %s", s.LastError())
	}
}

func TestCommitInvokesHookAndSucceeds(t *testing.T) {
	s := newActiveStore(t)
	var seen map[string]string
	s.CommitFunc = func(values map[string]string) error {
		seen = values
		return nil
	}
	s.SetValue("cmi.core.lesson_location", "page-3")
	if !s.Commit() {
		t.Fatalf("Commit failed: %s", s.LastError())
	}
	if seen["cmi.core.lesson_location"] != "page-3" {
		t.Fatalf("hook did not receive stored values: %v", seen)
	}
}

func TestElementsPreserveFirstSetOrder(t *testing.T) {
	s := newActiveStore(t)
	s.SetValue("cmi.core.lesson_location", "1")
	s.SetValue("cmi.suspend_data", "blob")
	s.SetValue("cmi.core.lesson_location", "2")
	got := s.Elements()
	if len(got) != 2 || got[0] != "cmi.core.lesson_location" || got[1] != "cmi.suspend_data" {
		t.Fatalf("unexpected element order %v", got)
	}
}

func TestErrorStringTable(t *testing.T) {
	cases := map[string]string{
		"0":   "No error",
		"101": "General exception",
		"112": "LMS not initialized",
		"403": "Element is read only",
		"404": "Element not found",
		"405": "Invalid data",
		"999": "Unknown error",
		"":    "Unknown error",
	}
	for code, want := range cases {
		if got := ErrorString(code); got != want {
			t.Fatalf("ErrorString(%q) = %q, want %q", code, got, want)
		}
	}
}
