package scorm

import "testing"

func TestBothConventionsAliasOneStore(t *testing.T) {
	store := NewRuntimeDataStore(nil)
	api := NewAPI(store)

	if got := Invoke(api, "LMSInitialize", ""); got != "true" {
		t.Fatalf("LMSInitialize = %q", got)
	}
	if got := Invoke(api, "SetValue", "cmi.core.lesson_location", "p2"); got != "true" {
		t.Fatalf("SetValue = %q", got)
	}
	// Legacy read observes the write made through the current convention.
	if got := Invoke(api, "LMSGetValue", "cmi.core.lesson_location"); got != "p2" {
		t.Fatalf("LMSGetValue = %q", got)
	}
	if got := Invoke(api, "LMSCommit", ""); got != "true" {
		t.Fatalf("LMSCommit = %q", got)
	}
	if got := Invoke(api, "Terminate", ""); got != "true" {
		t.Fatalf("Terminate = %q", got)
	}
	if got := Invoke(api, "LMSGetValue", "cmi.core.lesson_location"); got != "" {
		t.Fatalf("read after terminate = %q", got)
	}
	if got := Invoke(api, "GetLastError"); got != "112" {
		t.Fatalf("GetLastError = %q", got)
	}
}

func TestTerminateCommitsFirst(t *testing.T) {
	store := NewRuntimeDataStore(nil)
	committed := false
	store.CommitFunc = func(map[string]string) error {
		committed = true
		return nil
	}
	api := NewAPI(store)
	Invoke(api, "Initialize", "")
	Invoke(api, "SetValue", "cmi.suspend_data", "blob")
	if got := Invoke(api, "LMSFinish", ""); got != "true" {
		t.Fatalf("LMSFinish = %q", got)
	}
	if !committed {
		t.Fatalf("Terminate did not commit first")
	}
}

func TestInitializeFailureResultString(t *testing.T) {
	store := NewRuntimeDataStore(nil)
	api := NewAPI(store)
	Invoke(api, "Initialize", "")
	if got := Invoke(api, "Initialize", ""); got != "false" {
		t.Fatalf("double Initialize = %q", got)
	}
	if got := Invoke(api, "GetLastError"); got != "101" {
		t.Fatalf("GetLastError = %q", got)
	}
}

func TestGetErrorStringAndDiagnostic(t *testing.T) {
	api := NewAPI(NewRuntimeDataStore(nil))
	if got := Invoke(api, "GetErrorString", "403"); got != "Element is read only" {
		t.Fatalf("GetErrorString = %q", got)
	}
	if got := Invoke(api, "LMSGetErrorString", "404"); got != "Element not found" {
		t.Fatalf("LMSGetErrorString = %q", got)
	}
	if got := Invoke(api, "GetDiagnostic", "anything"); got != "" {
		t.Fatalf("GetDiagnostic = %q", got)
	}
	if got := Invoke(api, "LMSGetDiagnostic", ""); got != "" {
		t.Fatalf("LMSGetDiagnostic = %q", got)
	}
}

func TestInvokeUnknownMethod(t *testing.T) {
	api := NewAPI(NewRuntimeDataStore(nil))
	if got := Invoke(api, "SelfDestruct"); got != "false" {
		t.Fatalf("unknown method = %q", got)
	}
	if KnownMethod("SelfDestruct") {
		t.Fatalf("SelfDestruct should be unknown")
	}
	if !KnownMethod("LMSFinish") || !KnownMethod("Commit") {
		t.Fatalf("known methods misreported")
	}
}
