package scorm

// API is the canonical runtime protocol surface. Both calling conventions
// (the legacy LMS* names and the current ones) are thin adapters over this
// single interface; results are the protocol's "true"/"false" strings.
type API interface {
	Initialize(param string) string
	Terminate(param string) string
	GetValue(element string) string
	SetValue(element, value string) string
	Commit(param string) string
	GetLastError() string
	GetErrorString(code string) string
	GetDiagnostic(code string) string
}

type canonicalAPI struct {
	store *RuntimeDataStore
}

// NewAPI wraps a RuntimeDataStore in the canonical protocol surface.
func NewAPI(store *RuntimeDataStore) API {
	return &canonicalAPI{store: store}
}

func boolResult(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}

func (a *canonicalAPI) Initialize(param string) string {
	return boolResult(a.store.Initialize())
}

// Terminate commits before tearing the session down, matching the protocol's
// expectation that a finishing content object's state reaches the host.
func (a *canonicalAPI) Terminate(param string) string {
	if a.store.state == stateActive {
		a.store.Commit()
	}
	return boolResult(a.store.Terminate())
}

func (a *canonicalAPI) GetValue(element string) string {
	return a.store.GetValue(element)
}

func (a *canonicalAPI) SetValue(element, value string) string {
	return boolResult(a.store.SetValue(element, value))
}

func (a *canonicalAPI) Commit(param string) string {
	return boolResult(a.store.Commit())
}

func (a *canonicalAPI) GetLastError() string {
	return a.store.LastError()
}

func (a *canonicalAPI) GetErrorString(code string) string {
	return ErrorString(code)
}

// No extended diagnostics in this runtime.
func (a *canonicalAPI) GetDiagnostic(code string) string {
	return ""
}

// Invoke dispatches one protocol call by method name, accepting both the
// legacy and the current convention. Unknown methods report a general
// exception the way content expects: as a result string, never a failure.
func Invoke(api API, method string, args ...string) string {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	switch method {
	case "Initialize", "LMSInitialize":
		return api.Initialize(arg(0))
	case "Terminate", "LMSFinish":
		return api.Terminate(arg(0))
	case "GetValue", "LMSGetValue":
		return api.GetValue(arg(0))
	case "SetValue", "LMSSetValue":
		return api.SetValue(arg(0), arg(1))
	case "Commit", "LMSCommit":
		return api.Commit(arg(0))
	case "GetLastError", "LMSGetLastError":
		return api.GetLastError()
	case "GetErrorString", "LMSGetErrorString":
		return api.GetErrorString(arg(0))
	case "GetDiagnostic", "LMSGetDiagnostic":
		return api.GetDiagnostic(arg(0))
	default:
		return "false"
	}
}

// KnownMethod reports whether a method name belongs to either convention.
func KnownMethod(method string) bool {
	switch method {
	case "Initialize", "LMSInitialize",
		"Terminate", "LMSFinish",
		"GetValue", "LMSGetValue",
		"SetValue", "LMSSetValue",
		"Commit", "LMSCommit",
		"GetLastError", "LMSGetLastError",
		"GetErrorString", "LMSGetErrorString",
		"GetDiagnostic", "LMSGetDiagnostic":
		return true
	default:
		return false
	}
}
