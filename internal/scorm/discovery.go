package scorm

import (
	"strconv"
	"strings"
)

// MaxDiscoveryAscents bounds the walk up the context chain so a cyclic or
// pathological parent relation cannot loop forever.
const MaxDiscoveryAscents = 500

// BindingNames are the well-known globals content looks for, in the order
// they are checked on each context.
var BindingNames = []string{"API_1484_11", "API"}

// ExecutionContext models one isolated execution context with a defined
// ascent relation. A top-level context returns nil or itself as parent.
type ExecutionContext interface {
	Parent() ExecutionContext
	Binding(name string) (API, bool)
}

// WindowContext is the in-process context-chain implementation used by the
// session registry: the host publishes bindings on its own context, content
// runs in a descendant.
type WindowContext struct {
	parent   *WindowContext
	bindings map[string]API
}

func NewWindowContext(parent *WindowContext) *WindowContext {
	return &WindowContext{parent: parent, bindings: make(map[string]API)}
}

func (w *WindowContext) Parent() ExecutionContext {
	if w.parent == nil {
		return nil
	}
	return w.parent
}

func (w *WindowContext) Binding(name string) (API, bool) {
	api, ok := w.bindings[name]
	return api, ok
}

func (w *WindowContext) Publish(name string, api API) {
	w.bindings[name] = api
}

// Discover ascends the context chain starting at start, checking each
// context for a well-known binding. First match wins. The walk stops after
// MaxDiscoveryAscents ascents or at a context whose parent is nil or itself;
// finding nothing means the session is unavailable to the content.
func Discover(start ExecutionContext) (API, bool) {
	cur := start
	for ascents := 0; cur != nil; ascents++ {
		for _, name := range BindingNames {
			if api, ok := cur.Binding(name); ok {
				return api, true
			}
		}
		if ascents >= MaxDiscoveryAscents {
			break
		}
		parent := cur.Parent()
		if parent == nil || parent == cur {
			break
		}
		cur = parent
	}
	return nil, false
}

// Bridge wires a session's API surface to embedded content: on the host side
// it builds the context chain with both well-known bindings published, and
// for hosted HTML it injects a bootstrap that repeats discovery inside the
// document once it has loaded.
type Bridge struct{}

func NewBridge() *Bridge { return &Bridge{} }

// WireSession publishes api under both binding names on a fresh host
// context and returns the content context sitting depth frames below it.
// Depth 0 returns the host context itself.
func (b *Bridge) WireSession(api API, depth int) *WindowContext {
	host := NewWindowContext(nil)
	for _, name := range BindingNames {
		host.Publish(name, api)
	}
	cur := host
	for i := 0; i < depth; i++ {
		cur = NewWindowContext(cur)
	}
	return cur
}

const bootstrapMarker = `id="scormlite-api-bootstrap"`

// Injection happens before the document is parsed, so the bootstrap defers
// its work to the load event: by then the content's own script expects the
// bindings to exist, and republishing on the content window satisfies
// lookups that never ascend. When no enclosing context carries a binding the
// bootstrap falls back to a synchronous proxy against the session endpoint.
const bootstrapTemplate = `<script id="scormlite-api-bootstrap">(function () {
  var INVOKE_URL = __INVOKE_URL__;
  var TOKEN = __TOKEN__;
  var MAX_ASCENTS = 500;
  function discover(win) {
    var ascents = 0;
    while (win) {
      if (win.API_1484_11) { return win.API_1484_11; }
      if (win.API) { return win.API; }
      if (ascents >= MAX_ASCENTS) { return null; }
      if (!win.parent || win.parent === win) { return null; }
      win = win.parent;
      ascents++;
    }
    return null;
  }
  function call(method, args) {
    var xhr = new XMLHttpRequest();
    var url = INVOKE_URL + (TOKEN ? "?token=" + encodeURIComponent(TOKEN) : "");
    xhr.open("POST", url, false);
    xhr.setRequestHeader("Content-Type", "application/json");
    xhr.send(JSON.stringify({ method: method, args: args }));
    if (xhr.status !== 200) { return "false"; }
    try { return JSON.parse(xhr.responseText).result; } catch (e) { return "false"; }
  }
  function proxy() {
    var names = ["Initialize", "Terminate", "GetValue", "SetValue", "Commit",
      "GetLastError", "GetErrorString", "GetDiagnostic",
      "LMSInitialize", "LMSFinish", "LMSGetValue", "LMSSetValue", "LMSCommit",
      "LMSGetLastError", "LMSGetErrorString", "LMSGetDiagnostic"];
    var api = {};
    for (var i = 0; i < names.length; i++) {
      (function (m) {
        api[m] = function () { return call(m, [].slice.call(arguments, 0)); };
      })(names[i]);
    }
    return api;
  }
  function publish(api) {
    window.API = api;
    window.API_1484_11 = api;
  }
  window.addEventListener("load", function () {
    var found = discover(window.parent === window ? window : window.parent);
    if (found) { publish(found); return; }
    if (INVOKE_URL) { publish(proxy()); }
  });
})();</script>`

// InjectBootstrap rewrites hosted HTML so the document performs API
// discovery on load. invokeURL points at the session invoke endpoint used as
// the fallback surface; an empty invokeURL leaves discovery-only wiring with
// no proxy fallback. token travels as a query parameter because a content
// frame cannot attach headers. Already-injected documents pass through
// unchanged.
func (b *Bridge) InjectBootstrap(html []byte, invokeURL, token string) []byte {
	doc := string(html)
	if strings.Contains(doc, bootstrapMarker) {
		return html
	}
	script := strings.NewReplacer(
		"__INVOKE_URL__", strconv.Quote(invokeURL),
		"__TOKEN__", strconv.Quote(token),
	).Replace(bootstrapTemplate)

	lower := strings.ToLower(doc)
	if at := tagEnd(lower, "<head"); at >= 0 {
		return []byte(doc[:at] + script + doc[at:])
	}
	if at := tagEnd(lower, "<body"); at >= 0 {
		return []byte(doc[:at] + script + doc[at:])
	}
	return []byte(script + doc)
}

// tagEnd returns the index just past the closing '>' of the first opening
// tag matching prefix, or -1.
func tagEnd(lower, prefix string) int {
	start := strings.Index(lower, prefix)
	if start < 0 {
		return -1
	}
	end := strings.Index(lower[start:], ">")
	if end < 0 {
		return -1
	}
	return start + end + 1
}
