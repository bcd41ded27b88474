// Package pluginhost loads, configures, and invokes rule modules
// compiled to WebAssembly, enforcing the resource limits and node-type
// filtering spec.md §4.4 requires. It never trusts a rule's own
// self-reported rule_id: every diagnostic is tagged with the alias the
// host loaded the rule under.
package pluginhost

import "encoding/json"

// IsolationLevel declares how much of a file a rule is allowed to see in
// a single invocation.
type IsolationLevel string

const (
	// IsolationGlobal rules receive the whole file's matching nodes in
	// one call and may reason about cross-block context.
	IsolationGlobal IsolationLevel = "global"
	// IsolationBlock rules are invoked once per top-level block and must
	// not assume anything about other blocks in the file.
	IsolationBlock IsolationLevel = "block"
)

// Manifest is a rule module's self-description, returned by its
// get_manifest export.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Fixable     bool            `json:"fixable"`
	NodeTypes   []string        `json:"node_types"`
	Isolation   IsolationLevel  `json:"isolation_level"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}

// MatchesAny reports whether any of characteristics intersects the
// manifest's declared node_types. An empty NodeTypes list matches
// nothing — a rule that wants every node must say so explicitly by
// listing every kind it cares about.
func (m Manifest) MatchesAny(characteristics map[string]bool) bool {
	for _, nt := range m.NodeTypes {
		if characteristics[nt] {
			return true
		}
	}
	return false
}

// decodeManifest unmarshals a get_manifest response. Unlike lint
// requests/responses, the manifest is always JSON: it is tiny, read once
// per rule load, and needs to stay readable when a module's manifest is
// dumped for debugging.
func decodeManifest(data []byte, m *Manifest) error {
	return json.Unmarshal(data, m)
}
