package pluginhost

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
	"github.com/yaklabco/nllint/pkg/textanalysis"
)

// LintRequest is sent to a rule module's lint export. Nodes is a batched
// array of matching nodes (never a single node at a time) so that one
// call amortizes the WASM boundary crossing across an entire file (or
// block, for Block-isolation rules).
type LintRequest struct {
	Nodes     []*ast.Projection `json:"nodes" msgpack:"nodes"`
	Config    map[string]any    `json:"config" msgpack:"config"`
	Source    string            `json:"source" msgpack:"source"`
	FilePath  string            `json:"file_path,omitempty" msgpack:"file_path,omitempty"`
	Tokens    []wireToken       `json:"tokens,omitempty" msgpack:"tokens,omitempty"`
	Sentences []wireSentence    `json:"sentences,omitempty" msgpack:"sentences,omitempty"`
}

type wireToken struct {
	Surface string `json:"surface" msgpack:"surface"`
	Start   int    `json:"start" msgpack:"start"`
	End     int    `json:"end" msgpack:"end"`
	POS     string `json:"pos,omitempty" msgpack:"pos,omitempty"`
}

type wireSentence struct {
	Text  string `json:"text" msgpack:"text"`
	Start int    `json:"start" msgpack:"start"`
	End   int    `json:"end" msgpack:"end"`
}

// LintResponse is what a rule module's lint export returns.
type LintResponse struct {
	Diagnostics []wireDiagnostic `json:"diagnostics" msgpack:"diagnostics"`
}

type wireDiagnostic struct {
	RuleID   string    `json:"rule_id,omitempty" msgpack:"rule_id,omitempty"`
	Message  string    `json:"message" msgpack:"message"`
	Start    int       `json:"start" msgpack:"start"`
	End      int       `json:"end" msgpack:"end"`
	Severity string    `json:"severity,omitempty" msgpack:"severity,omitempty"`
	Fix      *wireFix  `json:"fix,omitempty" msgpack:"fix,omitempty"`
}

type wireFix struct {
	Start       int    `json:"start" msgpack:"start"`
	End         int    `json:"end" msgpack:"end"`
	Replacement string `json:"replacement" msgpack:"replacement"`
}

// Codec selects the wire encoding used between host and module.
type Codec string

const (
	CodecMsgPack Codec = "msgpack"
	CodecJSON    Codec = "json"
)

// EncodeRequest serializes req using the given codec. MessagePack is the
// fast path and the codec PluginHost uses for every loaded rule; JSON is
// the normative fallback (spec.md §4.4). A manifest has no field for a
// codec preference, so the host never selects JSON on its own.
func EncodeRequest(req *LintRequest, codec Codec) ([]byte, error) {
	if codec == CodecMsgPack {
		return msgpack.Marshal(req)
	}
	return json.Marshal(req)
}

// DecodeResponse deserializes resp using the given codec.
func DecodeResponse(data []byte, codec Codec) (*LintResponse, error) {
	var resp LintResponse
	var err error
	if codec == CodecMsgPack {
		err = msgpack.Unmarshal(data, &resp)
	} else {
		err = json.Unmarshal(data, &resp)
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// toDiagnostics converts a decoded wire response into diag.Diagnostic
// values, assigning ruleID to every one of them regardless of what
// rule_id field (if any) the module itself populated — the host, never
// the module, owns rule identity.
func toDiagnostics(resp *LintResponse, ruleID string) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(resp.Diagnostics))
	for _, wd := range resp.Diagnostics {
		d := diag.Diagnostic{
			RuleID:   ruleID,
			Message:  wd.Message,
			Span:     ast.Span{Start: wd.Start, End: wd.End},
			Severity: diag.Severity(wd.Severity),
		}
		if d.Severity == "" {
			d.Severity = diag.SeverityWarning
		}
		if wd.Fix != nil {
			d.Fix = &diag.Fix{
				Span:        ast.Span{Start: wd.Fix.Start, End: wd.Fix.End},
				Replacement: wd.Fix.Replacement,
			}
		}
		out = append(out, d)
	}
	return out
}

func tokensToWire(tokens []textanalysis.Token) []wireToken {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]wireToken, len(tokens))
	for i, t := range tokens {
		out[i] = wireToken{Surface: t.Surface, Start: t.Span.Start, End: t.Span.End, POS: t.POS}
	}
	return out
}

func sentencesToWire(sentences []textanalysis.Sentence) []wireSentence {
	if len(sentences) == 0 {
		return nil
	}
	out := make([]wireSentence, len(sentences))
	for i, s := range sentences {
		out[i] = wireSentence{Text: s.Text, Start: s.Span.Start, End: s.Span.End}
	}
	return out
}
