// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relate discovers, ranks, and enriches related articles through
// the ELink and ESummary endpoints. The E-utilities JSON is generated from
// XML and is shape-ambiguous: a field may arrive as a scalar, as an
// object wrapping the value under a text-payload key, as an array of any
// mixture of those, or not at all. Every consumer in this package
// reads payload fields through the normalizer in this file.
// See docs/ARCHITECTURE § Related Articles.
package relate

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// textKey is the payload key of a wrapped scalar, the artifact that
// XML-to-JSON conversion leaves behind ({"_text":"123"} for <Id>123</Id>).
const textKey = "_text"

// Node is the normalized form of one element of a shape-ambiguous payload
// field: the resolved string value, plus the numeric reading for
// score-like fields.
type Node struct {
	// Text is the resolved scalar, whitespace-trimmed. Empty when the
	// payload was absent or unusable.
	Text string

	// Num is the numeric reading of Text, nil when Text is not a number.
	Num *float64
}

// MarshalJSON emits the canonical wrapped-scalar form. Normalizing an
// already-normalized (marshaled) sequence therefore yields an equal
// sequence; Num is derived from Text and carries no extra information.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{textKey: n.Text})
}

// AsList splits a raw payload field into its elements: nil for absent or
// null input, the elements in order for an array, and a one-element list
// for anything else. Single-child XML nodes surface in the converted JSON
// as bare values rather than one-element arrays, so every "one or many"
// field goes through here.
func AsList(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			// Malformed array text still yields a sequence.
			return []json.RawMessage{raw}
		}
		return items
	}
	return []json.RawMessage{raw}
}

// Normalize resolves a payload field of unknown shape (scalar, wrapped
// scalar, a list of either, or absent) into a flat ordered list of
// Nodes. It is total: every input maps to some sequence, malformed
// elements become empty-text Nodes, and numeric coercion failure just
// leaves Num nil. Callers are responsible for filtering empty ids.
func Normalize(raw json.RawMessage) []Node {
	elems := AsList(raw)
	if len(elems) == 0 {
		return nil
	}
	nodes := make([]Node, 0, len(elems))
	for _, e := range elems {
		nodes = append(nodes, resolveScalar(e))
	}
	return nodes
}

// resolveScalar reads one scalar-or-wrapped element into a Node.
func resolveScalar(raw json.RawMessage) Node {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return Node{}
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Node{}
		}
		return nodeFromText(s)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Node{}
		}
		payload, ok := obj[textKey]
		if !ok {
			// A wrapped value whose text payload is absent resolves to
			// the empty string, never to an error.
			return Node{}
		}
		return resolveScalar(payload)
	case '[':
		// A nested list is not a scalar; treat it as an absent payload.
		return Node{}
	default:
		// Bare token: a JSON number, or true/false. The raw token text is
		// the resolved value, so numbers keep their exact source form.
		return nodeFromText(string(trimmed))
	}
}

// nodeFromText builds a Node from a resolved string, attempting numeric
// coercion for score-like consumers.
func nodeFromText(s string) Node {
	s = strings.TrimSpace(s)
	n := Node{Text: s}
	if s == "" {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n.Num = &f
	}
	return n
}

// firstText returns the text of the first normalized node, or "".
func firstText(raw json.RawMessage) string {
	nodes := Normalize(raw)
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].Text
}

// firstNum returns the numeric value of the first normalized node, or nil.
func firstNum(raw json.RawMessage) *float64 {
	nodes := Normalize(raw)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0].Num
}
