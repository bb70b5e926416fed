package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lookup walks a dotted path through decoded JSON objects.
func Lookup(doc interface{}, path string) (interface{}, bool) {
	cur := doc
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString returns the value at path rendered as a string. Numbers
// are formatted without exponent so numeric ids survive.
func LookupString(doc interface{}, path string) (string, bool) {
	v, ok := Lookup(doc, path)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	case float64:
		return fmt.Sprintf("%.0f", t), true
	case bool:
		return fmt.Sprintf("%t", t), true
	}
	return "", false
}

// Decode parses a callback body keeping numbers as json.Number.
func Decode(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
