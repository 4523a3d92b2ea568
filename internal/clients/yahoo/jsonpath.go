package yahoo

import (
	"github.com/PaesslerAG/jsonpath"
)

// number reads a numeric field that Yahoo sends either as a bare number or
// as {"raw": n, "fmt": "..."}.
func number(doc interface{}, path string) (float64, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case map[string]interface{}:
		if raw, ok := n["raw"].(float64); ok {
			return raw, true
		}
	}
	return 0, false
}

func text(doc interface{}, path string) string {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func list(doc interface{}, path string) []interface{} {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	items, _ := v.([]interface{})
	return items
}

func stringList(doc interface{}, path string) []string {
	var out []string
	for _, item := range list(doc, path) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
