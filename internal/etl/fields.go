package etl

import "strings"

// DirectorJob is the crew job that identifies the director.
const DirectorJob = "Director"

// DefaultCastLimit is how many leading cast members are kept.
const DefaultCastLimit = 5

// ParseField decodes a serialized list of records and returns, in order, the
// values stored under key. Entries without the key, or whose value is not a
// string or number, are skipped. Malformed text yields an empty slice.
func ParseField(text, key string) []string {
	out := []string{}
	for _, item := range items(text) {
		if v, ok := field(item, key); ok {
			out = append(out, v)
		}
	}
	return out
}

// Director returns the name of the first crew entry whose job is Director,
// or nil when that entry carries no name.
func Director(crew string) *string {
	for _, item := range items(crew) {
		if job, ok := field(item, "job"); !ok || job != DirectorJob {
			continue
		}
		if name, ok := field(item, "name"); ok {
			return &name
		}
		return nil
	}
	return nil
}

// Cast returns the names found among the first n cast entries in billing
// order. Every element of the list counts towards n, named or not.
func Cast(cast string, n int) []string {
	if n <= 0 {
		n = DefaultCastLimit
	}
	list := items(cast)
	if len(list) > n {
		list = list[:n]
	}
	out := []string{}
	for _, item := range list {
		if name, ok := field(item, "name"); ok {
			out = append(out, name)
		}
	}
	return out
}

// Join flattens a list into the text encoding used by the warehouse.
func Join(values []string) string {
	return strings.Join(values, ", ")
}

// items returns the elements of a list literal; anything that is not a list
// gives nil.
func items(text string) []interface{} {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v, err := decodeLiteral(text)
	if err != nil {
		return nil
	}
	list, _ := v.([]interface{})
	return list
}

// field reads key from a dict element. Other elements have no fields.
func field(item interface{}, key string) (string, bool) {
	rec, ok := item.(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := rec[key]
	if !ok {
		return "", false
	}
	return scalarString(v)
}
