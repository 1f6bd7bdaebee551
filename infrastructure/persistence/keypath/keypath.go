// Package keypath builds and checks the slash separated paths of the
// key-path store and encodes collection reads.
package keypath

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	usersRoot  = "users"
	ideasChild = "ideas"
)

// forbidden in any segment, matching hosted realtime databases
const forbidden = ".#$[]"

// Validate checks that path is made of non-empty segments without forbidden
// characters.
func Validate(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	for _, seg := range strings.Split(path, "/") {
		if err := ValidateSegment(seg); err != nil {
			return fmt.Errorf("invalid path %q: %w", path, err)
		}
	}
	return nil
}

// ValidateSegment checks a single key.
func ValidateSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("empty segment")
	}
	if strings.Contains(seg, "/") {
		return fmt.Errorf("segment %q contains '/'", seg)
	}
	if strings.ContainsAny(seg, forbidden) {
		return fmt.Errorf("segment %q contains one of %q", seg, forbidden)
	}
	return nil
}

// Join builds a path from segments, validating each.
func Join(segments ...string) (string, error) {
	for _, seg := range segments {
		if err := ValidateSegment(seg); err != nil {
			return "", err
		}
	}
	return strings.Join(segments, "/"), nil
}

// Split returns the parent path and the last key of path. A single segment
// path has an empty parent.
func Split(path string) (parent, key string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// Ideas is the collection path users/{userID}/ideas.
func Ideas(userID string) (string, error) {
	return Join(usersRoot, userID, ideasChild)
}

// Idea is the record path users/{userID}/ideas/{ideaID}.
func Idea(userID, ideaID string) (string, error) {
	return Join(usersRoot, userID, ideasChild, ideaID)
}

// Child is one entry of a collection.
type Child struct {
	Key   string
	Value json.RawMessage
}

// SortChildren orders children the way collection reads return them: keys
// that look like non-negative integers first, in numeric order, then all
// other keys lexicographically.
func SortChildren(children []Child) {
	sort.SliceStable(children, func(i, j int) bool {
		return LessKey(children[i].Key, children[j].Key)
	})
}

// LessKey is the collection key order.
func LessKey(a, b string) bool {
	an, bn := isIntegerKey(a), isIntegerKey(b)
	switch {
	case an && bn:
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	case an:
		return true
	case bn:
		return false
	default:
		return a < b
	}
}

func isIntegerKey(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// EncodeChildren renders children as one JSON object, keys in collection
// order.
func EncodeChildren(children []Child) ([]byte, error) {
	sorted := append([]Child(nil), children...)
	SortChildren(sorted)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		if !json.Valid(c.Value) {
			return nil, fmt.Errorf("child %q holds invalid JSON", c.Key)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(c.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeChildren parses a collection object keeping the key order of data.
func DecodeChildren(data []byte) ([]Child, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("collection is not a JSON object")
	}

	var children []Child
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("child %q: %w", key, err)
		}
		children = append(children, Child{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return children, nil
}
