package collab

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Recipients is the normalised share target list. On the wire it accepts a
// single username, a single numeric id, or an array mixing both.
type Recipients []string

func (r *Recipients) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = nil
		return nil
	}

	if b[0] != '[' {
		v, err := recipientValue(b)
		if err != nil {
			return err
		}
		*r = Recipients{v}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make(Recipients, 0, len(raw))
	for _, item := range raw {
		v, err := recipientValue(item)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	*r = out
	return nil
}

func recipientValue(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s, nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", errors.New("sharedWith entries must be usernames or user ids")
	}
	if _, err := n.Int64(); err != nil {
		return "", errors.New("sharedWith ids must be integers")
	}
	return n.String(), nil
}

// Normalize trims entries, drops blanks and removes exact duplicates while
// keeping the first occurrence order. Usernames are case-sensitive, so
// "Bob" and "bob" are different recipients.
func (r Recipients) Normalize() Recipients {
	seen := make(map[string]struct{}, len(r))
	out := make(Recipients, 0, len(r))

	for _, v := range r {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}

// AsID reports whether a recipient entry can also be read as a user id.
func AsID(ref string) (int64, bool) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type ShareRequest struct {
	SharedWith Recipients `json:"sharedWith" binding:"required"`
	Permission Permission `json:"permission" binding:"omitempty,oneof=view edit admin"`
}

// ShareResult reports what a share call changed.
type ShareResult struct {
	Granted    []Grant  `json:"-"`
	SharedWith []string `json:"sharedWith"`
	Skipped    []string `json:"skipped,omitempty"`
	Unresolved []string `json:"unresolved,omitempty"`
}
