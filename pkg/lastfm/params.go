package lastfm

import (
	"net/url"
	"strconv"
)

// Param is a single name/value pair sent to the API.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered set of request parameters. Names are expected to be
// unique; callers are responsible for not adding the same name twice.
type Params []Param

// Get returns the value for name and whether it was present.
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// With returns a copy of p with one more pair appended. p is not modified.
func (p Params) With(name, value string) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	return append(out, Param{Name: name, Value: value})
}

// Compact returns a copy of p without the pairs whose value is empty.
// Last.fm rejects empty-valued parameters.
func (p Params) Compact() Params {
	out := make(Params, 0, len(p))
	for _, param := range p {
		if param.Value != "" {
			out = append(out, param)
		}
	}
	return out
}

// Values converts p to url.Values for encoding on the wire.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, param := range p {
		v.Add(param.Name, param.Value)
	}
	return v
}

// itoa formats positive integers and leaves zero empty so that Compact drops it.
func itoa(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
