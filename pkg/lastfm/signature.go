package lastfm

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm/internal/digest"
)

// SignatureParamName is the name of the parameter carrying the request signature.
const SignatureParamName = "api_sig"

// Signature generates an MD5 signature for Last.fm API requests.
//
// The signature is calculated by:
// 1. Sorting parameters by name (plain byte ordering)
// 2. Concatenating name+value pairs (e.g., "keyAvalueAkeyBvalueB")
// 3. Appending the API secret
// 4. Taking the MD5 hash of the result, rendered as lowercase hex
//
// params must not contain the signature itself or the format parameter.
// Empty values are not filtered here; use Params.Compact first.
func Signature(params Params, secret string) string {
	sorted := make(Params, len(params))
	copy(sorted, params)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var b strings.Builder
	for _, p := range sorted {
		b.WriteString(p.Name)
		b.WriteString(p.Value)
	}
	b.WriteString(secret)

	sum := digest.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SignatureParam returns the api_sig pair for params.
func SignatureParam(params Params, secret string) Param {
	return Param{Name: SignatureParamName, Value: Signature(params, secret)}
}

// AppendSignature returns a copy of params with the api_sig pair appended.
func AppendSignature(params Params, secret string) Params {
	sig := SignatureParam(params, secret)
	return params.With(sig.Name, sig.Value)
}
