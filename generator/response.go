package generator

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// outputFields are tried in order; the first one present and not null wins.
var outputFields = []string{"output", "text"}

// ExtractOutput reads the generated text out of a 2xx response body. A body
// without any of the known fields yields "".
func ExtractOutput(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if root.Type == gjson.Null {
		return "", fmt.Errorf("%w: body is null", ErrMalformedResponse)
	}
	for _, field := range outputFields {
		v := root.Get(field)
		if v.Exists() && v.Type != gjson.Null {
			return v.String(), nil
		}
	}
	return "", nil
}
