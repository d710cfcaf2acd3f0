package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// maxToolPayloadLen bounds argument payloads before extraction to avoid
// pathological inputs.
const maxToolPayloadLen = 64 * 1024

// ErrNoJSONObject indicates a tool-call payload contained no well-formed
// JSON object.
var ErrNoJSONObject = errors.New("no well-formed JSON object in payload")

// ExtractUpdateArgs parses the sensitive tool's argument payload into a
// validated change set. The payload may be a JSON object or free text that
// embeds one; the first well-formed object wins. Malformed input fails
// closed with an error rather than yielding partial data. The identity field
// is stripped, since the thread already carries it.
func ExtractUpdateArgs(payload string) (map[string]any, error) {
	if len(payload) > maxToolPayloadLen {
		return nil, fmt.Errorf("tool payload too large: %d bytes", len(payload))
	}

	obj, err := firstJSONObject(payload)
	if err != nil {
		return nil, err
	}

	delete(obj, "user_id")
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: no requested changes", ErrNoJSONObject)
	}
	return obj, nil
}

// firstJSONObject scans the payload for the first decodable top-level JSON
// object. Candidates start at every '{'; the decoder rejects anything that
// is not a complete object.
func firstJSONObject(s string) (map[string]any, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil {
			return obj, nil
		}
	}
	return nil, ErrNoJSONObject
}
