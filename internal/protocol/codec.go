package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode builds one outbound frame. A json.RawMessage payload is spliced in as is,
// so relayed bytes reach the receiver unchanged; anything else goes through json.Marshal.
func Encode(typ string, payload any) ([]byte, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		return encodeRaw(typ, raw)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}
	return encodeRaw(typ, body)
}

func encodeRaw(typ string, raw []byte) ([]byte, error) {
	t, err := json.Marshal(typ)
	if err != nil {
		return nil, fmt.Errorf("encode type: %w", err)
	}
	if len(raw) == 0 {
		raw = []byte("null")
	}
	buf := make([]byte, 0, len(t)+len(raw)+22)
	buf = append(buf, `{"type":`...)
	buf = append(buf, t...)
	buf = append(buf, `,"payload":`...)
	buf = append(buf, raw...)
	buf = append(buf, '}')
	return buf, nil
}
