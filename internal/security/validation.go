package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Payload limits applied to JSON read from remote services.
const (
	DefaultMaxPayloadSize = 4 << 20 // 4 MiB
	DefaultMaxJSONDepth   = 32
)

// Validation errors.
var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	ErrJSONTooDeep     = errors.New("JSON nesting exceeds maximum depth")
	ErrInvalidJSON     = errors.New("invalid JSON")
)

// ReadJSON reads at most maxSize bytes from r and checks that they hold
// well-formed JSON nested no deeper than maxDepth. Non-positive limits take
// the defaults. Empty input is returned as is.
func ReadJSON(r io.Reader, maxSize, maxDepth int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxPayloadSize
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(maxSize)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, maxSize)
	}
	if err := ValidateJSONDepth(data, maxDepth); err != nil {
		return nil, err
	}
	return data, nil
}

// ValidateJSONDepth checks that data is well-formed JSON nested no deeper
// than limit levels. Non-positive limit takes DefaultMaxJSONDepth.
func ValidateJSONDepth(data []byte, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxJSONDepth
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if depth != 0 {
				return fmt.Errorf("%w: unexpected end of input", ErrInvalidJSON)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}

		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > limit {
				return fmt.Errorf("%w: depth %d (max %d)", ErrJSONTooDeep, depth, limit)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}
