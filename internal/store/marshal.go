package store

import (
	"bytes"
	"fmt"

	"github.com/roach88/traitc/internal/codec"
	"github.com/roach88/traitc/internal/digest"
	"github.com/roach88/traitc/internal/trait"
)

// marshalComponent encodes c for the blobs table and returns the body
// together with its content digest.
func marshalComponent(c *trait.Component) ([]byte, string, error) {
	sum, err := digest.Component(c)
	if err != nil {
		return nil, "", fmt.Errorf("marshal component %s: %w", c.Name, err)
	}

	var buf bytes.Buffer
	if err := codec.EncodeComponent(&buf, c); err != nil {
		return nil, "", fmt.Errorf("marshal component %s: %w", c.Name, err)
	}
	return buf.Bytes(), sum, nil
}

// unmarshalComponent decodes a blob body.
func unmarshalComponent(body []byte, opts ...trait.ComponentOption) (*trait.Component, error) {
	c, err := codec.DecodeComponent(bytes.NewReader(body), opts...)
	if err != nil {
		return nil, fmt.Errorf("unmarshal component: %w", err)
	}
	return c, nil
}
