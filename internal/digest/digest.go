package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/traitc/internal/trait"
)

// Domain prefixes. The version suffix allows a later change of the
// canonical form without colliding with stored digests.
const (
	DomainBehavior  = "traitc/behavior/v1"
	DomainComponent = "traitc/component/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Of returns the digest of v's canonical form under domain.
func Of(domain string, v any) (string, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return hashWithDomain(domain, canonical), nil
}

// Behavior returns the digest of b.
func Behavior(b *trait.Behavior) (string, error) {
	d, err := Of(DomainBehavior, b)
	if err != nil {
		return "", fmt.Errorf("digest behavior %s: %w", b.Signature(), err)
	}
	return d, nil
}

// componentDoc is the hashed shape of a component.
type componentDoc struct {
	Facts     trait.Facts       `json:"facts"`
	Behaviors []*trait.Behavior `json:"behaviors"`
}

// Component returns the digest of c's facts and behaviors.
func Component(c *trait.Component) (string, error) {
	d, err := Of(DomainComponent, componentDoc{Facts: c.Facts, Behaviors: c.Behaviors()})
	if err != nil {
		return "", fmt.Errorf("digest component %s: %w", c.Name, err)
	}
	return d, nil
}

// MustComponent is like Component but panics on error. Use only in tests.
func MustComponent(c *trait.Component) string {
	d, err := Component(c)
	if err != nil {
		panic(err)
	}
	return d
}
