package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/traitc/internal/trait"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Step     int    // Step index
	Op       string // Step op
	Field    string // Expectation that failed, e.g. "signatures"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "step %d (%s): expectation failed", e.Step, e.Op)
	if e.Field != "" {
		fmt.Fprintf(&buf, ": %s", e.Field)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// CheckExpect validates c and the step's diagnostics against the step's
// expect clause and returns one message per failed expectation.
func CheckExpect(index int, step Step, c *trait.Component, errs *trait.ErrorList) []string {
	e := step.Expect
	if e == nil {
		return nil
	}

	var failures []string
	fail := func(field, expected, actual string) {
		failures = append(failures, (&AssertionError{
			Step:     index,
			Op:       step.Op,
			Field:    field,
			Expected: expected,
			Actual:   actual,
		}).Error())
	}

	if e.Mode != "" && e.Mode != c.Mode.String() {
		fail("mode", e.Mode, c.Mode.String())
	}

	sigs := c.Signatures()
	if e.Signatures != nil && !slices.Equal(e.Signatures, sigs) {
		fail("signatures", fmt.Sprint(e.Signatures), fmt.Sprint(sigs))
	}
	for _, sig := range e.Absent {
		if slices.Contains(sigs, sig) {
			fail("absent", sig+" absent", sig+" present")
		}
	}

	codes := errs.Codes()
	if e.Clean && len(codes) > 0 {
		fail("clean", "no diagnostics", fmt.Sprint(codes))
	}
	for _, code := range e.Diagnostics {
		if !errs.Has(trait.Code(code)) {
			fail("diagnostics", code+" reported", fmt.Sprint(codes))
		}
	}

	for _, sig := range sortedKeys(e.Behaviors) {
		b, ok := c.Behavior(sig)
		if !ok {
			fail("behaviors["+sig+"]", "behavior present", "not found")
			continue
		}
		checkBehavior(b, e.Behaviors[sig], func(field, expected, actual string) {
			fail("behaviors["+sig+"]."+field, expected, actual)
		})
	}
	return failures
}

func checkBehavior(b *trait.Behavior, e BehaviorExpect, fail func(field, expected, actual string)) {
	if e.Flags != "" {
		if got := b.Flags.Describe(false); got != e.Flags {
			fail("flags", e.Flags, got)
		}
	}
	if e.Specified != "" {
		if got := b.Flags.Describe(true); got != e.Specified {
			fail("specified", e.Specified, got)
		}
	}
	if e.Returns != "" {
		if got := b.Return.Type.String(); got != e.Returns {
			fail("returns", e.Returns, got)
		}
	}
	if e.Throws != nil {
		if got := b.Exceptions.Throwable(); !slices.Equal(e.Throws, got) {
			fail("throws", fmt.Sprint(e.Throws), fmt.Sprint(got))
		}
	}
	if e.Scripts != nil && *e.Scripts != len(b.Scripts) {
		fail("scripts", fmt.Sprint(*e.Scripts), fmt.Sprint(len(b.Scripts)))
	}
	if e.Interfaces != nil && !slices.Equal(e.Interfaces, b.Origin.Interfaces) {
		fail("interfaces", fmt.Sprint(e.Interfaces), fmt.Sprint(b.Origin.Interfaces))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
