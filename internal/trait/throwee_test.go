package trait

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThrowee_ResolveAgainstResolvedBase(t *testing.T) {
	tests := []struct {
		name  string
		base  Existence
		delta Field[Existence]
		want  Field[Existence]
	}{
		{"present base, silent delta", ExistsInsert, Unspec(ExistsUpdate), Unspec(ExistsUpdate)},
		{"present base, delta removes", ExistsUpdate, Spec(ExistsDelete), Spec(ExistsDelete)},
		{"present base, delta restores", ExistsInsert, Spec(ExistsUpdate), Spec(ExistsUpdate)},
		{"deleted base", ExistsDelete, Spec(ExistsInsert), Unspec(ExistsNot)},
		{"absent base", ExistsNot, Spec(ExistsUpdate), Unspec(ExistsNot)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := resolvedThrowee(1, ioException, tt.base)
			delta := Throwee{Trait: Trait{UID: uid(1), Mode: Derivation}, Type: ioException, Exists: tt.delta}

			derived := base.resolve(delta, "p", nil)

			assert.Equal(t, tt.want, derived.Exists)
			assert.Equal(t, Resolved, derived.Mode)
		})
	}
}

// A removed exception stays removed whatever the delta says.
func TestThrowee_RemovalPropagates(t *testing.T) {
	for _, b := range []Existence{ExistsDelete, ExistsNot} {
		for _, d := range []Existence{ExistsInsert, ExistsUpdate, ExistsDelete, ExistsNot} {
			for _, spec := range []bool{false, true} {
				base := resolvedThrowee(1, ioException, b)
				delta := Throwee{Type: ioException, Exists: Field[Existence]{Value: d, Specified: spec}}
				assert.False(t, base.resolve(delta, "p", nil).IsThrowable(), "base %s delta %s", b, d)
			}
		}
	}
}

func TestThrowee_ResolveAgainstDeltaBase(t *testing.T) {
	base := Throwee{Trait: Trait{UID: uid(1), Mode: Modification}, Type: ioException, Exists: Spec(ExistsDelete)}

	derived := base.resolve(Throwee{Type: ioException, Exists: Unspec(ExistsUpdate)}, "p", nil)
	assert.Equal(t, Spec(ExistsDelete), derived.Exists)

	derived = base.resolve(Throwee{Type: ioException, Exists: Spec(ExistsUpdate)}, "p", nil)
	assert.Equal(t, Spec(ExistsUpdate), derived.Exists)

	base.Exists = Unspec(ExistsInsert)
	derived = base.resolve(Throwee{Type: ioException}, "p", nil)
	assert.Equal(t, Unspec(ExistsUpdate), derived.Exists)
}

func TestThrowee_TypeMismatchKeepsBase(t *testing.T) {
	base := resolvedThrowee(1, ioException, ExistsInsert)
	errs := NewErrorList()

	derived := base.resolve(Throwee{Trait: Trait{UID: uid(1)}, Type: fileNotFound}, "p", errs)

	assert.Equal(t, ioException, derived.Type)
	assert.Equal(t, []Code{ResolveExceptTypeChange}, errs.Codes())
}

func TestThrowee_Extract(t *testing.T) {
	base := resolvedThrowee(1, ioException, ExistsInsert)

	removed := Throwee{Trait: declared(1), Type: ioException, Exists: Unspec(ExistsDelete)}
	assert.Equal(t, Spec(ExistsDelete), removed.extract(base, Derivation, "p", nil).Exists)

	kept := Throwee{Trait: declared(1), Type: ioException, Exists: Unspec(ExistsUpdate)}
	delta := kept.extract(base, Derivation, "p", nil)
	assert.Equal(t, Unspec(ExistsUpdate), delta.Exists)
	assert.Equal(t, Derivation, delta.Mode)

	// an unresolved base only records a removal the derived trait specified
	deltaBase := Throwee{Trait: Trait{UID: uid(1), Mode: Modification}, Type: ioException, Exists: Unspec(ExistsUpdate)}
	assert.Equal(t, Unspec(ExistsUpdate), removed.extract(deltaBase, Modification, "p", nil).Exists)
}

func TestThrowee_IsDiscardable(t *testing.T) {
	assert.True(t, resolvedThrowee(1, ioException, ExistsNot).isDiscardable())
	assert.False(t, resolvedThrowee(1, ioException, ExistsUpdate).isDiscardable())
	assert.True(t, Throwee{Trait: Trait{Mode: Resolved}, Type: ioException}.isDiscardable())

	assert.False(t, Throwee{Trait: Trait{Mode: Derivation}, Exists: Spec(ExistsDelete)}.isDiscardable())
	assert.True(t, Throwee{Trait: Trait{Mode: Derivation}, Exists: Unspec(ExistsUpdate)}.isDiscardable())
	assert.False(t, Throwee{Trait: Trait{Mode: Derivation, Tip: "why"}}.isDiscardable())
}

func TestThroweeTable(t *testing.T) {
	table := ThroweeTable{}
	table.Put(resolvedThrowee(1, illegalState, ExistsInsert))
	table.Put(resolvedThrowee(2, ioException, ExistsDelete))
	table.Put(resolvedThrowee(3, fileNotFound, ExistsUpdate))

	assert.Equal(t, []string{"java.io.FileNotFoundException", "java.io.IOException", "java.lang.IllegalStateException"}, table.Keys())
	assert.Equal(t, []string{"java.io.FileNotFoundException", "java.lang.IllegalStateException"}, table.Throwable())
	assert.Nil(t, ThroweeTable(nil).clone())
}
