package trait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags_PackUnpack(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
	}{
		{"zero", Flags{}},
		{"resolved public static", Flags{
			Exists: Unspec(ExistsUpdate),
			Access: Unspec(AccessPublic),
			Static: Unspec(true),
		}},
		{"specified delta", Flags{
			Exists:     Spec(ExistsDelete),
			Access:     Spec(AccessPrivate),
			Visibility: Spec(VisibilitySystem),
			Sync:       Spec(true),
			Abstract:   Spec(false),
			Final:      Spec(true),
			Deprecated: Spec(true),
			Remote:     Spec(true),
		}},
		{"value without shadow", Flags{
			Exists:     Unspec(ExistsNot),
			Access:     Unspec(AccessPackage),
			Visibility: Unspec(VisibilityHidden),
			Abstract:   Unspec(true),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word := tt.flags.Pack()
			assert.Equal(t, tt.flags, UnpackFlags(word))
		})
	}
}

func TestFlags_PackLayout(t *testing.T) {
	f := Flags{Exists: Spec(ExistsDelete), Access: Unspec(AccessPrivate)}
	word := f.Pack()

	assert.Equal(t, uint32(1), word&existsSpecified)
	assert.Equal(t, uint32(ExistsDelete), word&existsMask>>existsShift)
	assert.Zero(t, word&accessSpecified)
	assert.Equal(t, uint32(AccessPrivate), word&accessMask>>accessShift)
	assert.Zero(t, Flags{}.Pack()&AllSpecified)
}

func TestFlags_ClearSpecified(t *testing.T) {
	f := Flags{Access: Spec(AccessProtected), Final: Spec(true), Remote: Spec(false)}
	require.True(t, f.AnySpecified())

	cleared := f.ClearSpecified()
	assert.False(t, cleared.AnySpecified())
	assert.Equal(t, AccessProtected, cleared.Access.Value)
	assert.True(t, cleared.Final.Value)
}

func TestDirection_PackUnpack(t *testing.T) {
	for _, d := range []Field[Direction]{Unspec(DirIn), Spec(DirOut), Spec(DirInOut), Unspec(DirInOut)} {
		assert.Equal(t, d, UnpackDirection(PackDirection(d)))
	}
}

func TestExistence_PackUnpack(t *testing.T) {
	for _, e := range []Field[Existence]{Unspec(ExistsInsert), Spec(ExistsUpdate), Spec(ExistsDelete), Unspec(ExistsNot)} {
		word := PackExistence(e)
		assert.Zero(t, word&^(existsSpecified|existsMask))
		assert.Equal(t, e, UnpackExistence(word))
	}
}

func TestFlags_Describe(t *testing.T) {
	f := Flags{
		Exists: Unspec(ExistsUpdate),
		Access: Unspec(AccessPublic),
		Static: Unspec(true),
		Final:  Spec(true),
	}

	assert.Equal(t, "update public no-monitor static concrete final current local visible", f.Describe(false))
	assert.Equal(t, "final", f.Describe(true))

	pkg := Flags{Exists: Unspec(ExistsNot), Access: Spec(AccessPackage)}
	assert.Equal(t, "package-private", pkg.Describe(true))
	assert.Contains(t, pkg.Describe(false), "non-existent")
}

func TestAccess_WiderThan(t *testing.T) {
	assert.True(t, AccessPublic.WiderThan(AccessProtected))
	assert.True(t, AccessProtected.WiderThan(AccessPackage))
	assert.True(t, AccessPackage.WiderThan(AccessPrivate))
	assert.False(t, AccessPrivate.WiderThan(AccessPrivate))
	assert.False(t, AccessProtected.WiderThan(AccessPublic))
}

func TestParseHelpers(t *testing.T) {
	a, err := ParseAccess("package-private")
	require.NoError(t, err)
	assert.Equal(t, AccessPackage, a)

	_, err = ParseAccess("friend")
	assert.Error(t, err)

	d, err := ParseDirection("B")
	require.NoError(t, err)
	assert.Equal(t, DirInOut, d)

	e, err := ParseExistence("non-existent")
	require.NoError(t, err)
	assert.Equal(t, ExistsNot, e)

	m, err := ParseMode("Modification")
	require.NoError(t, err)
	assert.Equal(t, Modification, m)
	assert.True(t, m.IsDelta())

	v, err := ParseVisibility("advanced")
	require.NoError(t, err)
	assert.Equal(t, VisibilityAdvanced, v)
}
