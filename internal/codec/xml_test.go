package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitc/internal/trait"
)

func TestXML_BehaviorRoundTrip(t *testing.T) {
	for name, b := range map[string]*trait.Behavior{
		"full": debit(),
		"bare": bare(),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := MarshalBehaviorXML(b)
			require.NoError(t, err)

			got, err := UnmarshalBehaviorXML(data)
			require.NoError(t, err)
			assert.Equal(t, b, got)
		})
	}
}

func TestXML_BehaviorLayout(t *testing.T) {
	data, err := MarshalBehaviorXML(debit())
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out,
		`<behavior uid="00000000-0000-0000-0000-000000000001" mode="resolved" origin="super" integration="bank">`))
	for _, want := range []string{
		`<interface>demo.Ledger</interface>`,
		`<name>debit</name>`,
		`<flags desc="update protected synchronized instance concrete final current remote advanced">0x0019069a</flags>`,
		`<return-value uid="00000000-0000-0000-0000-000000000002" mode="resolved" origin="this" manual="true" type="Z"></return-value>`,
		`<param uid="00000000-0000-0000-0000-000000000003" mode="resolved" origin="this" manual="true" type="J" name="amount" direction="0x00000000"></param>`,
		`<exception name="demo.Overdrawn" uid="00000000-0000-0000-0000-000000000006" mode="resolved" origin="super" type="Ldemo/Overdrawn;" exists="0x00000005"></exception>`,
		`<base-implementations>1</base-implementations>`,
	} {
		assert.Contains(t, out, want)
	}

	// exceptions are written in key order
	assert.Less(t, strings.Index(out, `name="demo.Overdrawn"`), strings.Index(out, `name="java.io.IOException"`))
	assert.NotContains(t, out, "<override-base>")
}

func TestXML_ComponentRoundTrip(t *testing.T) {
	c := account()

	var buf bytes.Buffer
	require.NoError(t, WriteComponentXML(&buf, c))
	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))
	assert.Contains(t, buf.String(),
		`<component name="demo.Account" super="demo.Base" mode="resolved" extract-as="derivation" remote="true">`)

	got, err := ReadComponentXML(&buf)
	require.NoError(t, err)
	assert.Equal(t, c.Facts, got.Facts)
	assert.Equal(t, c.Behaviors(), got.Behaviors())
}

func TestXML_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "bad mode",
			doc:  `<behavior mode="sideways"><name>f</name><flags>0x0</flags><prev-flags>0x0</prev-flags><return-value mode="resolved" type="V"></return-value></behavior>`,
			want: `invalid mode "sideways"`,
		},
		{
			name: "bad flag word",
			doc:  `<behavior mode="resolved"><name>f</name><flags>public</flags><prev-flags>0x0</prev-flags><return-value mode="resolved" type="V"></return-value></behavior>`,
			want: `flag word "public"`,
		},
		{
			name: "bad uid",
			doc:  `<behavior uid="nope" mode="resolved"><name>f</name><flags>0x0</flags><prev-flags>0x0</prev-flags><return-value mode="resolved" type="V"></return-value></behavior>`,
			want: `uid "nope"`,
		},
		{
			name: "base implementations without scripts",
			doc:  `<behavior mode="resolved"><name>f</name><flags>0x0</flags><prev-flags>0x0</prev-flags><return-value mode="resolved" type="V"></return-value><override-base>true</override-base><base-implementations>2</base-implementations></behavior>`,
			want: "base implementation count 2 outside 0 scripts",
		},
		{
			name: "malformed",
			doc:  `<behavior`,
			want: "unmarshal behavior",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalBehaviorXML([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestXML_RejectsBaseImplementationCount(t *testing.T) {
	b := debit()
	b.OverrideBase = true
	b.BaseLevelImpl = len(b.Scripts)
	data, err := MarshalBehaviorXML(b)
	require.NoError(t, err)
	_, err = UnmarshalBehaviorXML(data)
	require.NoError(t, err)

	b.BaseLevelImpl = len(b.Scripts) + 1
	data, err = MarshalBehaviorXML(b)
	require.NoError(t, err)
	_, err = UnmarshalBehaviorXML(data)
	assert.ErrorIs(t, err, ErrCorrupt)
}
