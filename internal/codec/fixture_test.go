package codec

import (
	"github.com/roach88/traitc/internal/testutil"
	"github.com/roach88/traitc/internal/trait"
)

func declared(n uint64) trait.Trait {
	return trait.Trait{
		UID:    testutil.UID(n),
		Mode:   trait.Resolved,
		Origin: trait.Origin{Level: trait.OriginThis, Manual: true},
	}
}

// debit exercises every field the codecs carry.
func debit() *trait.Behavior {
	return &trait.Behavior{
		Trait: trait.Trait{
			UID:    testutil.UID(1),
			Mode:   trait.Resolved,
			Origin: trait.Origin{Level: trait.OriginSuper, Interfaces: []string{"demo.Ledger"}, Integration: "bank"},
			Tip:    "Debits the account",
			Text:   "Fails when the balance\nwould drop below zero.",
		},
		Name: "debit",
		Flags: trait.Flags{
			Exists:     trait.Unspec(trait.ExistsUpdate),
			Access:     trait.Spec(trait.AccessProtected),
			Visibility: trait.Unspec(trait.VisibilityAdvanced),
			Sync:       trait.Spec(true),
			Final:      trait.Unspec(true),
			Remote:     trait.Spec(true),
		},
		PrevFlags: trait.Flags{
			Exists: trait.Unspec(trait.ExistsUpdate),
			Access: trait.Unspec(trait.AccessPackage),
		},
		Return: trait.ReturnValue{Trait: declared(2), Type: trait.Boolean},
		Params: []trait.Parameter{
			{Trait: declared(3), Type: trait.Long, Name: "amount"},
			{Trait: declared(4), Type: trait.ClassType("java.lang.String"), Name: "memo", Direction: trait.Spec(trait.DirInOut)},
		},
		Exceptions: trait.ThroweeTable{
			"java.io.IOException": {
				Trait:  declared(5),
				Type:   trait.ClassType("java.io.IOException"),
				Exists: trait.Unspec(trait.ExistsUpdate),
			},
			"demo.Overdrawn": {
				Trait:  trait.Trait{UID: testutil.UID(6), Mode: trait.Resolved, Origin: trait.Origin{Level: trait.OriginSuper}},
				Type:   trait.ClassType("demo.Overdrawn"),
				Exists: trait.Spec(trait.ExistsDelete),
			},
		},
		Scripts: []trait.Implementation{
			{Trait: declared(7), Language: "java", Script: "  return super.debit(amount, memo);\n"},
			{Trait: trait.Trait{UID: testutil.UID(8), Mode: trait.Resolved, Origin: trait.Origin{Level: trait.OriginBase}}, Language: "java", Script: "return false;"},
		},
		BaseLevelImpl: 1,
	}
}

// bare has no parameters, exceptions or scripts.
func bare() *trait.Behavior {
	return &trait.Behavior{
		Trait: trait.Trait{Mode: trait.Modification},
		Name:  "close",
		Flags: trait.Flags{Exists: trait.Spec(trait.ExistsInsert)},
		Return: trait.ReturnValue{
			Trait: trait.Trait{Mode: trait.Modification},
			Type:  trait.Void,
		},
	}
}

func account(opts ...trait.ComponentOption) *trait.Component {
	c := trait.NewComponent(trait.Facts{
		Name:      "demo.Account",
		Super:     "demo.Base",
		Mode:      trait.Resolved,
		ExtractAs: trait.Derivation,
		Remote:    true,
	}, opts...)
	if err := c.Add(debit()); err != nil {
		panic(err)
	}
	b := bare()
	b.Mode = trait.Resolved
	b.Return.Mode = trait.Resolved
	b.Flags.Exists = trait.Unspec(trait.ExistsInsert)
	if err := c.Add(b); err != nil {
		panic(err)
	}
	return c
}
