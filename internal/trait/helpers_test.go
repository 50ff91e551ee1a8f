package trait

import (
	"github.com/google/uuid"

	"github.com/roach88/traitc/internal/testutil"
)

var (
	ioException       = ClassType("java.io.IOException")
	fileNotFound      = ClassType("java.io.FileNotFoundException")
	illegalState      = ClassType("java.lang.IllegalStateException")
	stringType        = ClassType("java.lang.String")
	derivationOwner   = Facts{Name: "Account", Mode: Resolved, ExtractAs: Derivation}
	modificationOwner = Facts{Name: "Account", Mode: Resolved, ExtractAs: Modification}
)

func uid(n uint64) uuid.UUID {
	return testutil.UID(n)
}

func declared(n uint64) Trait {
	return Trait{UID: uid(n), Mode: Resolved, Origin: Origin{Level: OriginThis, Manual: true}}
}

func resolvedParam(n uint64, typ DataType, name string) Parameter {
	return Parameter{Trait: declared(n), Type: typ, Name: name}
}

func deltaParam(n uint64, mode Mode, typ DataType, name string) Parameter {
	return Parameter{Trait: Trait{UID: uid(n), Mode: mode}, Type: typ, Name: name}
}

func resolvedThrowee(n uint64, typ DataType, exists Existence) Throwee {
	return Throwee{Trait: declared(n), Type: typ, Exists: Unspec(exists)}
}

func script(n uint64, mode Mode, level OriginLevel, text string) Implementation {
	return Implementation{
		Trait:    Trait{UID: uid(n), Mode: mode, Origin: Origin{Level: level}},
		Language: "java",
		Script:   text,
	}
}

// resolvedBehavior builds a public, concrete behavior declared at this level.
func resolvedBehavior(n uint64, name string, ret DataType, params ...Parameter) *Behavior {
	return &Behavior{
		Trait: declared(n),
		Name:  name,
		Flags: Flags{
			Exists: Unspec(ExistsInsert),
			Access: Unspec(AccessPublic),
		},
		Return: ReturnValue{Trait: declared(n + 100), Type: ret},
		Params: params,
	}
}
