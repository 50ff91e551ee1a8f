package trait

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitc/internal/testutil"
)

func inheritedBehavior(n uint64, name string, ret DataType, params ...Parameter) *Behavior {
	b := resolvedBehavior(n, name, ret, params...)
	b.Origin = Origin{Level: OriginSuper}
	b.PrevFlags = b.Flags
	return b
}

func requireVeto(t *testing.T, err error) *VetoError {
	t.Helper()
	var ve *VetoError
	require.True(t, errors.As(err, &ve), "expected veto, got %v", err)
	return ve
}

func TestApply_SetAccess(t *testing.T) {
	c := newTestComponent(t, Facts{Name: "Account", Mode: Resolved},
		resolvedBehavior(10, "debit", Void),
		inheritedBehavior(20, "balance", Long),
	)

	require.NoError(t, c.Apply(SetAccess{Signature: "debit()", Access: AccessProtected}))
	b, _ := c.Behavior("debit()")
	assert.Equal(t, Spec(AccessProtected), b.Flags.Access)

	ve := requireVeto(t, c.Apply(SetAccess{Signature: "debit()", Access: AccessPackage}))
	assert.Equal(t, errIllegalValue.Error(), ve.Reason)
	assert.Contains(t, ve.Error(), "set access of debit() to package")

	// inherited public behaviors stay public
	requireVeto(t, c.Apply(SetAccess{Signature: "balance()", Access: AccessProtected}))
	require.NoError(t, c.Apply(SetAccess{Signature: "balance()", Access: AccessPublic}))
}

func TestPropose_DoesNotApply(t *testing.T) {
	c := newTestComponent(t, Facts{Name: "Account", Mode: Resolved}, resolvedBehavior(10, "debit", Void))

	require.NoError(t, c.Propose(SetDeprecated{Signature: "debit()", Value: true}))
	b, _ := c.Behavior("debit()")
	assert.False(t, b.Flags.Deprecated.Value)

	require.NoError(t, c.Apply(SetDeprecated{Signature: "debit()", Value: true}))
	b, _ = c.Behavior("debit()")
	assert.Equal(t, Spec(true), b.Flags.Deprecated)
}

func TestApply_BehaviorNotFound(t *testing.T) {
	c := newTestComponent(t, Facts{Name: "Account", Mode: Resolved})

	err := c.Apply(SetDeprecated{Signature: "nope()", Value: true})
	assert.ErrorIs(t, err, ErrBehaviorNotFound)
	assert.False(t, IsVeto(err))
}

func TestApply_GuardRejects(t *testing.T) {
	errFrozen := errors.New("component is frozen")
	c := NewComponent(Facts{Name: "Account", Mode: Resolved},
		WithGuard(func(ch Change) error {
			if _, ok := ch.(RemoveBehavior); ok {
				return errFrozen
			}
			return nil
		}),
	)
	require.NoError(t, c.Add(resolvedBehavior(10, "debit", Void)))

	err := c.Apply(RemoveBehavior{Signature: "debit()"})
	ve := requireVeto(t, err)
	assert.Equal(t, "rejected by guard", ve.Reason)
	assert.ErrorIs(t, err, errFrozen)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Apply(SetSynchronized{Signature: "debit()", Value: true}))
}

func TestApply_FinalBehaviorIsReadOnly(t *testing.T) {
	b := inheritedBehavior(10, "close", Void)
	b.PrevFlags.Final = Unspec(true)
	c := newTestComponent(t, Facts{Name: "Account", Mode: Resolved}, b)

	ve := requireVeto(t, c.Apply(SetDeprecated{Signature: "close()", Value: true}))
	assert.Equal(t, errNotModifiable.Error(), ve.Reason)
}

func TestApply_ParametersKeepSignatureIndex(t *testing.T) {
	uids := testutil.NewSequenceUIDs()
	c := NewComponent(Facts{Name: "Account", Mode: Resolved}, WithUIDGenerator(uids))
	require.NoError(t, c.Add(resolvedBehavior(10, "debit", Void, resolvedParam(11, Long, "amount"))))

	require.NoError(t, c.Apply(AddParameter{Signature: "debit(J)", Index: -1, Type: stringType, Name: "memo"}))
	assert.Equal(t, []string{"debit(JLjava/lang/String;)"}, c.Signatures())

	b, ok := c.Behavior("debit(JLjava/lang/String;)")
	require.True(t, ok)
	memo := b.Params[1]
	assert.Equal(t, testutil.UID(1), memo.UID)
	assert.Equal(t, Origin{Level: OriginThis, Manual: true}, memo.Origin)
	assert.Equal(t, Unspec(DirIn), memo.Direction)

	require.NoError(t, c.Apply(MoveParameter{Signature: "debit(JLjava/lang/String;)", From: 1, To: 0}))
	require.NoError(t, c.Apply(SetName{Signature: "debit(Ljava/lang/String;J)", Name: "withdraw"}))
	require.NoError(t, c.Apply(SetParameterType{Signature: "withdraw(Ljava/lang/String;J)", Index: 1, Type: Int}))
	require.NoError(t, c.Apply(RemoveParameter{Signature: "withdraw(Ljava/lang/String;I)", Index: 0}))

	for _, sig := range c.Signatures() {
		b, _ := c.Behavior(sig)
		assert.Equal(t, sig, b.Signature())
	}
	assert.Equal(t, []string{"withdraw(I)"}, c.Signatures())
}

func TestApply_ParameterChecks(t *testing.T) {
	c := newTestComponent(t, Facts{Name: "Account", Mode: Resolved},
		resolvedBehavior(10, "debit", Void, resolvedParam(11, Long, "amount")),
		resolvedBehavior(20, "debit", Void),
	)

	tests := []struct {
		name   string
		change Change
		reason error
	}{
		{"duplicate name", AddParameter{Signature: "debit(J)", Index: 0, Type: Int, Name: "AMOUNT"}, errIllegalValue},
		{"void type", AddParameter{Signature: "debit(J)", Index: 0, Type: Void, Name: "x"}, errIllegalValue},
		{"index past end", AddParameter{Signature: "debit(J)", Index: 5, Type: Int, Name: "x"}, errBadIndex},
		{"collides with overload", RemoveParameter{Signature: "debit(J)", Index: 0}, errReserved},
		{"bad rename", SetParameterName{Signature: "debit(J)", Index: 0, Name: "2x"}, errIllegalValue},
		{"out on local behavior", SetParameterDirection{Signature: "debit(J)", Index: 0, Direction: DirOut}, errIllegalValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := requireVeto(t, c.Apply(tt.change))
			assert.Equal(t, tt.reason.Error(), ve.Reason)
		})
	}
	assert.Equal(t, []string{"debit()", "debit(J)"}, c.Signatures())
}

func TestApply_SetNameReserved(t *testing.T) {
	c := newTestComponent(t, Facts{Name: "Account", Mode: Resolved},
		resolvedBehavior(10, "debit", Void, resolvedParam(11, Long, "amount")),
		resolvedBehavior(20, "credit", Void, resolvedParam(21, Long, "amount")),
	)

	ve := requireVeto(t, c.Apply(SetName{Signature: "credit(J)", Name: "debit"}))
	assert.Equal(t, errReserved.Error(), ve.Reason)
	require.NoError(t, c.Apply(SetName{Signature: "credit(J)", Name: "credit"}))
}

func TestApply_AddAndRemoveBehavior(t *testing.T) {
	checker := ReservedFunc(func(_ *Component, sig string) bool {
		return sig == "getBalance()"
	})
	c := NewComponent(Facts{Name: "Account", Mode: Resolved},
		WithUIDGenerator(testutil.NewSequenceUIDs()),
		WithReservedChecker(checker),
	)
	require.NoError(t, c.Add(inheritedBehavior(10, "toString", stringType)))

	requireVeto(t, c.Apply(AddBehavior{Name: "__init", Return: Void}))
	requireVeto(t, c.Apply(AddBehavior{Name: "getBalance", Return: Long}))
	requireVeto(t, c.Apply(AddBehavior{Name: "close", Return: Void, Params: []ParamSpec{
		{Type: Int, Name: "a"}, {Type: Int, Name: "A"},
	}}))

	require.NoError(t, c.Apply(AddBehavior{Name: "transfer", Return: Void, Params: []ParamSpec{
		{Type: stringType, Name: "to"}, {Type: Long, Name: "amount"},
	}}))
	b, ok := c.Behavior("transfer(Ljava/lang/String;J)")
	require.True(t, ok)
	assert.Equal(t, Spec(ExistsInsert), b.Flags.Exists)
	assert.True(t, b.IsDeclaredAtThisLevel())
	assert.Len(t, b.Params, 2)

	requireVeto(t, c.Apply(RemoveBehavior{Signature: "toString()"}))
	require.NoError(t, c.Apply(RemoveBehavior{Signature: "transfer(Ljava/lang/String;J)"}))
	assert.Equal(t, []string{"toString()"}, c.Signatures())
}

func TestApply_Exceptions(t *testing.T) {
	declaredHere := resolvedBehavior(10, "open", Void)
	declaredHere.Exceptions = ThroweeTable{}
	declaredHere.Exceptions.Put(resolvedThrowee(11, ioException, ExistsInsert))

	inherited := inheritedBehavior(20, "read", Int)
	inherited.Exceptions = ThroweeTable{}
	e := resolvedThrowee(21, ioException, ExistsInsert)
	e.Origin = Origin{Level: OriginSuper}
	inherited.Exceptions.Put(e)

	c := newTestComponent(t, Facts{Name: "Stream", Mode: Resolved}, declaredHere, inherited)

	require.NoError(t, c.Apply(RemoveException{Signature: "open()", Name: "java.io.IOException"}))
	b, _ := c.Behavior("open()")
	assert.Empty(t, b.Exceptions)

	require.NoError(t, c.Apply(AddException{Signature: "open()", Type: fileNotFound}))
	b, _ = c.Behavior("open()")
	added, ok := b.Exception("java.io.FileNotFoundException")
	require.True(t, ok)
	assert.Equal(t, Spec(ExistsInsert), added.Exists)
	requireVeto(t, c.Apply(AddException{Signature: "open()", Type: Int}))

	require.NoError(t, c.Apply(RemoveException{Signature: "read()", Name: "java.io.IOException"}))
	b, _ = c.Behavior("read()")
	assert.Equal(t, Spec(ExistsDelete), b.Exceptions["java.io.IOException"].Exists)
	requireVeto(t, c.Apply(RemoveException{Signature: "read()", Name: "java.io.IOException"}))
	requireVeto(t, c.Apply(AddException{Signature: "read()", Type: illegalState}))

	require.NoError(t, c.Apply(UnremoveException{Signature: "read()", Name: "java.io.IOException"}))
	b, _ = c.Behavior("read()")
	assert.Equal(t, Spec(ExistsUpdate), b.Exceptions["java.io.IOException"].Exists)
}

func TestApply_Implementations(t *testing.T) {
	b := inheritedBehavior(10, "run", Void)
	b.Flags.Abstract = Unspec(true)
	b.PrevFlags.Abstract = Unspec(true)
	c := newTestComponent(t, Facts{Name: "Task", Mode: Resolved}, b)

	requireVeto(t, c.Apply(AddImplementation{Signature: "run()", Index: -1, Language: " "}))
	requireVeto(t, c.Apply(AddImplementation{Signature: "run()", Index: 1, Language: "java"}))

	require.NoError(t, c.Apply(AddImplementation{Signature: "run()", Index: -1, Language: "java", Script: "step1();"}))
	got, _ := c.Behavior("run()")
	assert.Equal(t, Spec(false), got.Flags.Abstract)
	assert.Equal(t, 1, got.ModifiableCount())

	require.NoError(t, c.Apply(AddImplementation{Signature: "run()", Index: -1, Language: "java", Script: "step2();"}))
	require.NoError(t, c.Apply(MoveImplementation{Signature: "run()", From: 1, To: 0}))
	got, _ = c.Behavior("run()")
	assert.Equal(t, "step2();", got.Scripts[0].Script)

	require.NoError(t, c.Apply(RemoveImplementation{Signature: "run()", Index: 0}))
	got, _ = c.Behavior("run()")
	assert.False(t, got.Flags.Abstract.Value)

	require.NoError(t, c.Apply(RemoveImplementation{Signature: "run()", Index: 0}))
	got, _ = c.Behavior("run()")
	assert.Equal(t, Spec(true), got.Flags.Abstract)
	assert.Zero(t, got.ModifiableCount())

	require.NoError(t, c.Apply(SetOverrideBase{Signature: "run()", Value: true}))
	got, _ = c.Behavior("run()")
	assert.True(t, got.OverrideBase)
}

func TestApply_Remote(t *testing.T) {
	c := newTestComponent(t, Facts{Name: "Session", Mode: Resolved, Global: true, Remote: true},
		resolvedBehavior(10, "lookup", Void, resolvedParam(11, stringType, "key")),
	)

	require.NoError(t, c.Apply(SetRemote{Signature: "lookup(Ljava/lang/String;)", Value: true}))
	require.NoError(t, c.Apply(SetParameterDirection{Signature: "lookup(Ljava/lang/String;)", Index: 0, Direction: DirInOut}))
	b, _ := c.Behavior("lookup(Ljava/lang/String;)")
	assert.Equal(t, Spec(DirInOut), b.Params[0].Direction)

	// remote behaviors stay public
	requireVeto(t, c.Apply(SetAccess{Signature: "lookup(Ljava/lang/String;)", Access: AccessProtected}))

	require.NoError(t, c.Apply(SetRemote{Signature: "lookup(Ljava/lang/String;)", Value: false}))
	b, _ = c.Behavior("lookup(Ljava/lang/String;)")
	assert.Equal(t, Spec(DirIn), b.Params[0].Direction)

	local := newTestComponent(t, Facts{Name: "Local", Mode: Resolved}, resolvedBehavior(20, "ping", Void))
	requireVeto(t, local.Apply(SetRemote{Signature: "ping()", Value: true}))
}

func TestApply_FlagSetters(t *testing.T) {
	c := newTestComponent(t, Facts{Name: "Account", Mode: Resolved}, resolvedBehavior(10, "debit", Void))

	require.NoError(t, c.Apply(SetVisibility{Signature: "debit()", Visibility: VisibilityAdvanced}))
	require.NoError(t, c.Apply(SetStatic{Signature: "debit()", Value: true}))
	require.NoError(t, c.Apply(SetFinal{Signature: "debit()", Value: true}))
	requireVeto(t, c.Apply(SetAbstract{Signature: "debit()", Value: true}))
	require.NoError(t, c.Apply(SetDescription{Signature: "debit()", Tip: "Withdraws funds"}))

	b, _ := c.Behavior("debit()")
	assert.Equal(t, "static final advanced", b.Flags.Describe(true))
	assert.Equal(t, "Withdraws funds", b.Tip)
	requireVeto(t, c.Apply(SetVisibility{Signature: "debit()", Visibility: Visibility(7)}))
}
