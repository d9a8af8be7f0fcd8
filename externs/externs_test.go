package externs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylt-lang/sylt/lang/value"
	"github.com/sylt-lang/sylt/lang/vm"
)

func TestDefaultTableHasExpectedNames(t *testing.T) {
	tbl := Default()
	for _, name := range []string{"len", "push", "dbg", "type_of"} {
		require.Contains(t, tbl, name)
	}
}

func TestLenOfStringAndList(t *testing.T) {
	v, err := Len([]vm.Value{vm.String("abc")}, false)
	require.NoError(t, err)
	require.Equal(t, vm.Int(3), v)

	list := &vm.List{Elem: value.IntType{}, Elems: []vm.Value{vm.Int(1), vm.Int(2)}}
	v, err = Len([]vm.Value{list}, false)
	require.NoError(t, err)
	require.Equal(t, vm.Int(2), v)
}

func TestLenRejectsWrongArity(t *testing.T) {
	_, err := Len([]vm.Value{}, false)
	require.Error(t, err)
}

func TestPushAppendsInPlace(t *testing.T) {
	list := &vm.List{Elem: value.IntType{}, Elems: []vm.Value{vm.Int(1)}}
	_, err := Push([]vm.Value{list, vm.Int(2)}, false)
	require.NoError(t, err)
	require.Equal(t, []vm.Value{vm.Int(1), vm.Int(2)}, list.Elems)
}

func TestPushTypecheckRejectsMismatchedElementType(t *testing.T) {
	list := &vm.List{Elem: value.IntType{}}
	_, err := Push([]vm.Value{list, vm.String("nope")}, true)
	require.Error(t, err)
}

func TestTypeOfWrapsStaticType(t *testing.T) {
	v, err := TypeOf([]vm.Value{vm.Int(1)}, false)
	require.NoError(t, err)
	ty, ok := v.(vm.Ty)
	require.True(t, ok)
	require.Equal(t, value.IntType{}, ty.T)
}

func TestDbgPassesValueThrough(t *testing.T) {
	var buf bytes.Buffer
	v, err := NewDbg(&buf)([]vm.Value{vm.Bool(true)}, false)
	require.NoError(t, err)
	require.Equal(t, vm.Bool(true), v)
	require.Equal(t, "dbg: true\n", buf.String())
}

func TestDbgTypecheckModeSkipsOutput(t *testing.T) {
	var buf bytes.Buffer
	v, err := NewDbg(&buf)([]vm.Value{vm.Bool(true)}, true)
	require.NoError(t, err)
	require.Equal(t, vm.Bool(true), v)
	require.Empty(t, buf.String())
}
