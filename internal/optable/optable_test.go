package optable_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"tealc/internal/atype"
	"tealc/internal/optable"
)

func TestLoadFromLangspecJSON(t *testing.T) {
	f, err := os.Open("testdata/langspec.json")
	require.NoError(t, err)
	defer f.Close()

	table, err := optable.Load(f)
	require.NoError(t, err)

	entry, err := table.Lookup("+")
	require.NoError(t, err)
	require.Len(t, entry.Inputs, 2)
	require.True(t, entry.Inputs[0].Accepts(atype.Uint64))
	require.False(t, entry.Inputs[0].Accepts(atype.Bytes))
	require.Equal(t, []atype.AType{atype.Uint64}, entry.Outputs)
	require.False(t, entry.Deadens)

	ret, err := table.Lookup("return")
	require.NoError(t, err)
	require.True(t, ret.Deadens)
}

func TestLookupUnknownOp(t *testing.T) {
	table := optable.Default()
	_, err := table.Lookup("definitely_not_an_op")
	require.Error(t, err)
	var unknown *optable.UnknownOpError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "definitely_not_an_op", unknown.Op)
}

func TestDefaultTableCoversArithmetic(t *testing.T) {
	table := optable.Default()
	for _, op := range []string{"+", "-", "*", "/", "%", "b+", "concat", "itob", "btoi", "extract3"} {
		require.True(t, table.Has(op), "expected default table to contain %s", op)
	}
}
