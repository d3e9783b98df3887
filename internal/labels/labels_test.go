package labels

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	data := []byte("\xEF\xBB\xBFabyssinian\nbengal\n\n  maine_coon  \nsiamese\n")
	tbl := Parse(data)
	require.Equal(t, 4, tbl.Len())
	require.Equal(t, "abyssinian", tbl.Name(0))
	require.Equal(t, "bengal", tbl.Name(1))
	require.Equal(t, "maine_coon", tbl.Name(2))
	require.Equal(t, "siamese", tbl.Name(3))
}

func TestParse_EmptyInput(t *testing.T) {
	tbl := Parse(nil)
	require.NotNil(t, tbl)
	require.Equal(t, 0, tbl.Len())

	tbl = Parse([]byte("\n\n   \n"))
	require.Equal(t, 0, tbl.Len())
}

func TestParse_KeepsDuplicates(t *testing.T) {
	tbl := Parse([]byte("bengal\nbengal\nsiamese\n"))
	require.Equal(t, 3, tbl.Len())
	require.Equal(t, "bengal", tbl.Name(0))
	require.Equal(t, "bengal", tbl.Name(1))
}

func TestName_OutOfRangePlaceholder(t *testing.T) {
	tbl := Parse([]byte("bengal\n"))
	require.Equal(t, "breed_1", tbl.Name(1))
	require.Equal(t, "breed_17", tbl.Name(17))
	require.Equal(t, "breed_-1", tbl.Name(-1))
}

func TestName_NilTable(t *testing.T) {
	var tbl *Table
	require.Equal(t, 0, tbl.Len())
	require.Equal(t, "breed_0", tbl.Name(0))
	require.Nil(t, tbl.Names())
}

func TestNames_ReturnsCopy(t *testing.T) {
	tbl := Parse([]byte("bengal\nsiamese\n"))
	names := tbl.Names()
	names[0] = "mutated"
	require.Equal(t, "bengal", tbl.Name(0))
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Maine Coon", DisplayName("maine_coon"))
	require.Equal(t, "Bengal", DisplayName("bengal"))
	require.Equal(t, "Exotic Shorthair", DisplayName("exotic-shorthair"))
	require.Equal(t, "British Longhair", DisplayName("british longhair"))
	require.Equal(t, "", DisplayName(""))
}
