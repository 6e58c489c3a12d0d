package reader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReadsHeaderAndRecords(t *testing.T) {
	input := strings.NewReader(strings.Join([]string{
		"% min 0 0 0",
		"% max 100 100 50",
		"1.5 2.5 10",
		"99.0 1.0 5",
	}, "\n"))

	records, bounds, err := parse(input, "test.xyz")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1.5, records[0].At(0))
	require.Equal(t, 2.5, records[0].At(1))
	require.Equal(t, 0.0, bounds.MinX)
	require.Equal(t, 100.0, bounds.MaxX)
	require.Equal(t, 100.0, bounds.MaxY)
}

func TestParseRejectsMissingHeader(t *testing.T) {
	input := strings.NewReader("1 2 3\n")
	_, _, err := parse(input, "test.xyz")
	require.Error(t, err)
}

func TestParseRejectsMalformedField(t *testing.T) {
	input := strings.NewReader(strings.Join([]string{
		"% min 0 0 0",
		"% max 10 10 10",
		"1 notanumber 3",
	}, "\n"))
	_, _, err := parse(input, "test.xyz")
	require.Error(t, err)
}

func TestParseSkipsBlankLines(t *testing.T) {
	input := strings.NewReader(strings.Join([]string{
		"% min 0 0 0",
		"",
		"% max 10 10 10",
		"",
		"1 1 1",
		"",
	}, "\n"))
	records, _, err := parse(input, "test.xyz")
	require.NoError(t, err)
	require.Len(t, records, 1)
}
