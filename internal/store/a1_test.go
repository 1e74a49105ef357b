package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, columnLetter(tt.index), "index=%d", tt.index)
	}
}

func TestCellRange(t *testing.T) {
	require.Equal(t, "Orders!C7", cellRange("Orders", 2, 7))
	require.Equal(t, "Orders!AA2", cellRange("Orders", 26, 2))
}
