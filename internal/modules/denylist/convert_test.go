package denylist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRegistry(t *testing.T) {
	in := "111  alice, known account\n\n222\tbob\n333\n"
	var out bytes.Buffer

	n, err := ConvertRegistry(strings.NewReader(in), &out, true)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "id,note\n111,\"alice, known account\"\n222,bob\n333,\n", out.String())

	ids, err := Parse(&out)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "222")
}
