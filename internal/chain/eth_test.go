package chain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVoucherNonce(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, true},
		{"0x2a", 42, true},
		{"0X2A", 42, true},
		{"0xdeadbeef", 0xdeadbeef, true},
		{"", 0, false},
		{"0x", 0, false},
		{"nonce", 0, false},
		{"0xzz", 0, false},
	}
	for _, tc := range cases {
		n, err := parseVoucherNonce(tc.in)
		if !tc.ok {
			require.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, n.Int64(), "input %q", tc.in)
	}
}
