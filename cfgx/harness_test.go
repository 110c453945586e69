package cfgx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testCase struct {
	name string
	run  func(t *testing.T)
}

// runTestCases runs every case as a parallel subtest. Cases must not share
// mutable state.
func runTestCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.NotNil(t, tc.run, "case %q has no body", tc.name)
			tc.run(t)
		})
	}
}
