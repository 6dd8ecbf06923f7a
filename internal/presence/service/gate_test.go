package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/stretchr/testify/require"
)

func TestSubmissionGateSpacing(t *testing.T) {
	t.Parallel()

	gate := service.NewSubmissionGate(100 * time.Millisecond)
	require.Equal(t, 100*time.Millisecond, gate.Window())

	require.True(t, gate.Allow("key"))
	require.False(t, gate.Allow("key"), "back-to-back submissions blocked")

	time.Sleep(150 * time.Millisecond)
	require.True(t, gate.Allow("key"))
}

func TestSubmissionGateSpacingSurvivesCleanup(t *testing.T) {
	t.Parallel()

	gate := service.NewSubmissionGate(time.Minute)

	// Fill the table past the sweep threshold; keys created afterwards must
	// still be spaced.
	for i := range 1024 {
		require.True(t, gate.Allow(fmt.Sprintf("conn-%d", i)))
	}

	require.True(t, gate.Allow("late-joiner"))
	require.False(t, gate.Allow("late-joiner"),
		"second submission inside the window must be denied")
}

func TestSubmissionGateKeysIndependent(t *testing.T) {
	t.Parallel()

	gate := service.NewSubmissionGate(time.Minute)

	require.True(t, gate.Allow("alice"))
	require.True(t, gate.Allow("bob"))
	require.False(t, gate.Allow("alice"))
}
