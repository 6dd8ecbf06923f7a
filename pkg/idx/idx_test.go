package idx_test

import (
	"testing"

	"github.com/rollcallhq/presence/pkg/idx"
	"github.com/stretchr/testify/require"

	"github.com/oklog/ulid/v2"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("produces valid ULIDs", func(t *testing.T) {
		id := idx.New()
		require.False(t, id.IsZero())

		_, err := ulid.ParseStrict(id.String())
		require.NoError(t, err)
	})

	t.Run("IDs are monotonic within a generator", func(t *testing.T) {
		a := idx.New()
		b := idx.New()
		require.Less(t, a.String(), b.String())
	})
}
