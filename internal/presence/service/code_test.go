package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/stretchr/testify/require"
)

// livePair builds a salt snapshot with the current generation fresh and the
// previous generation still inside its acceptance window.
func livePair(now time.Time) domain.SaltPair {
	return domain.SaltPair{
		Current: domain.Salt{
			Value:     1137, // digits 37
			CreatedAt: now.Add(-100 * time.Millisecond),
			ExpiresAt: now.Add(500 * time.Millisecond),
		},
		Previous: domain.Salt{
			Value:     2642, // digits 42
			CreatedAt: now.Add(-700 * time.Millisecond),
			ExpiresAt: now.Add(-100 * time.Millisecond),
		},
		Rotation:     600 * time.Millisecond,
		AcceptWindow: time.Second,
	}
}

func TestExpectedCode(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 10, 30, 15, 0, time.UTC)
	salt := domain.Salt{Value: 1137}
	require.Equal(t, "30:15:37", service.ExpectedCode(salt, now))
}

func TestCodeValidation(t *testing.T) {
	t.Parallel()

	svc := service.NewCodeService(nil, time.Second)
	now := time.Date(2026, 9, 1, 10, 30, 15, 0, time.UTC)
	pair := livePair(now)

	t.Run("current code accepted", func(t *testing.T) {
		result := svc.ValidateAgainst(pair, service.ExpectedCode(pair.Current, now), now)
		require.True(t, result.OK)
	})

	t.Run("one second of skew accepted", func(t *testing.T) {
		early := service.ExpectedCode(pair.Current, now.Add(-time.Second))
		require.True(t, svc.ValidateAgainst(pair, early, now).OK)

		late := service.ExpectedCode(pair.Current, now.Add(time.Second))
		require.True(t, svc.ValidateAgainst(pair, late, now).OK)
	})

	t.Run("skew beyond tolerance rejected", func(t *testing.T) {
		stale := service.ExpectedCode(pair.Current, now.Add(-3*time.Second))
		result := svc.ValidateAgainst(pair, stale, now)
		require.False(t, result.OK)
		require.Equal(t, domain.CodeFailureTime, result.Reason)
	})

	t.Run("previous generation accepted inside its window", func(t *testing.T) {
		result := svc.ValidateAgainst(pair, service.ExpectedCode(pair.Previous, now), now)
		require.True(t, result.OK)
	})

	t.Run("wrong salt digits rejected", func(t *testing.T) {
		code := fmt.Sprintf("%02d:%02d:99", now.Minute(), now.Second())
		result := svc.ValidateAgainst(pair, code, now)
		require.False(t, result.OK)
		require.Equal(t, domain.CodeFailureSalt, result.Reason)
	})

	t.Run("garbage rejected as format", func(t *testing.T) {
		for _, code := range []string{"", "abc", "123456", "1:2:3", "aa:bb:cc", "61:00:37", "00:75:37"} {
			result := svc.ValidateAgainst(pair, code, now)
			require.False(t, result.OK, "code %q", code)
			require.Equal(t, domain.CodeFailureFormat, result.Reason, "code %q", code)
		}
	})

	t.Run("expected codes include the live code", func(t *testing.T) {
		result := svc.ValidateAgainst(pair, "00:00:99", now)
		require.Contains(t, result.Expected, service.ExpectedCode(pair.Current, now))
	})
}

func TestCodeValidationMinuteWraparound(t *testing.T) {
	t.Parallel()

	svc := service.NewCodeService(nil, time.Second)
	now := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	pair := livePair(now)

	// Submitted at 10:29:59, validated at 10:30:00: circular distance 1.
	code := service.ExpectedCode(pair.Current, now.Add(-time.Second))
	require.Equal(t, "29:59:37", code)
	require.True(t, svc.ValidateAgainst(pair, code, now).OK)
}

func TestCodeValidationHourWraparound(t *testing.T) {
	t.Parallel()

	svc := service.NewCodeService(nil, time.Second)
	now := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)
	pair := livePair(now)

	code := service.ExpectedCode(pair.Current, now.Add(-time.Second))
	require.Equal(t, "59:59:37", code)
	require.True(t, svc.ValidateAgainst(pair, code, now).OK)
}

func TestCodeValidationAfterWindowsElapse(t *testing.T) {
	t.Parallel()

	svc := service.NewCodeService(nil, time.Second)
	now := time.Date(2026, 9, 1, 10, 30, 15, 0, time.UTC)

	// Both generations past their acceptance windows: even a digit match
	// must be rejected.
	pair := livePair(now)
	pair.Current.CreatedAt = now.Add(-1100 * time.Millisecond)
	pair.Previous.CreatedAt = now.Add(-1700 * time.Millisecond)

	result := svc.ValidateAgainst(pair, service.ExpectedCode(pair.Current, now), now)
	require.False(t, result.OK)
	require.Equal(t, domain.CodeFailureSalt, result.Reason)
	require.Empty(t, result.Expected)
}

func TestSaltRotatorSnapshot(t *testing.T) {
	t.Parallel()

	rotator := service.NewSaltRotator(50*time.Millisecond, 100*time.Millisecond, nil)

	before := rotator.Snapshot()
	require.Equal(t, 50*time.Millisecond, before.Rotation)
	require.Equal(t, 100*time.Millisecond, before.AcceptWindow)

	rotator.Rotate()
	after := rotator.Snapshot()
	require.Equal(t, before.Current.Value, after.Previous.Value,
		"rotation promotes current to previous")
}

func TestSaltRotatorLifecycle(t *testing.T) {
	t.Parallel()

	rotator := service.NewSaltRotator(10*time.Millisecond, 20*time.Millisecond, nil)
	first := rotator.Snapshot().Current

	rotator.Start()
	time.Sleep(35 * time.Millisecond)
	rotator.Stop()

	rotated := rotator.Snapshot().Current
	require.NotEqual(t, first.CreatedAt, rotated.CreatedAt,
		"background ticker should have rotated at least once")
}
