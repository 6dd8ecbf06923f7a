package service

import (
	"sync"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
)

// DefaultDeviceLockTTL covers a realistic check-in window for one phase.
const DefaultDeviceLockTTL = 5 * time.Minute

// DeviceLockService enforces one claimed identity per physical device per
// (session, phase). The first identifier a device submits wins; repeats of
// the same identifier refresh the lock, a different identifier is reported
// as a conflict together with the identifier originally recorded.
type DeviceLockService struct {
	mu     sync.Mutex
	locks  map[string]domain.DeviceLock
	ttl    time.Duration
	policy domain.LockPolicy
}

func NewDeviceLockService(ttl time.Duration, policy domain.LockPolicy) *DeviceLockService {
	if ttl <= 0 {
		ttl = DefaultDeviceLockTTL
	}
	if policy != domain.LockPolicyWarn {
		policy = domain.LockPolicyReject
	}
	return &DeviceLockService{
		locks:  make(map[string]domain.DeviceLock),
		ttl:    ttl,
		policy: policy,
	}
}

// Policy reports how the caller should treat a conflict.
func (s *DeviceLockService) Policy() domain.LockPolicy { return s.policy }

// Acquire records or refreshes the device/identifier binding. The whole
// read-modify-write runs under the lock: two simultaneous check-ins from the
// same device are exactly the abuse case this table exists for.
func (s *DeviceLockService) Acquire(deviceKey, identifier string) domain.LockResult {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(now)

	entry, ok := s.locks[deviceKey]
	if !ok || entry.Identifier == identifier {
		s.locks[deviceKey] = domain.DeviceLock{
			DeviceKey:  deviceKey,
			Identifier: identifier,
			ExpiresAt:  now.Add(s.ttl),
		}
		return domain.LockResult{OK: true}
	}

	return domain.LockResult{OK: false, ExistingIdentifier: entry.Identifier}
}

func (s *DeviceLockService) purgeLocked(now time.Time) {
	for key, entry := range s.locks {
		if !entry.ExpiresAt.After(now) {
			delete(s.locks, key)
		}
	}
}
