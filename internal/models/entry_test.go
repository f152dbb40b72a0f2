package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ttl     TTL
		wantErr bool
	}{
		{
			name: "valid ttl",
			ttl:  TTL{Fresh: time.Minute, Stale: 4 * time.Minute},
		},
		{
			name: "zero fresh window is legal",
			ttl:  TTL{Fresh: 0, Stale: 30 * time.Second},
		},
		{
			name: "zero stale window is legal",
			ttl:  TTL{Fresh: time.Minute, Stale: 0},
		},
		{
			name:    "negative fresh",
			ttl:     TTL{Fresh: -time.Second, Stale: time.Minute},
			wantErr: true,
		},
		{
			name:    "negative stale",
			ttl:     TTL{Fresh: time.Minute, Stale: -time.Second},
			wantErr: true,
		},
		{
			name:    "zero total",
			ttl:     TTL{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ttl.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewEntry_Horizons(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := NewEntry([]byte("payload"), now, TTL{Fresh: 30 * time.Second, Stale: 90 * time.Second})

	assert.Equal(t, []byte("payload"), entry.Data)
	assert.False(t, entry.Negative)
	assert.Equal(t, now.UnixMilli(), entry.CreatedAt)
	assert.Equal(t, now.UnixMilli(), entry.UpdatedAt)
	assert.Equal(t, now.UnixMilli()+30_000, entry.StaleAt)
	assert.Equal(t, now.UnixMilli()+120_000, entry.ExpiresAt)
}

func TestCacheEntry_Lifecycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := NewEntry([]byte("v"), now, TTL{Fresh: 30 * time.Second, Stale: 90 * time.Second})

	assert.True(t, entry.IsFresh(now))
	assert.True(t, entry.IsFresh(now.Add(30*time.Second)))
	assert.False(t, entry.IsFresh(now.Add(31*time.Second)))

	assert.False(t, entry.IsExpired(now.Add(2*time.Minute)))
	assert.True(t, entry.IsExpired(now.Add(2*time.Minute+time.Millisecond)))

	assert.Equal(t, 45*time.Second, entry.Age(now.Add(45*time.Second)))
}

func TestNewNegativeEntry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := NewNegativeEntry(now, time.Minute)

	assert.True(t, entry.Negative)
	assert.Nil(t, entry.Data)
	assert.True(t, entry.IsFresh(now.Add(time.Minute)))
	assert.True(t, entry.IsExpired(now.Add(time.Minute+time.Millisecond)))
}

func TestFreshness_String(t *testing.T) {
	assert.Equal(t, "fresh", FreshnessFresh.String())
	assert.Equal(t, "stale", FreshnessStale.String())
	assert.Equal(t, "absent", FreshnessAbsent.String())
}
