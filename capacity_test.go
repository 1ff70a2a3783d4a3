package radar_test

import (
	"testing"

	"github.com/chen893/radar"
	"github.com/stretchr/testify/assert"
)

func TestCapacityPolicy_CanStore(t *testing.T) {
	t.Parallel()

	p := radar.DefaultCapacityPolicy()

	t.Run("allows small write without warning", func(t *testing.T) {
		t.Parallel()

		got := p.CanStore(1*radar.MB, 10*1024)

		assert.True(t, got.Allowed)
		assert.Empty(t, got.Warning)
	})

	t.Run("allows with warning past soft threshold", func(t *testing.T) {
		t.Parallel()

		got := p.CanStore(45*radar.MB, 10*radar.MB)

		assert.True(t, got.Allowed)
		assert.NotEmpty(t, got.Warning)
	})

	t.Run("denies past hard limit", func(t *testing.T) {
		t.Parallel()

		got := p.CanStore(99*radar.MB, 5*radar.MB)

		assert.False(t, got.Allowed)
		assert.Contains(t, got.Warning, "storage full")
	})

	t.Run("allows exactly the hard limit", func(t *testing.T) {
		t.Parallel()

		got := p.CanStore(90*radar.MB, 10*radar.MB)

		assert.True(t, got.Allowed)
	})

	t.Run("is monotonic in used bytes", func(t *testing.T) {
		t.Parallel()

		denied := false
		for used := int64(0); used <= 120*radar.MB; used += radar.MB {
			got := p.CanStore(used, radar.MB)
			if denied {
				assert.False(t, got.Allowed, "used=%d", used)
			}
			denied = !got.Allowed
		}
		assert.True(t, denied)
	})
}

func TestCapacityPolicy_Usage(t *testing.T) {
	t.Parallel()

	got := radar.DefaultCapacityPolicy().Usage(25 * radar.MB)

	assert.Equal(t, int64(25*radar.MB), got.Used)
	assert.Equal(t, int64(50*radar.MB), got.Limit)
	assert.InDelta(t, 50.0, got.Percentage, 0.001)
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", radar.FormatBytes(512))
	assert.Equal(t, "1.5 KB", radar.FormatBytes(1536))
	assert.Equal(t, "2.0 MB", radar.FormatBytes(2*radar.MB))
}
