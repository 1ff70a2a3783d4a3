package radar_test

import (
	"testing"

	"github.com/chen893/radar"
	"github.com/stretchr/testify/assert"
)

func TestSiteFilter_IsAllowed(t *testing.T) {
	t.Parallel()

	t.Run("blacklist wins over whitelist", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter([]string{"*.reddit.com"}, []string{"*/login*"})

		got := f.IsAllowed("https://www.reddit.com/login")

		assert.False(t, got.Allowed)
		assert.Equal(t, radar.ReasonBlacklisted, got.Reason)
	})

	t.Run("blacklist wins over custom whitelist", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter(nil, []string{"*/checkout*"})
		f.Grant("shop.example.com")

		assert.True(t, f.IsAllowed("https://shop.example.com/item/1").Allowed)
		assert.False(t, f.IsAllowed("https://shop.example.com/checkout").Allowed)
	})

	t.Run("allows default whitelist by hostname", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter([]string{"*.reddit.com"}, nil)

		got := f.IsAllowed("https://www.reddit.com/r/golang/comments/abc/title/")

		assert.True(t, got.Allowed)
		assert.Empty(t, got.Reason)
	})

	t.Run("denies unknown site with needs authorization", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter([]string{"*.reddit.com"}, nil)

		got := f.IsAllowed("https://news.ycombinator.com/item?id=1")

		assert.False(t, got.Allowed)
		assert.Equal(t, radar.ReasonNeedsAuthorization, got.Reason)
	})

	t.Run("pattern without wildcard must match exactly", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter([]string{"zhihu.com"}, nil)

		assert.True(t, f.IsAllowed("https://zhihu.com/question/1").Allowed)
		assert.False(t, f.IsAllowed("https://www.zhihu.com/question/1").Allowed)
		assert.False(t, f.IsAllowed("https://notzhihu.com/").Allowed)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter([]string{"*.Reddit.COM"}, []string{"*/LOGIN*"})

		assert.True(t, f.IsAllowed("https://WWW.reddit.com/r/go").Allowed)
		assert.False(t, f.IsAllowed("https://www.reddit.com/Login").Allowed)
	})

	t.Run("pattern with slash matches full URL", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter([]string{"https://example.com/forum/*"}, nil)

		assert.True(t, f.IsAllowed("https://example.com/forum/thread-1").Allowed)
		assert.False(t, f.IsAllowed("https://example.com/blog/post").Allowed)
	})

	t.Run("hostname pattern falls back to full URL match", func(t *testing.T) {
		t.Parallel()

		f := radar.NewSiteFilter([]string{"*forum*"}, nil)

		assert.True(t, f.IsAllowed("https://example.com/forum").Allowed)
	})

	t.Run("malformed URL is denied without panic", func(t *testing.T) {
		t.Parallel()

		f := radar.NewDefaultSiteFilter()

		got := f.IsAllowed("::not a url::")

		assert.False(t, got.Allowed)
	})
}

func TestSiteFilter_DefaultPolicy(t *testing.T) {
	t.Parallel()

	f := radar.NewDefaultSiteFilter()

	assert.True(t, f.IsAllowed("https://www.reddit.com/r/SaaS/comments/x/y/").Allowed)
	assert.True(t, f.IsAllowed("https://zhuanlan.zhihu.com/p/123").Allowed)
	assert.False(t, f.IsAllowed("https://www.reddit.com/login/").Allowed)
	assert.False(t, f.IsAllowed("https://www.zhihu.com/signin?next=%2F").Allowed)
}

func TestSiteFilter_GrantRevoke(t *testing.T) {
	t.Parallel()

	f := radar.NewDefaultSiteFilter()
	url := "https://forum.example.org/t/need-a-tool/42"

	assert.True(t, f.NeedsAuthorization(url))

	f.Grant(radar.AuthorizationPattern(url))
	assert.True(t, f.IsAllowed(url).Allowed)
	assert.False(t, f.NeedsAuthorization(url))
	assert.Equal(t, []string{"forum.example.org"}, f.Patterns().CustomWhitelist)

	f.Revoke("forum.example.org")
	assert.False(t, f.IsAllowed(url).Allowed)
	assert.Empty(t, f.Patterns().CustomWhitelist)
}

func TestSiteFilter_GrantIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	f := radar.NewSiteFilter(nil, nil)
	f.Grant("example.com")
	f.Grant("EXAMPLE.com")
	f.Grant("  ")

	assert.Len(t, f.Patterns().CustomWhitelist, 1)
}

func TestSiteFilter_BlacklistedPageDoesNotNeedAuthorization(t *testing.T) {
	t.Parallel()

	f := radar.NewSiteFilter(nil, []string{"*/login*"})

	assert.False(t, f.NeedsAuthorization("https://example.com/login"))
}

func TestSiteFilter_IsKnownPlatform(t *testing.T) {
	t.Parallel()

	f := radar.NewDefaultSiteFilter()
	f.Grant("example.com")

	assert.True(t, f.IsKnownPlatform("https://old.reddit.com/r/go"))
	assert.False(t, f.IsKnownPlatform("https://example.com/"))
}

func TestSiteFilter_AddRemoveBlacklist(t *testing.T) {
	t.Parallel()

	f := radar.NewSiteFilter([]string{"*.reddit.com"}, nil)
	f.AddBlacklist("*/submit*")

	assert.False(t, f.IsAllowed("https://www.reddit.com/submit").Allowed)

	f.RemoveBlacklist("*/submit*")
	assert.True(t, f.IsAllowed("https://www.reddit.com/submit").Allowed)
}
