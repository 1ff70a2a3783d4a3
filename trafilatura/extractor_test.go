package trafilatura_test

import (
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ radar.Extractor = (*trafilatura.Extractor)(nil)

const blogPost = `<!DOCTYPE html>
<html>
<head>
<title>Why I stopped using Tool X - Indie Notes</title>
<meta property="og:title" content="Why I stopped using Tool X">
</head>
<body>
<nav><a href="/">Home</a><a href="/archive">Archive</a></nav>
<article>
<h1>Why I stopped using Tool X</h1>
<p>Tool X raised its price to three hundred dollars a month, which is more than my hosting bill.</p>
<p>I looked for alternatives but every one of them lacked a simple export to CSV.</p>
</article>
<aside>Sidebar promo content</aside>
<footer>Copyright 2024 Indie Notes</footer>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(blogPost)

		require.NoError(t, err)
		assert.NotEmpty(t, result.Title)
	})

	t.Run("extracts main content", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(blogPost)

		require.NoError(t, err)
		assert.Contains(t, result.ContentHTML, "three hundred dollars a month")
		assert.Contains(t, result.ContentHTML, "simple export to CSV")
	})

	t.Run("removes navigation and footer boilerplate", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(blogPost)

		require.NoError(t, err)
		assert.NotContains(t, result.ContentHTML, "Archive")
		assert.NotContains(t, result.ContentHTML, "Copyright 2024")
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.NewExtractor().Extract("  ")

		assert.Equal(t, radar.EINVALID, radar.ErrorCode(err))
	})

	t.Run("handles minimal valid HTML", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(`<html><body><p>Simple content</p></body></html>`)

		require.NoError(t, err)
		assert.Contains(t, result.ContentHTML, "Simple content")
	})
}
