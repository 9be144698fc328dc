package rewriter_test

import (
	"faleproxy/pkg/replacer"
	"faleproxy/pkg/rewriter"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const sampleHTMLWithYale = `<!DOCTYPE html>
<html>
<head>
  <title>Yale University Test Page</title>
  <meta name="description" content="Yale University test page">
</head>
<body>
  <header>
    <h1>Welcome to Yale University</h1>
    <nav>
      <ul>
        <li><a href="https://www.yale.edu/about">About Yale</a></li>
        <li><a href="https://www.yale.edu/admissions">Yale Admissions</a></li>
      </ul>
    </nav>
  </header>
  <main>
    <p>Yale University is a private Ivy League research university in New Haven, Connecticut.</p>
    <p>Yale was founded in 1701 as the Collegiate School.</p>
    <img src="https://www.yale.edu/images/logo.png" alt="Yale Logo">
    <p>Contact us at <a href="mailto:info@yale.edu">info@yale.edu</a></p>
  </main>
  <script>var school = "Yale";</script>
</body>
</html>`

func newRewriter(t *testing.T) *rewriter.Rewriter {
	t.Helper()

	return rewriter.New(replacer.Default, rewriter.Options{})
}

func TestRewrite_ReplacesTextButNotURLs(t *testing.T) {
	res, err := newRewriter(t).RewriteString(sampleHTMLWithYale)
	require.NoError(t, err)

	out := res.HTML
	require.Contains(t, out, "Fale University Test Page")
	require.Contains(t, out, "Welcome to Fale University")
	require.Contains(t, out, "Fale University is a private Ivy League")
	require.Contains(t, out, "Fale was founded in 1701")

	require.Contains(t, out, `href="https://www.yale.edu/about"`)
	require.Contains(t, out, `href="https://www.yale.edu/admissions"`)
	require.Contains(t, out, "https://www.yale.edu/images/logo.png")
	require.Contains(t, out, "mailto:info@yale.edu")
	require.Contains(t, out, `alt="Yale Logo"`)
	require.Contains(t, out, `content="Yale University test page"`)

	require.Contains(t, out, ">About Fale<")
	require.Contains(t, out, ">Fale Admissions<")
	require.Contains(t, out, ">info@fale.edu<")

	require.Contains(t, out, `var school = "Yale";`)
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))

	require.Equal(t, "Fale University Test Page", res.Title)
	// title, h1, two links, two paragraphs, mailto text
	require.Equal(t, 7, res.Replacements)
}

func TestRewrite_ParsesBackToExpectedDocument(t *testing.T) {
	res, err := newRewriter(t).RewriteString(sampleHTMLWithYale)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	require.NoError(t, err)

	require.Equal(t, "Fale University Test Page", doc.Find("title").Text())
	require.Equal(t, "Welcome to Fale University", doc.Find("h1").Text())
	require.Contains(t, doc.Find("p").First().Text(), "Fale University is a private")
	require.Equal(t, "About Fale", doc.Find("a").First().Text())

	hasYaleURL := false
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.Contains(href, "yale.edu") {
			hasYaleURL = true
		}
	})
	require.True(t, hasYaleURL)
}

func TestRewrite_NoReferences(t *testing.T) {
	const page = `<!DOCTYPE html>
<html>
<head>
  <title>Test Page</title>
</head>
<body>
  <h1>Hello World</h1>
  <p>This is a test page with no university references at all.</p>
</body>
</html>`

	res, err := newRewriter(t).RewriteString(page)
	require.NoError(t, err)
	require.Contains(t, res.HTML, "<title>Test Page</title>")
	require.Contains(t, res.HTML, "<h1>Hello World</h1>")
	require.Contains(t, res.HTML, "<p>This is a test page with no university references at all.</p>")
	require.Equal(t, "Test Page", res.Title)
	require.Zero(t, res.Replacements)
}

func TestRewrite_CaseVariations(t *testing.T) {
	res, err := newRewriter(t).RewriteString(
		`<p>YALE University, Yale College, and yale medical school are all part of the same institution.</p>
<p>YaLe and yAlE and YAle and yaLE are all variations.</p>`)
	require.NoError(t, err)
	require.Contains(t, res.HTML, "FALE University, Fale College, and fale medical school")
	require.Contains(t, res.HTML, "FaLe and fAlE and FAle and faLE are all variations")
	require.Empty(t, res.Title)
}

func TestRewrite_BodyTextAndNestedElements(t *testing.T) {
	res, err := newRewriter(t).RewriteString(
		`<html><body>Yale at top level <div><span>yale <b>YALE</b></span></div></body></html>`)
	require.NoError(t, err)
	require.Contains(t, res.HTML, "Fale at top level")
	require.Contains(t, res.HTML, "<span>fale <b>FALE</b></span>")
	require.Equal(t, 3, res.Replacements)
}

func TestRewrite_SkipElements(t *testing.T) {
	const page = `<html><head><style>.yale{color:blue}</style></head>
<body><style>.yale{}</style><p class="yale">Yale</p><textarea>yale</textarea></body></html>`

	res, err := newRewriter(t).RewriteString(page)
	require.NoError(t, err)
	require.Contains(t, res.HTML, ".yale{}")
	require.Contains(t, res.HTML, `class="yale"`)
	require.Contains(t, res.HTML, ">Fale</p>")
	require.Contains(t, res.HTML, "<textarea>fale</textarea>")

	// an empty list rewrites raw-text containers too
	all := rewriter.New(replacer.Default, rewriter.Options{SkipElements: []string{}})
	res, err = all.RewriteString(`<body><script>var s = "Yale";</script></body>`)
	require.NoError(t, err)
	require.Contains(t, res.HTML, `var s = "Fale";`)
}

func TestRewrite_SkipElementsCoverNestedMarkup(t *testing.T) {
	rw := rewriter.New(replacer.Default, rewriter.Options{SkipElements: []string{"pre", " code "}})
	res, err := rw.RewriteString(`<html><body><p>Yale</p>` +
		`<pre>Yale <b>Yale <i>yale</i></b></pre><code><span>YALE</span></code></body></html>`)
	require.NoError(t, err)
	require.Contains(t, res.HTML, "<p>Fale</p>")
	require.Contains(t, res.HTML, "<pre>Yale <b>Yale <i>yale</i></b></pre>")
	require.Contains(t, res.HTML, "<code><span>YALE</span></code>")
	require.Equal(t, 1, res.Replacements)
}

func TestRewrite_EscapesText(t *testing.T) {
	res, err := newRewriter(t).RewriteString(`<body><p>AT&amp;T &lt;3 Yale</p></body>`)
	require.NoError(t, err)
	require.Contains(t, res.HTML, "<p>AT&amp;T &lt;3 Fale</p>")
}

func TestRewrite_TitleInsideBodyIsNotDocumentTitle(t *testing.T) {
	res, err := newRewriter(t).RewriteString(`<html><head><title>Yale News</title></head>` +
		`<body><svg><title>Yale logo</title></svg><p>yale</p></body></html>`)
	require.NoError(t, err)
	require.Equal(t, "Fale News", res.Title)
	require.Contains(t, res.HTML, "<title>Fale News</title>")
	require.Contains(t, res.HTML, "<title>Fale logo</title>")
	require.Equal(t, 3, res.Replacements)

	res, err = newRewriter(t).RewriteString(`<html><body><svg><title>Yale logo</title></svg></body></html>`)
	require.NoError(t, err)
	require.Empty(t, res.Title, "a body-only title is not the document title")
	require.Contains(t, res.HTML, "<title>Fale logo</title>")
}

func TestRewrite_CustomReplacer(t *testing.T) {
	rw := rewriter.New(replacer.MustNew("cold", "warm", replacer.CasePerLetter), rewriter.Options{})
	res, err := rw.RewriteString(`<html><head><title>COLD day</title></head><body><p>Cold</p></body></html>`)
	require.NoError(t, err)
	require.Equal(t, "WARM day", res.Title)
	require.Contains(t, res.HTML, "<p>Warm</p>")
	require.Contains(t, res.HTML, "<title>WARM day</title>")
}
