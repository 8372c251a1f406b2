package scraper_test

import (
	"testing"

	"github.com/jonesrussell/hn-links/internal/scraper"
)

const testBaseURL = "https://news.ycombinator.com"

// threadHTML is a thread with three top-level comment rows (two outbound
// links, no comment text, and an internal-only link set) plus one nested
// reply.
const threadHTML = `<!DOCTYPE html>
<html>
<body>
<table>
  <tr class='athing comtr' id='1001'>
    <td class='ind' indent='0'><img src="s.gif" height="1" width="0"></td>
    <td>
      <a class="hnuser" href="user?id=alice">alice</a>
      <div class="commtext c00">
        Check out <a href="https://alice.dev" rel="nofollow">my site</a>
        and <a href="/from?site=alice.dev">from</a>.
        <a href="reply?id=1001&goto=item">reply</a>
      </div>
    </td>
  </tr>
  <tr class='athing comtr' id='1002'>
    <td class='ind' indent='0'><img src="s.gif" height="1" width="0"></td>
    <td>
      <a class="hnuser" href="user?id=bob">bob</a>
    </td>
  </tr>
  <tr class='athing comtr' id='1003'>
    <td class='ind' indent='1'><img src="s.gif" height="1" width="40"></td>
    <td>
      <a class="hnuser" href="user?id=carol">carol</a>
      <div class="commtext c00">
        Nested reply with <a href="https://carol.example">a link</a>.
      </div>
    </td>
  </tr>
  <tr class='athing comtr' id='1004'>
    <td class='ind' indent='2'><img src="s.gif" height="1" width="80"></td>
    <td>
      <div class="commtext c00"><a href="https://nested.example">deep</a></div>
    </td>
  </tr>
</table>
</body>
</html>`

func TestExtract_TopLevelLinksOnly(t *testing.T) {
	e := scraper.NewExtractor(testBaseURL)

	links, err := e.Extract([]byte(threadHTML))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d: %+v", len(links), links)
	}

	for i, link := range links {
		if link.Author != "alice" {
			t.Errorf("link %d: expected author alice, got %q", i, link.Author)
		}
		if link.CommentURL != testBaseURL+"/item?id=1001" {
			t.Errorf("link %d: unexpected comment url %q", i, link.CommentURL)
		}
	}

	if links[0].ExtractedLink != "https://alice.dev" {
		t.Errorf("expected first link https://alice.dev, got %q", links[0].ExtractedLink)
	}
	if links[1].ExtractedLink != testBaseURL+"/from?site=alice.dev" {
		t.Errorf("expected relative href absolutized, got %q", links[1].ExtractedLink)
	}
}

func TestExtract_SkipsReplyAndUserAnchors(t *testing.T) {
	html := `<table>
	<tr class='athing comtr' id='2001'>
	  <td class='ind'><img width="0"></td>
	  <td><div class="commtext">
	    <a href="reply?id=2001">reply</a>
	    <a href="user?id=someone">someone</a>
	    <a href="#">anchor</a>
	    <a href="">empty</a>
	  </div></td>
	</tr>
	</table>`

	e := scraper.NewExtractor(testBaseURL)

	links, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected 0 links for internal-only anchors, got %d", len(links))
	}
}

func TestExtract_SkipsRowsWithoutIndentIndicator(t *testing.T) {
	html := `<table>
	<tr class='athing comtr' id='3001'>
	  <td class='ind'></td>
	  <td><div class="commtext"><a href="https://example.com">x</a></div></td>
	</tr>
	</table>`

	e := scraper.NewExtractor(testBaseURL)

	links, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected 0 links for row without indent image, got %d", len(links))
	}
}

func TestExtract_UnknownAuthorAndMissingRowID(t *testing.T) {
	html := `<table>
	<tr class='athing comtr'>
	  <td class='ind'><img width="0"></td>
	  <td><div class="commtext"><a href="https://example.com/post">post</a></div></td>
	</tr>
	</table>`

	e := scraper.NewExtractor(testBaseURL)

	links, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].Author != "unknown" {
		t.Errorf("expected author unknown, got %q", links[0].Author)
	}
	if links[0].CommentURL != "" {
		t.Errorf("expected empty comment url for row without id, got %q", links[0].CommentURL)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	e := scraper.NewExtractor(testBaseURL)

	links, err := e.Extract([]byte("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected 0 links, got %d", len(links))
	}
}
