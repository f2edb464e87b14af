package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetsieve/internal/model"
)

func rec(s string) *model.Record { return model.Parse(json.RawMessage(s)) }

func TestJSONPrettyAndVerbatim(t *testing.T) {
	r := rec(`{"id":"1","text":"café <b>&</b> 東京","public_metrics":{"reply_count":2}}`)
	r.SetCreatedDate("2024-03-01")
	out, err := JSON([]*model.Record{r})
	require.NoError(t, err)
	want := `[
  {
    "id": "1",
    "text": "café <b>&</b> 東京",
    "public_metrics": {
      "reply_count": 2
    },
    "created_date": "2024-03-01"
  }
]`
	assert.Equal(t, want, string(out))
}

func TestJSONEmpty(t *testing.T) {
	out, err := JSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestText(t *testing.T) {
	a := rec(`{"text":"first","public_metrics":{"reply_count":3,"retweet_count":1}}`)
	a.SetCreatedDate("2024-03-01")
	b := rec(`{"text":"second"}`)
	got := Text([]*model.Record{a, b})
	rule := strings.Repeat("-", 40)
	want := "Tweet 1:\nfirst\nReplies: 3 | Retweets: 1 | Created at: 2024-03-01 | Likes: unknown\n" + rule + "\n" +
		"\n" +
		"Tweet 2:\nsecond\nReplies: unknown | Retweets: unknown | Created at: unknown | Likes: unknown\n" + rule + "\n"
	assert.Equal(t, want, got)
	assert.Equal(t, "", Text(nil))
}

func TestDocumentBlock(t *testing.T) {
	r := rec(`{"text":"hello","public_metrics":{"reply_count":1,"like_count":4,"impression_count":100}}`)
	r.SetCreatedDate("2024-03-02")
	got, err := DocumentBlock(0, r, DocumentOptions{})
	require.NoError(t, err)
	want := "Tweet 1:\nhello\n\nCreated at: 2024-03-02\n" +
		"Replies: 1 | Retweets: unknown | Likes: 4\n" +
		"Quotes: unknown | Bookmarks: unknown | Impressions: 100\n\n" +
		strings.Repeat("-", 80) + "\n"
	assert.Equal(t, want, got)
}

func TestDocumentBlockPlaceholders(t *testing.T) {
	got, err := DocumentBlock(2, rec(`{"text":"   "}`), DocumentOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Tweet 3:\n"+EmptyPlaceholder+"\n"))

	long := strings.Repeat("é", 5000)
	r := model.Parse(mustJSON(t, map[string]string{"text": long}))
	got, err = DocumentBlock(0, r, DocumentOptions{})
	require.NoError(t, err)
	want := "Tweet 1:\n" + strings.Repeat("é", 1000) + TruncationMarker + "\n\n"
	assert.True(t, strings.HasPrefix(got, want))

	_, err = DocumentBlock(0, rec(`{"text":7}`), DocumentOptions{})
	assert.ErrorIs(t, err, model.ErrTextNotString)
}

func TestPDFRendersAllRecords(t *testing.T) {
	var records []*model.Record
	for i := 0; i < 60; i++ {
		records = append(records, rec(`{"text":"tweet body with ünïcödé and emoji 🚀","public_metrics":{"reply_count":1}}`))
	}
	records = append(records, rec(`{"text":""}`), rec(`{"text":null}`))
	records = append(records, model.Parse(mustJSON(t, map[string]string{"text": strings.Repeat("x ", 4000)})))

	doc := PDF(records, DocumentOptions{FontPath: "/nonexistent/DejaVuSans.ttf"})
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-")), "got %q", head(doc))

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	assert.Greater(t, r.NumPage(), 1)

	n, err := PageCount(doc)
	require.NoError(t, err)
	assert.Equal(t, r.NumPage(), n)
}

func pdfText(t *testing.T, doc []byte) string {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	plain, err := r.GetPlainText()
	require.NoError(t, err)
	b, err := io.ReadAll(plain)
	require.NoError(t, err)
	return string(b)
}

func TestPDFWritesPlaceholders(t *testing.T) {
	records := []*model.Record{rec(`{"text":""}`), rec(`{"text":null}`), rec(`{"text":"ok body"}`)}
	text := pdfText(t, PDF(records, DocumentOptions{}))
	assert.Contains(t, text, EmptyPlaceholder)
	assert.Contains(t, text, ErrorPlaceholder(1))
	assert.Contains(t, text, "ok body")
	assert.Contains(t, text, "Tweet 3:")
}

const dejaVuPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"

func TestPDFUnicodeFontFromAbsolutePath(t *testing.T) {
	if _, err := os.Stat(dejaVuPath); err != nil {
		t.Skipf("font not installed: %v", err)
	}
	records := []*model.Record{rec(`{"text":"Ελληνικά café Привет"}`)}
	text := pdfText(t, PDF(records, DocumentOptions{FontPath: dejaVuPath}))
	assert.Contains(t, text, "Ελληνικά")
	assert.Contains(t, text, "Привет")
	assert.NotContains(t, text, "????")
}

func TestPDFFallbackReplacesUnmappedRunes(t *testing.T) {
	records := []*model.Record{rec(`{"text":"Ελληνικά café"}`)}
	text := pdfText(t, PDF(records, DocumentOptions{FontPath: "/nonexistent/DejaVuSans.ttf"}))
	assert.Contains(t, text, "???????? café")
}

func TestPDFReturnsFailureDocumentWhenOutputFails(t *testing.T) {
	prev := newDocument
	defer func() { newDocument = prev }()
	newDocument = func(opts DocumentOptions) *fpdf.Fpdf {
		doc := prev(opts)
		// an unbalanced transform makes Close, and so Output, fail
		doc.TransformBegin()
		return doc
	}

	out := PDF([]*model.Record{rec(`{"text":"never written"}`)}, DocumentOptions{})
	assert.Equal(t, FailureDocument, out)

	_, err := PageCount(out)
	assert.Error(t, err)
}

func TestPDFEmptyBatch(t *testing.T) {
	doc := PDF(nil, DocumentOptions{})
	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())
}

func TestPDFDeterministic(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*model.Record{rec(`{"text":"same"}`)}
	a := PDF(records, DocumentOptions{CreatedAt: at})
	b := PDF(records, DocumentOptions{CreatedAt: at})
	assert.Equal(t, a, b)
}

func TestPageCountRejectsGarbage(t *testing.T) {
	_, err := PageCount(FailureDocument)
	assert.Error(t, err)
}

func TestRenderDispatch(t *testing.T) {
	records := []*model.Record{rec(`{"text":"x"}`)}
	for _, f := range Formats {
		out, err := Render(f, records, DocumentOptions{})
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}
	_, err := Render(Format("docx"), records, DocumentOptions{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormats(t *testing.T) {
	fs, err := ParseFormats([]string{"PDF", ".json", "text", "pdf"})
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatPDF, FormatJSON, FormatText}, fs)

	fs, err = ParseFormats(nil)
	require.NoError(t, err)
	assert.Equal(t, Formats, fs)

	_, err = ParseFormats([]string{"csv"})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, "filtered_tweets.txt", FormatText.FileName("filtered_tweets"))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func head(b []byte) []byte {
	if len(b) > 16 {
		return b[:16]
	}
	return b
}
