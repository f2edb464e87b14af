package archive

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"tweetsieve/internal/model"
)

func TestImportAndLoadBatch(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	in := []*model.Record{
		model.Parse(json.RawMessage(`{"id":"1","text":"first","public_metrics":{"reply_count":4}}`)),
		model.Parse(json.RawMessage(`{"id":"2","text":"second","created_at":"2024-01-02T03:04:05Z"}`)),
		model.Parse(json.RawMessage(`{"id":"3","text":"third"}`)),
	}
	n, err := db.Import(ctx, in)
	if err != nil || n != 3 {
		t.Fatalf("import n=%d err=%v", n, err)
	}
	out, err := db.LoadBatch(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("loaded %d", len(out))
	}
	for i := range in {
		a, _ := json.Marshal(in[i])
		b, _ := json.Marshal(out[i])
		if string(a) != string(b) {
			t.Fatalf("row %d: %s != %s", i, b, a)
		}
	}

	limited, err := db.LoadBatch(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("limit: n=%d err=%v", len(limited), err)
	}
	if c, _ := db.Count(ctx); c != 3 {
		t.Fatalf("count %d", c)
	}
}

func TestLoadBatchAssemblesFromColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	_, err = db.sql.ExecContext(ctx, `INSERT INTO tweets(id, text, created_at, public_metrics) VALUES('7','from columns','2024-02-01T00:00:00Z','{"like_count":5}')`)
	if err != nil {
		t.Fatal(err)
	}
	out, err := db.LoadBatch(ctx, 0)
	if err != nil || len(out) != 1 {
		t.Fatalf("n=%d err=%v", len(out), err)
	}
	b, _ := json.Marshal(out[0])
	want := `{"id":"7","text":"from columns","created_at":"2024-02-01T00:00:00Z","public_metrics":{"like_count":5}}`
	if string(b) != want {
		t.Fatalf("got %s", b)
	}
	if v := out[0].MetricOrZero(model.LikeCount); v != 5 {
		t.Fatalf("like_count %d", v)
	}
}
