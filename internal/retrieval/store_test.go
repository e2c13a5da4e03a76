package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/esglens/internal/embedding"
	"github.com/hyperjump/esglens/internal/indexer"
	"github.com/hyperjump/esglens/internal/vector"
)

func newTestStore(opts ...StoreOption) (*Store, *embedding.MockEmbedder) {
	m := embedding.NewMockEmbedder(256)
	return NewStore(m, opts...), m
}

func page(words ...string) string {
	return strings.Repeat(strings.Join(words, " ")+" ", 4)
}

func TestStore_SinglePageScenario(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	text := strings.Repeat("Scope 1 emissions fell by 12 percent. ", 6)[:200]
	if len(text) != 200 {
		t.Fatalf("fixture length %d", len(text))
	}

	r, err := s.AddReport(ctx, "single.txt", []string{text})
	if err != nil {
		t.Fatal(err)
	}
	if r.ChunkCount != 1 || r.PageCount != 1 {
		t.Errorf("report counts: chunks %d, pages %d", r.ChunkCount, r.PageCount)
	}

	chunks := s.ReportChunks(r.ID, 0)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != text || chunks[0].Page != 1 || chunks[0].Position != 0 {
		t.Errorf("unexpected chunk: %+v", chunks[0])
	}

	if got := s.PreviewText(r.ID, 50); got != text[:50] {
		t.Errorf("PreviewText = %q", got)
	}
}

func TestStore_EmptySearchDoesNotEmbed(t *testing.T) {
	s, m := newTestStore()
	results, err := s.Search(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
	if m.Calls() != 0 {
		t.Errorf("empty store should not embed the query, %d calls", m.Calls())
	}
}

func TestStore_EmptyDocument(t *testing.T) {
	s, m := newTestStore()
	for _, pages := range [][]string{nil, {""}, {"   ", "too short"}} {
		_, err := s.AddReport(context.Background(), "empty.pdf", pages)
		if !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("pages %q: expected ErrEmptyDocument, got %v", pages, err)
		}
	}
	if m.Calls() != 0 {
		t.Errorf("empty documents should not be embedded, %d calls", m.Calls())
	}
	if len(s.ListReports()) != 0 {
		t.Error("empty documents should not be listed")
	}
}

func TestStore_ReportIDsUniqueAndFormatted(t *testing.T) {
	s, _ := newTestStore()
	idRe := regexp.MustCompile(`^rep_\d+_\d+$`)
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		r, err := s.AddReport(context.Background(), fmt.Sprintf("r%d.txt", i), []string{page("report", "number", fmt.Sprint(i), "content")})
		if err != nil {
			t.Fatal(err)
		}
		if !idRe.MatchString(r.ID) {
			t.Errorf("id %q does not match %s", r.ID, idRe)
		}
		if seen[r.ID] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
	reports := s.ListReports()
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	if !strings.HasPrefix(reports[0].ID, "rep_1_") || !strings.HasPrefix(reports[2].ID, "rep_3_") {
		t.Errorf("reports not in upload order: %s, %s", reports[0].ID, reports[2].ID)
	}
}

func TestStore_PositionRowCoupling(t *testing.T) {
	s, _ := newTestStore(WithChunker(indexer.NewChunker(80, 10, 800, 50)))
	ctx := context.Background()
	docs := [][]string{
		{page("scope", "one", "emissions", "tonnes"), page("energy", "consumption", "megawatt", "hours")},
		{page("board", "female", "representation", "percent")},
		{page("waste", "generated", "hazardous", "tonnes"), page("employees", "total", "headcount", "workforce")},
	}
	for i, pages := range docs {
		if _, err := s.AddReport(ctx, fmt.Sprintf("doc%d.txt", i), pages); err != nil {
			t.Fatal(err)
		}
	}

	st := s.Stats()
	if st.Chunks != st.IndexSize {
		t.Errorf("chunks %d != index rows %d", st.Chunks, st.IndexSize)
	}
	if st.Dimensions != 256 {
		t.Errorf("dimensions = %d, want 256", st.Dimensions)
	}

	flat, ok := s.index.(*vector.FlatIndex)
	if !ok {
		t.Fatalf("index is %T, want *vector.FlatIndex", s.index)
	}
	for i, c := range s.chunks {
		if c.Position != i {
			t.Fatalf("chunk %d has position %d", i, c.Position)
		}
		want, err := s.vectorizer.Embed(ctx, c.Text)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(want, flat.Vector(i)) {
			t.Errorf("row %d does not match chunk %d", i, i)
		}
	}
}

func TestStore_SearchRanksIdenticalChunkFirst(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	_, err := s.AddReport(ctx, "a.txt", []string{
		page("scope", "one", "emissions", "were", "130000", "tco2e"),
		page("water", "withdrawals", "were", "98500", "cubic", "metres"),
		page("board", "female", "representation", "is", "36", "percent"),
	})
	if err != nil {
		t.Fatal(err)
	}

	target := s.ReportChunks(s.ListReports()[0].ID, 0)[1]
	results, err := s.Search(ctx, target.Text, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Position != target.Position || results[0].Page != target.Page {
		t.Errorf("top hit %+v, want position %d page %d", results[0], target.Position, target.Page)
	}
	if math.Abs(results[0].Score-1.0) > 1e-5 {
		t.Errorf("identical chunk score = %f, want 1", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted at %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestStore_ReportFilter(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	a, err := s.AddReport(ctx, "energy.txt", []string{page("solar", "capacity", "megawatts", "installed"), page("grid", "losses", "distribution", "network")})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.AddReport(ctx, "people.txt", []string{page("employees", "training", "hours", "safety"), page("injury", "rate", "contractors", "workforce")})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, "solar capacity megawatts", 8, []string{b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected filtered results")
	}
	for _, r := range results {
		if r.ReportID != b.ID {
			t.Errorf("result from %s leaked through filter for %s", r.ReportID, b.ID)
		}
	}

	all, err := s.Search(ctx, "solar capacity megawatts", 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	if all[0].ReportID != a.ID {
		t.Errorf("unfiltered top hit from %s, want %s", all[0].ReportID, a.ID)
	}
}

func TestStore_FilterMayReturnFewerThanTopK(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	var pages []string
	for i := 0; i < 6; i++ {
		pages = append(pages, page("alpha", "emissions", fmt.Sprintf("site%d", i), "baseline"))
	}
	if _, err := s.AddReport(ctx, "big.txt", pages); err != nil {
		t.Fatal(err)
	}
	small, err := s.AddReport(ctx, "small.txt", []string{page("zeta", "governance", "committee", "charter")})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, "alpha emissions baseline", 1, []string{small.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("over-fetch of 3 candidates is exhausted by the larger report, got %d results", len(results))
	}
}

func TestStore_TopKZero(t *testing.T) {
	s, m := newTestStore()
	if _, err := s.AddReport(context.Background(), "x.txt", []string{page("some", "reasonable", "content", "here")}); err != nil {
		t.Fatal(err)
	}
	calls := m.Calls()
	results, err := s.Search(context.Background(), "content", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("top_k 0 returned %d results", len(results))
	}
	if m.Calls() != calls {
		t.Error("top_k 0 should not embed the query")
	}
}

// duplicatingIndex wraps a flat index and pads every search with repeated and
// out-of-range rows.
type duplicatingIndex struct {
	*vector.FlatIndex
}

func (d *duplicatingIndex) Type() string { return "duplicating" }

func (d *duplicatingIndex) Search(ctx context.Context, query []float32, k int) ([]*vector.VectorResult, error) {
	hits, err := d.FlatIndex.Search(ctx, query, k)
	if err != nil || len(hits) == 0 {
		return hits, err
	}
	out := []*vector.VectorResult{hits[0], hits[0], {Row: d.Size() + 7, Score: 2}, {Row: -1, Score: 2}}
	for _, h := range hits {
		out = append(out, h, h)
	}
	return out, nil
}

func TestStore_SearchSkipsDuplicateAndUnknownRows(t *testing.T) {
	var factoryDims []int
	s, _ := newTestStore(
		WithIndexFactory(func(dim int) (vector.VectorIndex, error) {
			factoryDims = append(factoryDims, dim)
			flat, err := vector.NewFlatIndex(dim)
			if err != nil {
				return nil, err
			}
			return &duplicatingIndex{FlatIndex: flat}, nil
		}),
	)
	ctx := context.Background()
	r, err := s.AddReport(ctx, "dup.txt", []string{
		page("scope", "two", "market", "based", "emissions"),
		page("renewable", "electricity", "share", "of", "total"),
		page("water", "recycled", "in", "cooling", "towers"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddReport(ctx, "second.txt", []string{page("supplier", "audits", "completed", "this", "year")}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(factoryDims, []int{256}) {
		t.Errorf("index factory calls = %v, want one call with 256", factoryDims)
	}
	if st := s.Stats(); st.IndexType != "duplicating" {
		t.Errorf("index type = %q, want the injected index", st.IndexType)
	}

	for _, topK := range []int{1, 2, 10} {
		results, err := s.Search(ctx, "scope two market based emissions", topK, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 0 || len(results) > topK {
			t.Fatalf("top_k %d: got %d results", topK, len(results))
		}
		seen := map[int]bool{}
		for _, res := range results {
			if seen[res.Position] {
				t.Errorf("top_k %d: position %d returned twice", topK, res.Position)
			}
			seen[res.Position] = true
			if res.Position < 0 || res.Position >= s.Stats().Chunks {
				t.Errorf("top_k %d: position %d out of range", topK, res.Position)
			}
		}
		if results[0].ReportID != r.ID || results[0].Position != 0 {
			t.Errorf("top_k %d: top hit %+v, want position 0 of %s", topK, results[0], r.ID)
		}
	}

	results, err := s.Search(ctx, "scope two market based emissions", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if chunks := s.Stats().Chunks; len(results) != chunks {
		t.Errorf("top_k 10 over %d chunks returned %d unique results", chunks, len(results))
	}
}

func TestStore_IndexFactoryError(t *testing.T) {
	sentinel := errors.New("no index for you")
	s, _ := newTestStore(WithIndexFactory(func(int) (vector.VectorIndex, error) { return nil, sentinel }))
	_, err := s.AddReport(context.Background(), "x.txt", []string{page("board", "oversight", "of", "climate", "risk")})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected factory error, got %v", err)
	}
	if st := s.Stats(); st.Reports != 0 || st.Dimensions != 0 {
		t.Errorf("failed ingest left state behind: %+v", st)
	}
}

func TestStore_EmbeddingFailureCommitsNothing(t *testing.T) {
	s, m := newTestStore()
	ctx := context.Background()
	if _, err := s.AddReport(ctx, "ok.txt", []string{page("first", "report", "content", "stored")}); err != nil {
		t.Fatal(err)
	}

	m.SetError(errors.New("upstream 503"))
	_, err := s.AddReport(ctx, "fail.txt", []string{page("second", "report", "never", "stored")})
	if !errors.Is(err, embedding.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if _, err := s.Search(ctx, "first report", 3, nil); !errors.Is(err, embedding.ErrServiceUnavailable) {
		t.Errorf("search: expected ErrServiceUnavailable, got %v", err)
	}

	m.SetError(nil)
	st := s.Stats()
	if st.Reports != 1 || st.Chunks != st.IndexSize {
		t.Errorf("failed ingest changed the store: %+v", st)
	}
	if len(s.ListReports()) != 1 {
		t.Errorf("got %d listed reports, want 1", len(s.ListReports()))
	}
}

func TestStore_DimensionMismatchCommitsNothing(t *testing.T) {
	e := &switchEmbedder{dims: 8}
	s := NewStore(e)
	ctx := context.Background()
	if _, err := s.AddReport(ctx, "first.txt", []string{page("eight", "dimensional", "embedding", "source")}); err != nil {
		t.Fatal(err)
	}

	e.dims = 16
	_, err := s.AddReport(ctx, "second.txt", []string{page("sixteen", "dimensional", "embedding", "source")})
	if !errors.Is(err, vector.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	st := s.Stats()
	if st.Dimensions != 8 || st.Reports != 1 || st.Chunks != st.IndexSize {
		t.Errorf("mismatched ingest changed the store: %+v", st)
	}
}

func TestStore_ResourceExhausted(t *testing.T) {
	s, _ := newTestStore(WithMaxMemoryBytes(1024))
	_, err := s.AddReport(context.Background(), "huge.pdf", []string{page("a", "page", "that", "does", "not", "fit")})
	if !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}
	st := s.Stats()
	if st.Reports != 0 || st.Chunks != 0 || st.Dimensions != 0 {
		t.Errorf("rejected ingest changed the store: %+v", st)
	}
}

func TestStore_PreviewText(t *testing.T) {
	s, _ := newTestStore(WithChunker(indexer.NewChunker(60, 0, 800, 10)))
	p1 := strings.Repeat("a", 60)
	p2 := strings.Repeat("b", 30)
	r, err := s.AddReport(context.Background(), "r.txt", []string{p1, p2})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id       string
		maxChars int
		want     string
	}{
		{r.ID, 1000, p1 + " " + p2},
		{r.ID, 62, p1 + " b"},
		{r.ID, 0, ""},
		{"rep_missing", 100, ""},
	}
	for _, tt := range tests {
		if got := s.PreviewText(tt.id, tt.maxChars); got != tt.want {
			t.Errorf("PreviewText(%q, %d) = %q, want %q", tt.id, tt.maxChars, got, tt.want)
		}
	}
}

func TestStore_GetReport(t *testing.T) {
	s, _ := newTestStore()
	if _, err := s.GetReport("nope"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}

	r, err := s.AddReport(context.Background(), "x.txt", []string{page("governance", "board", "independence", "audit")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetReport(r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != r.Name {
		t.Errorf("GetReport name = %q, want %q", got.Name, r.Name)
	}
}

func TestStore_ReportChunksLimit(t *testing.T) {
	s, _ := newTestStore()
	var pages []string
	for i := 0; i < 5; i++ {
		pages = append(pages, page("page", fmt.Sprintf("number%d", i), "of", "the", "report"))
	}
	r, err := s.AddReport(context.Background(), "x.txt", pages)
	if err != nil {
		t.Fatal(err)
	}
	chunks := s.ReportChunks(r.ID, 3)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Page != i+1 {
			t.Errorf("chunk %d on page %d", i, c.Page)
		}
	}
	if n := len(s.ReportChunks(r.ID, 0)); n != 5 {
		t.Errorf("unlimited chunks = %d, want 5", n)
	}
	if n := len(s.ReportChunks("unknown", 3)); n != 0 {
		t.Errorf("unknown report chunks = %d", n)
	}
}

func TestStore_ConcurrentIngestAndSearch(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	errs := make(chan error, 16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddReport(ctx, fmt.Sprintf("r%d.txt", i), []string{
				page("report", fmt.Sprintf("topic%d", i), "emissions", "energy"),
				page("second", "page", fmt.Sprintf("detail%d", i), "water"),
			})
			if err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			results, err := s.Search(ctx, "emissions energy", 5, nil)
			if err != nil {
				errs <- err
				return
			}
			for _, r := range results {
				if r.ReportID == "" {
					errs <- errors.New("result without report id")
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	st := s.Stats()
	if st.Reports != 8 || st.Chunks != 16 || st.Chunks != st.IndexSize {
		t.Errorf("unexpected stats after concurrent ingest: %+v", st)
	}
	for i, c := range s.chunks {
		if c.Position != i {
			t.Errorf("chunk %d has position %d", i, c.Position)
		}
	}
}

type switchEmbedder struct {
	dims int
}

func (e *switchEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dims)
	v[len(text)%e.dims] = 1
	return v, nil
}

func (e *switchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *switchEmbedder) Dimensions() int { return e.dims }
func (e *switchEmbedder) Close() error    { return nil }
