package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hyperjump/esglens/internal/extract"
	"github.com/hyperjump/esglens/internal/models"
)

type recordedReport struct {
	name  string
	pages []string
}

// recordingStore is a ReportStore that remembers every AddReport call.
type recordingStore struct {
	mu      sync.Mutex
	reports []recordedReport
	err     error
}

func (s *recordingStore) AddReport(_ context.Context, name string, pages []string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.reports = append(s.reports, recordedReport{name: name, pages: pages})
	return &models.Report{
		ID:         fmt.Sprintf("rep_%d_1700000000", len(s.reports)),
		Name:       name,
		PageCount:  len(pages),
		ChunkCount: 1,
	}, nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// blockingStore holds every AddReport call until release is closed.
type blockingStore struct {
	recordingStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) AddReport(ctx context.Context, name string, pages []string) (*models.Report, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.recordingStore.AddReport(ctx, name, pages)
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".txt", []string{".txt", ".md"}, true},
		{".TXT", []string{".txt"}, true},
		{".pdf", []string{"pdf"}, true},
		{".go", []string{".txt"}, false},
		{"", []string{".txt"}, false},
	}
	for _, tt := range tests {
		got := extensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

func TestIndexBytes_plainText(t *testing.T) {
	store := &recordingStore{}
	idx := NewIndexer(store, extract.NewExtractor())

	report, err := idx.IndexBytes(context.Background(), "notes.txt", []byte("Scope 1 emissions: 130000 tCO2e"))
	if err != nil {
		t.Fatalf("IndexBytes: %v", err)
	}
	if report.Name != "notes.txt" || report.PageCount != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if got := store.reports[0].pages; len(got) != 1 || got[0] != "Scope 1 emissions: 130000 tCO2e" {
		t.Errorf("pages = %q", got)
	}
}

func TestIndexBytes_noText(t *testing.T) {
	store := &recordingStore{}
	idx := NewIndexer(store, nil)

	_, err := idx.IndexBytes(context.Background(), "blank.txt", []byte("  \n\t "))
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
	if store.count() != 0 {
		t.Error("store should not receive a blank document")
	}
}

func TestIndexBytes_storeError(t *testing.T) {
	sentinel := errors.New("budget exceeded")
	idx := NewIndexer(&recordingStore{err: sentinel}, nil)

	_, err := idx.IndexBytes(context.Background(), "a.txt", []byte("some text"))
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected store error to be returned, got %v", err)
	}
}

func TestIndexBytes_extractError(t *testing.T) {
	idx := NewIndexer(&recordingStore{}, extract.NewExtractor())
	if _, err := idx.IndexBytes(context.Background(), "broken.pptx", []byte("not a zip")); err == nil {
		t.Error("expected extraction error")
	}
}

func TestIndexFile_skipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	store := &recordingStore{}
	idx := NewIndexer(store, extract.NewExtractor())
	ctx := context.Background()

	fPath := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(fPath, []byte("Hello world content."), 0600); err != nil {
		t.Fatal(err)
	}
	report, err := idx.IndexFile(ctx, fPath, []string{".txt", ".md"})
	if err != nil {
		t.Fatal(err)
	}
	if report == nil || report.Name != "doc.txt" {
		t.Fatalf("unexpected report: %+v", report)
	}

	report, err = idx.IndexFile(ctx, fPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report != nil || store.count() != 1 {
		t.Errorf("unchanged file should be skipped, got report %+v and %d adds", report, store.count())
	}

	if err := os.WriteFile(fPath, []byte("Updated content, longer than before."), 0600); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(fPath, future, future); err != nil {
		t.Fatal(err)
	}
	report, err = idx.IndexFile(ctx, fPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report == nil || store.count() != 2 {
		t.Error("rewritten file should be ingested again")
	}
}

func TestIndexFile_concurrentSamePathIngestsOnce(t *testing.T) {
	dir := t.TempDir()
	fPath := filepath.Join(dir, "inbox.txt")
	if err := os.WriteFile(fPath, []byte("Water withdrawal fell 12 percent across all sites."), 0600); err != nil {
		t.Fatal(err)
	}
	store := &blockingStore{entered: make(chan struct{}, 2), release: make(chan struct{})}
	idx := NewIndexer(store, nil)
	ctx := context.Background()

	type result struct {
		report *models.Report
		err    error
	}
	first := make(chan result, 1)
	go func() {
		r, err := idx.IndexFile(ctx, fPath, nil)
		first <- result{r, err}
	}()
	<-store.entered

	report, err := idx.IndexFile(ctx, fPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report != nil {
		t.Errorf("second ingest of an in-flight path should be skipped, got %+v", report)
	}

	close(store.release)
	res := <-first
	if res.err != nil || res.report == nil {
		t.Fatalf("first ingest: report %+v, err %v", res.report, res.err)
	}
	if store.count() != 1 {
		t.Errorf("store received %d reports, want 1", store.count())
	}
}

func TestIndexFile_failedIngestReleasesPath(t *testing.T) {
	dir := t.TempDir()
	fPath := filepath.Join(dir, "retry.txt")
	if err := os.WriteFile(fPath, []byte("Board oversight of climate risk is reviewed quarterly."), 0600); err != nil {
		t.Fatal(err)
	}
	store := &recordingStore{err: errors.New("embedding service down")}
	idx := NewIndexer(store, nil)
	ctx := context.Background()

	if _, err := idx.IndexFile(ctx, fPath, nil); err == nil {
		t.Fatal("expected store error")
	}
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	report, err := idx.IndexFile(ctx, fPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report == nil {
		t.Error("file should be ingested on retry after a failure")
	}
}

func TestIndexBytes_recordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	idx := NewIndexer(&recordingStore{}, nil)
	report, err := idx.IndexBytes(context.Background(), "esg.txt", []byte("Renewable electricity reached 64 percent of total use."))
	if err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, span := range recorder.Ended() {
		if span.Name() != "indexer.IndexBytes" {
			continue
		}
		found = true
		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range span.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		if got := attrs["report.id"].AsString(); got != report.ID {
			t.Errorf("report.id attribute = %q, want %q", got, report.ID)
		}
		if got := attrs["report.name"].AsString(); got != "esg.txt" {
			t.Errorf("report.name attribute = %q", got)
		}
	}
	if !found {
		t.Error("no indexer.IndexBytes span recorded")
	}
}

func TestIndexFile_extensionFiltered(t *testing.T) {
	dir := t.TempDir()
	idx := NewIndexer(&recordingStore{}, nil)

	fPath := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(fPath, []byte("#!/bin/bash"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.IndexFile(context.Background(), fPath, []string{".txt", ".md"}); err == nil {
		t.Error("expected error for disallowed extension")
	}
}

func TestIndexFile_notRegularFile(t *testing.T) {
	idx := NewIndexer(&recordingStore{}, nil)
	if _, err := idx.IndexFile(context.Background(), t.TempDir(), nil); err == nil {
		t.Error("expected error for directory")
	}
}

func TestIndexFile_nonexistent(t *testing.T) {
	idx := NewIndexer(&recordingStore{}, nil)
	if _, err := idx.IndexFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIndexFile_excelWithExtractor(t *testing.T) {
	dir := t.TempDir()
	store := &recordingStore{}
	idx := NewIndexer(store, extract.NewExtractor())

	fPath := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Water withdrawals 98500 m3")
	if err := f.SaveAs(fPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	if _, err := idx.IndexFile(context.Background(), fPath, []string{".xlsx", ".txt"}); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	got := store.reports[0]
	if got.name != "data.xlsx" || len(got.pages) != 1 || got.pages[0] != "Sheet1\nWater withdrawals 98500 m3" {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	store := &recordingStore{}
	idx := NewIndexer(store, nil)
	ctx := context.Background()

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for path, body := range map[string]string{
		filepath.Join(dir, "a.txt"):    "file a",
		filepath.Join(dir, "b.txt"):    "file b",
		filepath.Join(sub, "c.txt"):    "file c",
		filepath.Join(dir, "skip.xyz"): "skip",
	} {
		if err := os.WriteFile(path, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}

	n, err := idx.IndexDirectory(ctx, dir, []string{".txt"})
	if err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}
	if n != 3 {
		t.Errorf("IndexDirectory: indexed %d files, want 3", n)
	}

	n, err = idx.IndexDirectory(ctx, dir, []string{".txt"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second pass should skip unchanged files, indexed %d", n)
	}
}

func TestIndexDirectory_notDir(t *testing.T) {
	fPath := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(fPath, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewIndexer(&recordingStore{}, nil).IndexDirectory(context.Background(), fPath, nil); err == nil {
		t.Error("expected error for non-directory")
	}
}
