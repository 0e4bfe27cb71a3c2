package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/omopkit/omopload/internal/logging"
	"github.com/omopkit/omopload/pkg/omopload"
)

// fakeS3 serves a small S3 subset (ListObjectsV2 XML and GetObject) so the
// fetcher can be exercised without network access.
type fakeS3 struct {
	objects map[string]string // key -> body
	gets    int
}

func (m *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	// Path-style: /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range m.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>",
				k, len(m.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return xmlResponse(b.String()), nil
	}

	if req.Method == http.MethodGet {
		body, ok := m.objects[key]
		if !ok {
			return &http.Response{StatusCode: 404, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
		}
		m.gets++
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{"Content-Length": {fmt.Sprint(len(body))}},
		}, nil
	}

	return &http.Response{StatusCode: 400, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func xmlResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {"application/xml"}},
	}
}

func newTestFetcher(t *testing.T, fake *fakeS3) *Fetcher {
	t.Helper()
	fetcher, err := newFetcher(context.Background(), omopload.SourceConfig{
		Bucket:          "omop-source",
		Prefix:          "releases/2024-06",
		Region:          "us-east-1",
		Endpoint:        "http://s3.test.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, logging.NewNullLogger(), &http.Client{Transport: fake})
	if err != nil {
		t.Fatalf("newFetcher failed: %v", err)
	}
	return fetcher
}

func TestFetch_DownloadsVocabAndDatasets(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"releases/2024-06/vocab/CONCEPT.csv":       "1\tAspirin\n",
		"releases/2024-06/vocab/VOCABULARY.csv":    "RxNorm\tRxNorm\n",
		"releases/2024-06/synthea1/person.csv.gz":  "gz-bytes",
		"releases/2024-06/other/unrelated.csv":     "not requested",
		"releases/2024-06/synthea2/person.csv.lzo": "lzo-bytes",
	}}
	staging := t.TempDir()

	summary, err := newTestFetcher(t, fake).Fetch(context.Background(), staging, []string{"synthea1"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if summary.Downloaded != 3 {
		t.Errorf("Downloaded = %d, want 3", summary.Downloaded)
	}
	if summary.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", summary.Skipped)
	}

	content, err := os.ReadFile(filepath.Join(staging, "vocab", "CONCEPT.csv"))
	if err != nil {
		t.Fatalf("staged vocab file missing: %v", err)
	}
	if string(content) != "1\tAspirin\n" {
		t.Errorf("content = %q", content)
	}

	// Unrequested dataset directories are never mirrored
	if _, err := os.Stat(filepath.Join(staging, "other")); !os.IsNotExist(err) {
		t.Error("unrequested directory was fetched")
	}
	if _, err := os.Stat(filepath.Join(staging, "synthea2")); !os.IsNotExist(err) {
		t.Error("unrequested dataset was fetched")
	}
}

func TestFetch_SkipsExistingFiles(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"releases/2024-06/vocab/CONCEPT.csv": "1\tAspirin\n",
		"releases/2024-06/vocab/DOMAIN.csv":  "Drug\tDrug\n",
	}}
	staging := t.TempDir()

	// Pre-stage one file: the presence check must skip it with no transfer
	if err := os.MkdirAll(filepath.Join(staging, "vocab"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "vocab", "CONCEPT.csv"), []byte("local copy"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := newTestFetcher(t, fake).Fetch(context.Background(), staging, nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if summary.Downloaded != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 downloaded 1 skipped", summary)
	}
	if fake.gets != 1 {
		t.Errorf("GetObject calls = %d, want 1", fake.gets)
	}

	// The local copy is left untouched
	content, _ := os.ReadFile(filepath.Join(staging, "vocab", "CONCEPT.csv"))
	if string(content) != "local copy" {
		t.Errorf("pre-staged file was overwritten: %q", content)
	}
}

func TestFetch_SkipsExtractedArchives(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"releases/2024-06/synthea1/person.csv.gz":       "gz-bytes",
		"releases/2024-06/synthea1/observation.csv.lzo": "lzo-bytes",
		"releases/2024-06/synthea1/death.csv.gz":        "gz-bytes",
	}}
	staging := t.TempDir()

	// A previous run downloaded and extracted two archives: the plain files
	// exist and the archives are gone. Only death.csv.gz still needs a
	// transfer.
	if err := os.MkdirAll(filepath.Join(staging, "synthea1"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"person.csv", "observation.csv"} {
		if err := os.WriteFile(filepath.Join(staging, "synthea1", name), []byte("extracted"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := newTestFetcher(t, fake).Fetch(context.Background(), staging, []string{"synthea1"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if summary.Downloaded != 1 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want 1 downloaded 2 skipped", summary)
	}
	if fake.gets != 1 {
		t.Errorf("GetObject calls = %d, want 1", fake.gets)
	}
	if _, err := os.Stat(filepath.Join(staging, "synthea1", "person.csv.gz")); !os.IsNotExist(err) {
		t.Error("extracted archive was re-downloaded")
	}
}

func TestFetch_Idempotent(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"releases/2024-06/vocab/CONCEPT.csv": "1\tAspirin\n",
	}}
	staging := t.TempDir()
	fetcher := newTestFetcher(t, fake)

	if _, err := fetcher.Fetch(context.Background(), staging, nil); err != nil {
		t.Fatalf("first Fetch failed: %v", err)
	}
	summary, err := fetcher.Fetch(context.Background(), staging, nil)
	if err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}

	if summary.Downloaded != 0 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want everything skipped", summary)
	}
}

func TestNewFetcher_RequiresBucket(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	_, err := NewFetcher(context.Background(), omopload.SourceConfig{}, logging.NewNullLogger())
	if err == nil {
		t.Fatal("expected error without bucket")
	}
}
