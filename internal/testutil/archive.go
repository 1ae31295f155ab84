package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"testing"
)

// BuildArchive produces a gzipped tarball holding the given files, keyed by
// archive entry name. Remote repository archives wrap content in a leading
// "<repo>-<ref>/" segment; callers include it in the keys.
func BuildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader(%q): %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%q): %v", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	return buf.Bytes()
}

// FakeTransport serves canned bodies by request path and records the
// headers it saw. Paths without a body return 404.
type FakeTransport struct {
	StatusCode int
	Bodies     map[string][]byte
	Requests   []*http.Request
	// FailuresBeforeSuccess makes the first N lookups of a known path
	// return 503, for retry tests.
	FailuresBeforeSuccess int

	served int
}

func (ft *FakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ft.Requests = append(ft.Requests, req)

	body, ok := ft.Bodies[req.URL.Path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}

	if ft.served < ft.FailuresBeforeSuccess {
		ft.served++
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}

	status := ft.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}
