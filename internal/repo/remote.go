package repo

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenk/backoff"

	"github.com/msr-creativetech/vibekit/internal/manifest"
)

// DefaultRef is used when a source URL names no ref.
const DefaultRef = "main"

const (
	fetchRequestTimeout  = 60 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = 500 * time.Millisecond
)

var (
	// ErrUnsupportedSource marks repository URLs the tool cannot fetch,
	// such as ssh remotes.
	ErrUnsupportedSource = errors.New("unsupported repository source")
	// ErrKitNotFound means the archive downloaded fine but contains no
	// directory for the requested kit.
	ErrKitNotFound = errors.New("kit not found in repository")
)

// Remote identifies a repository reachable as a gzipped tar archive.
type Remote struct {
	Display    string // the URL as configured, for messages
	ArchiveURL string
	Ref        string
}

// IsRemoteURL reports whether a configured source looks like a URL rather
// than a filesystem path.
func IsRemoteURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.Contains(trimmed, "://") || strings.HasPrefix(trimmed, "git@")
}

// ParseRemote maps a configured source URL to an archive location. GitHub
// repository URLs become codeload tarball URLs; any other https URL is used
// directly as an archive base with the ref appended. A #fragment selects
// the ref. Non-https sources are rejected.
func ParseRemote(raw string) (*Remote, error) {
	trimmed := strings.TrimSpace(raw)

	ref := DefaultRef
	if i := strings.Index(trimmed, "#"); i >= 0 {
		if frag := strings.TrimSpace(trimmed[i+1:]); frag != "" {
			ref = frag
		}
		trimmed = trimmed[:i]
	}

	if strings.HasPrefix(trimmed, "git@") || strings.HasPrefix(trimmed, "ssh://") {
		return nil, fmt.Errorf("%w: %s (use an https URL)", ErrUnsupportedSource, raw)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, raw)
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, parsed.Scheme)
	}

	remote := &Remote{Display: strings.TrimSpace(raw), Ref: ref}
	if parsed.Host == "github.com" {
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
			return nil, fmt.Errorf("%w: %s (expected github.com/<owner>/<repo>)", ErrUnsupportedSource, raw)
		}
		repoName := strings.TrimSuffix(segments[1], ".git")
		remote.ArchiveURL = fmt.Sprintf("https://codeload.github.com/%s/%s/tar.gz/%s", segments[0], repoName, ref)
		return remote, nil
	}

	remote.ArchiveURL = strings.TrimRight(trimmed, "/") + "/" + ref
	return remote, nil
}

// Fetcher downloads remote repository archives.
type Fetcher struct {
	client        *http.Client
	token         string
	userAgent     string
	maxRetries    uint64
	retryInterval time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithToken sets a personal access token sent as a bearer credential.
func WithToken(token string) FetcherOption {
	return func(f *Fetcher) {
		f.token = token
	}
}

// WithMaxRetries sets how many times a failed download is retried.
func WithMaxRetries(n uint64) FetcherOption {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithRetryInterval sets the initial backoff delay between retries.
func WithRetryInterval(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.retryInterval = d
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:        &http.Client{Timeout: fetchRequestTimeout},
		userAgent:     "vibekit",
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// fetchArchive downloads the archive with exponential backoff. Rate limits
// and server errors are retried; everything else fails immediately.
func (f *Fetcher) fetchArchive(remote *Remote) ([]byte, error) {
	var body []byte
	attempt := func() error {
		req, err := http.NewRequest(http.MethodGet, remote.ArchiveURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build archive request: %w", err))
		}
		req.Header.Set("User-Agent", f.userAgent)
		if f.token != "" {
			req.Header.Set("Authorization", "Bearer "+f.token)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("download repository archive: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("download repository archive: %w", err)
			}
			body = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("download repository archive: status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("download repository archive: status %d", resp.StatusCode))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.retryInterval
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 2 * time.Minute

	if err := backoff.Retry(attempt, backoff.WithMaxRetries(policy, f.maxRetries)); err != nil {
		return nil, err
	}
	return body, nil
}

// DownloadKit extracts the kit's subtree from the remote archive into
// destDir and returns the extracted kit directory. The archive's leading
// path segment (the repo-ref wrapper GitHub tarballs carry) is stripped
// before matching.
func (f *Fetcher) DownloadKit(remote *Remote, kit, destDir string) (string, error) {
	body, err := f.fetchArchive(remote)
	if err != nil {
		return "", err
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("read repository archive: %w", err)
	}
	defer gz.Close()

	kitDir := filepath.Join(destDir, kit)
	prefix := kit + "/"
	found := false

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read repository archive entries: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		rel, ok := archiveRelPath(hdr.Name)
		if !ok || !strings.HasPrefix(rel, prefix) {
			continue
		}
		sub := strings.TrimPrefix(rel, prefix)
		if sub == "" {
			continue
		}

		destPath := filepath.Join(kitDir, filepath.FromSlash(sub))
		if err := ensureWithin(kitDir, destPath); err != nil {
			return "", fmt.Errorf("invalid archive path %q: %w", rel, err)
		}
		if err := writeArchiveFile(destPath, tr); err != nil {
			return "", err
		}
		found = true
	}

	if !found {
		return "", fmt.Errorf("%w: %s", ErrKitNotFound, kit)
	}
	return kitDir, nil
}

// DownloadTree extracts the whole archive into destDir with the leading
// path segment stripped. Used for project templates.
func (f *Fetcher) DownloadTree(remote *Remote, destDir string) error {
	body, err := f.fetchArchive(remote)
	if err != nil {
		return err
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("read repository archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read repository archive entries: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		rel, ok := archiveRelPath(hdr.Name)
		if !ok {
			continue
		}
		destPath := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := ensureWithin(destDir, destPath); err != nil {
			return fmt.Errorf("invalid archive path %q: %w", rel, err)
		}
		if err := writeArchiveFile(destPath, tr); err != nil {
			return err
		}
	}
}

// ListKits returns an entry for each top-level kit directory in the remote
// archive, sorted by directory name. Directories without a manifest get
// metadata synthesized from the name.
func (f *Fetcher) ListKits(remote *Remote) ([]Entry, error) {
	body, err := f.fetchArchive(remote)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("read repository archive: %w", err)
	}
	defer gz.Close()

	dirs := map[string]bool{}
	metas := map[string]manifest.Metadata{}
	ranks := map[string]int{}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read repository archive entries: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		rel, ok := archiveRelPath(hdr.Name)
		if !ok {
			continue
		}
		parts := strings.SplitN(rel, "/", 2)
		if len(parts) < 2 {
			continue
		}
		top := parts[0]
		if strings.HasPrefix(top, ".") {
			continue
		}
		dirs[top] = true

		rank, ok := manifestRank(parts[1])
		if !ok {
			continue
		}
		if current, have := ranks[top]; have && current <= rank {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read repository archive entries: %w", err)
		}
		if meta, ok := manifest.Parse(data); ok {
			metas[top] = meta
			ranks[top] = rank
		}
	}

	names := make([]string, 0, len(dirs))
	for name := range dirs {
		names = append(names, name)
	}
	sort.Strings(names)

	kits := make([]Entry, 0, len(names))
	for _, name := range names {
		meta, ok := metas[name]
		if !ok {
			meta = manifest.Synthesize(name)
		}
		version := meta.Version
		if version == "" {
			version = "0.0.0"
		}
		kits = append(kits, Entry{ID: meta.ID, Version: version})
	}
	return kits, nil
}

// manifestRank returns the preference position of a manifest filename, with
// lower winning. Non-manifest paths report false.
func manifestRank(rel string) (int, bool) {
	if strings.Contains(rel, "/") {
		return 0, false
	}
	for i, name := range manifest.FileNames() {
		if rel == name {
			return i, true
		}
	}
	return 0, false
}

func writeArchiveFile(destPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create kit file directory: %w", err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create kit file %q: %w", destPath, err)
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("write kit file %q: %w", destPath, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close kit file %q: %w", destPath, closeErr)
	}
	return nil
}

// archiveRelPath strips the leading wrapper segment from an archive entry
// name and rejects entries that would escape the extraction root.
func archiveRelPath(name string) (string, bool) {
	clean := path.Clean(strings.TrimPrefix(strings.TrimSpace(name), "./"))
	if clean == "." || strings.HasPrefix(clean, "../") {
		return "", false
	}

	parts := strings.Split(clean, "/")
	if len(parts) < 2 {
		return "", false
	}

	rel := path.Clean(strings.Join(parts[1:], "/"))
	if rel == "." || rel == "" || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func ensureWithin(basePath, candidatePath string) error {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return err
	}
	candidateAbs, err := filepath.Abs(candidatePath)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(baseAbs, candidateAbs)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory")
	}
	return nil
}
