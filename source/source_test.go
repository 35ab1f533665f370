package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/logger"
)

func newLoader(t *testing.T, cfg Config, opts ...Option) *Loader {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewNop())}, opts...)
	l, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close(context.Background()) })
	return l
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile(t *testing.T) {
	l := newLoader(t, Config{})
	path := writeFile(t, "changes.diff", "diff --git a/x b/x\n+hello\n")

	doc, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Document{Kind: KindFile, Source: path, Text: "diff --git a/x b/x\n+hello\n"}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestFileErrors(t *testing.T) {
	l := newLoader(t, Config{})
	tests := []struct {
		name string
		path string
		code apperrors.ErrorCode
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.diff"), apperrors.ErrCodeInputNotFound},
		{"blank", writeFile(t, "blank.txt", "  \n\t\n"), apperrors.ErrCodeEmptyContent},
		{"directory", t.TempDir(), apperrors.ErrCodeFetchError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.File(context.Background(), tc.path)
			if !apperrors.Is(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if !apperrors.IsInputError(err) {
				t.Errorf("expected an input acquisition error, got %v", err)
			}
		})
	}
}

func TestStdin(t *testing.T) {
	l := newLoader(t, Config{}, WithStdin(strings.NewReader("My invoice is wrong.")))
	doc, err := l.Load(context.Background(), StdinRef)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Kind != KindStdin || doc.Text != "My invoice is wrong." {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestStdinEmpty(t *testing.T) {
	l := newLoader(t, Config{}, WithStdin(strings.NewReader("")))
	_, err := l.Stdin(context.Background())
	if !apperrors.Is(err, apperrors.ErrCodeEmptyContent) {
		t.Fatalf("expected EMPTY_CONTENT, got %v", err)
	}
}

const page = `<!DOCTYPE html>
<html>
<head><title>Acme Deploy</title><style>body { color: red; }</style></head>
<body>
  <nav><a href="/">Home</a><a href="/pricing">Pricing</a></nav>
  <h1>Ship faster</h1>
  <p>
    Acme deploys your app
    in seconds.
  </p>
  <!-- hidden -->
  <script>track("visit")</script>
  <ul><li>Previews</li><li>Rollbacks</li></ul>
  <footer>© Acme</footer>
</body>
</html>`

func TestURL(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	l := newLoader(t, Config{UserAgent: "llmflow-test"})
	doc, err := l.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := "Acme Deploy\nShip faster\nAcme deploys your app\nin seconds.\nPreviews\nRollbacks"
	if diff := cmp.Diff(want, doc.Text); diff != "" {
		t.Errorf("page text mismatch (-want +got):\n%s", diff)
	}
	if doc.Kind != KindURL || doc.Truncated {
		t.Errorf("unexpected document: %+v", doc)
	}
	if userAgent != "llmflow-test" {
		t.Errorf("expected configured user agent, got %q", userAgent)
	}
}

func TestURLTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("é", 30)))
	}))
	defer srv.Close()

	l := newLoader(t, Config{MaxChars: 10})
	doc, err := l.URL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if doc.Text != strings.Repeat("é", 10)+TruncationMarker || !doc.Truncated {
		t.Errorf("unexpected truncation: %q", doc.Text)
	}
}

func TestURLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blank" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body><script>x()</script></body></html>"))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := newLoader(t, Config{})
	tests := []struct {
		name string
		url  string
		code apperrors.ErrorCode
	}{
		{"server error", srv.URL + "/fail", apperrors.ErrCodeFetchError},
		{"no visible text", srv.URL + "/blank", apperrors.ErrCodeEmptyContent},
		{"not a url", "ftp://example.com/x", apperrors.ErrCodeFetchError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.URL(context.Background(), tc.url)
			if !apperrors.Is(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in, want  string
		limit     int
		truncated bool
	}{
		{"short", "short", 10, false},
		{"exactly10!", "exactly10!", 10, false},
		{"abcdefghijk", "abcde" + TruncationMarker, 5, true},
		{"anything", "anything", 0, false},
	}
	for _, tc := range tests {
		got, truncated := Truncate(tc.in, tc.limit)
		if got != tc.want || truncated != tc.truncated {
			t.Errorf("Truncate(%q, %d) = %q, %v", tc.in, tc.limit, got, truncated)
		}
	}
}

func TestDecode(t *testing.T) {
	doc := Document{Source: "user.json", Text: `{"name":"Ada","plan":"pro"}`}
	var user struct {
		Name string `json:"name"`
		Plan string `json:"plan"`
	}
	if err := doc.Decode(&user); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if user.Name != "Ada" || user.Plan != "pro" {
		t.Errorf("unexpected decode: %+v", user)
	}

	bad := Document{Source: "bad.json", Text: "{"}
	if err := bad.Decode(&user); !apperrors.Is(err, apperrors.ErrCodeFetchError) {
		t.Errorf("expected FETCH_ERROR, got %v", err)
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "dev@example.com"},
		{"config", "user.name", "dev"},
	} {
		if out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	return dir
}

func TestGitDiff(t *testing.T) {
	dir := initRepo(t)
	l := newLoader(t, Config{GitDir: dir})

	if _, err := l.GitDiff(context.Background(), ""); !apperrors.Is(err, apperrors.ErrCodeEmptyContent) {
		t.Fatalf("expected EMPTY_CONTENT with nothing staged, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if out, err := exec.Command("git", "-C", dir, "add", "main.go").CombinedOutput(); err != nil {
		t.Fatalf("git add: %v\n%s", err, out)
	}

	doc, err := l.GitDiff(context.Background(), "")
	if err != nil {
		t.Fatalf("GitDiff: %v", err)
	}
	if doc.Source != "git diff --staged" || !strings.Contains(doc.Text, "+package main") {
		t.Errorf("unexpected diff document: %+v", doc)
	}
}

func TestGitDiffUnknownCommit(t *testing.T) {
	dir := initRepo(t)
	l := newLoader(t, Config{GitDir: dir})

	_, err := l.GitDiff(context.Background(), "deadbeef")
	if !apperrors.Is(err, apperrors.ErrCodeFetchError) {
		t.Fatalf("expected FETCH_ERROR, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["source"] != "git show deadbeef" || appErr.Details["exit_code"] != 128 {
		t.Errorf("unexpected details: %v", appErr.Details)
	}
}
