package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	apperrors "github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/httpclient"
	"github.com/kbukum/llmflow/logger"
	"github.com/kbukum/llmflow/observability"
	"github.com/kbukum/llmflow/process"
)

// StdinRef is the reference that selects standard input.
const StdinRef = "-"

// Kind identifies where a Document came from.
type Kind string

const (
	KindFile    Kind = "file"
	KindStdin   Kind = "stdin"
	KindURL     Kind = "url"
	KindGitDiff Kind = "git_diff"
)

// Document is acquired input text and the identifier it was read from.
type Document struct {
	Kind   Kind
	Source string
	Text   string
	// Truncated is set when page text was cut at Config.MaxChars.
	Truncated bool
}

// Decode unmarshals the document text as JSON into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal([]byte(d.Text), v); err != nil {
		return apperrors.FetchFailed(d.Source, fmt.Errorf("decode json: %w", err))
	}
	return nil
}

// Loader acquires pipeline input from files, standard input, web pages,
// and git.
type Loader struct {
	cfg   Config
	http  *httpclient.Client
	git   *process.Adapter
	stdin io.Reader
	log   *logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithStdin replaces os.Stdin as the source for StdinRef.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) { l.stdin = r }
}

// WithLogger sets the logger used for acquisition events.
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// New creates a Loader.
func New(cfg Config, opts ...Option) (*Loader, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := httpclient.New(httpclient.Config{
		Name:      "source",
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Headers: map[string]string{
			"Accept": "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8",
		},
	})
	if err != nil {
		return nil, apperrors.Configuration("source: http client").WithCause(err)
	}

	l := &Loader{
		cfg:   cfg,
		http:  client,
		git:   process.NewAdapter(process.Config{Binary: "git", Dir: cfg.GitDir, Timeout: cfg.GitTimeout}),
		stdin: os.Stdin,
		log:   logger.Get("source"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Close releases the HTTP transport.
func (l *Loader) Close(ctx context.Context) error {
	return l.http.Close(ctx)
}

// Load dispatches on ref: StdinRef reads standard input, an http or https
// URL is fetched, anything else is read as a file path.
func (l *Loader) Load(ctx context.Context, ref string) (Document, error) {
	switch {
	case ref == StdinRef:
		return l.Stdin(ctx)
	case isURL(ref):
		return l.URL(ctx, ref)
	default:
		return l.File(ctx, ref)
	}
}

// File reads a whole file.
func (l *Loader) File(ctx context.Context, path string) (Document, error) {
	return l.traced(ctx, KindFile, path, func(context.Context) (Document, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Document{}, apperrors.InputNotFound(path)
			}
			return Document{}, apperrors.FetchFailed(path, err)
		}
		return Document{Kind: KindFile, Source: path, Text: string(data)}, nil
	})
}

// Stdin reads standard input to EOF.
func (l *Loader) Stdin(ctx context.Context) (Document, error) {
	return l.traced(ctx, KindStdin, StdinRef, func(context.Context) (Document, error) {
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return Document{}, apperrors.FetchFailed("stdin", err)
		}
		return Document{Kind: KindStdin, Source: "stdin", Text: string(data)}, nil
	})
}

// URL fetches a web page and reduces it to readable text. Script, style,
// navigation, and footer content is dropped and the result is cut at
// Config.MaxChars with TruncationMarker appended.
func (l *Loader) URL(ctx context.Context, rawURL string) (Document, error) {
	return l.traced(ctx, KindURL, rawURL, func(ctx context.Context) (Document, error) {
		if !isURL(rawURL) {
			return Document{}, apperrors.FetchFailed(rawURL, errors.New("not an http(s) url"))
		}
		resp, err := l.http.Do(ctx, httpclient.Request{Method: "GET", Path: rawURL})
		if err != nil {
			return Document{}, apperrors.FetchFailed(rawURL, err)
		}

		text := string(resp.Body)
		if isHTML(resp.ContentType(), resp.Body) {
			if text, err = ExtractText(strings.NewReader(text)); err != nil {
				return Document{}, apperrors.FetchFailed(rawURL, err)
			}
		}
		text, truncated := Truncate(text, l.cfg.MaxChars)
		return Document{Kind: KindURL, Source: rawURL, Text: text, Truncated: truncated}, nil
	})
}

// GitDiff returns the staged changes of the configured repository, or the
// patch of commit when commit is non-empty.
func (l *Loader) GitDiff(ctx context.Context, commit string) (Document, error) {
	args := []string{"diff", "--staged"}
	if commit != "" {
		args = []string{"show", commit}
	}
	label := "git " + strings.Join(args, " ")

	return l.traced(ctx, KindGitDiff, label, func(ctx context.Context) (Document, error) {
		result, err := l.git.Execute(ctx, process.Command{Args: args})
		if err != nil {
			appErr := apperrors.FetchFailed(label, err)
			var exitErr *process.ExitError
			if errors.As(err, &exitErr) {
				appErr = appErr.WithDetail("exit_code", exitErr.Code).WithDetail("stderr", exitErr.Stderr)
			}
			return Document{}, appErr
		}
		return Document{Kind: KindGitDiff, Source: label, Text: result.Output()}, nil
	})
}

// traced runs load inside a source span and rejects blank content.
func (l *Loader) traced(ctx context.Context, kind Kind, ref string, load func(context.Context) (Document, error)) (Document, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanSourceLoad)
	defer span.End()
	observability.SetSpanAttribute(ctx, "source.kind", string(kind))
	observability.SetSpanAttribute(ctx, "source.ref", ref)

	start := time.Now()
	doc, err := load(ctx)
	if err == nil && strings.TrimSpace(doc.Text) == "" {
		err = apperrors.EmptyContent(doc.Source)
	}
	if err != nil {
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, string(apperrors.CodeOf(err)))
		observability.SetSpanError(ctx, err)
		l.log.WithContext(ctx).Debug("input acquisition failed", logger.MergeWithError(logger.Fields(
			logger.FieldSource, ref,
			logger.FieldCode, string(apperrors.CodeOf(err)),
		), err))
		return Document{}, err
	}

	l.log.WithContext(ctx).Debug("input loaded", logger.Fields(
		logger.FieldSource, doc.Source,
		logger.FieldBytes, len(doc.Text),
		"truncated", doc.Truncated,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return doc, nil
}

func isURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
