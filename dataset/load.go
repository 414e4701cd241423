package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/spektr-org/gssdash/engine"
	"github.com/spektr-org/gssdash/gss"
)

// ============================================================================
// LOADER — one-shot fetch of the survey file into an immutable Dataset
// ============================================================================
// The source is read exactly once per Load. A configured cache path holds
// the raw bytes of a previous successful fetch and is preferred over the
// network.
// ============================================================================

// DefaultSource is the published 2018 GSS extract.
const DefaultSource = "https://github.com/jkropko/DS-6001/raw/master/localdata/gss2018.csv"

// Supported source encodings.
const (
	EncodingCP1252 = "cp1252"
	EncodingUTF8   = "utf-8"
)

// ErrUnknownEncoding is returned for an encoding other than cp1252 or utf-8.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Option configures Load via functional options pattern.
type Option func(*options)

type options struct {
	client    *http.Client
	timeout   time.Duration
	encoding  string
	cachePath string
	logger    *zap.Logger
	now       func() time.Time
}

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithTimeout bounds the whole fetch. Zero leaves only the context deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithEncoding selects the byte encoding of the source file.
func WithEncoding(enc string) Option {
	return func(o *options) { o.encoding = enc }
}

// WithCachePath keeps a copy of the fetched bytes at path and reads from it
// when it exists.
func WithCachePath(path string) Option {
	return func(o *options) { o.cachePath = path }
}

// WithLogger sets the loader's logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// ============================================================================
// DATASET
// ============================================================================

// Dataset is the cleaned survey table. It is never mutated after Load and is
// safe to share between goroutines.
type Dataset struct {
	respondents []gss.Respondent
	view        engine.RecordView
	regions     []string
	source      string
	loadedAt    time.Time
}

// New wraps already-parsed respondents.
func New(source string, respondents []gss.Respondent, loadedAt time.Time) *Dataset {
	seen := make(map[string]bool)
	var regions []string
	for _, r := range respondents {
		if r.Region != "" && !seen[r.Region] {
			seen[r.Region] = true
			regions = append(regions, r.Region)
		}
	}
	sort.Strings(regions)

	return &Dataset{
		respondents: respondents,
		view:        gss.View(respondents),
		regions:     regions,
		source:      source,
		loadedAt:    loadedAt,
	}
}

// Len returns the number of respondents.
func (d *Dataset) Len() int { return len(d.respondents) }

// Respondents returns the rows. Callers must not modify them.
func (d *Dataset) Respondents() []gss.Respondent { return d.respondents }

// View returns the rows as an engine.RecordView.
func (d *Dataset) View() engine.RecordView { return d.view }

// Regions returns the distinct non-null region codes, sorted.
func (d *Dataset) Regions() []string { return d.regions }

// Source returns where the data was read from.
func (d *Dataset) Source() string { return d.source }

// LoadedAt returns when the data was read.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// ============================================================================
// LOAD
// ============================================================================

// Load reads source (an http(s) URL or a file path), decodes and parses it.
func Load(ctx context.Context, source string, opts ...Option) (*Dataset, error) {
	o := &options{
		client:   http.DefaultClient,
		encoding: EncodingCP1252,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := o.now()
	raw, from, err := o.read(ctx, source)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	text, err := decode(raw, o.encoding)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	respondents, err := ParseCSV(text)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = source
		}
		return nil, err
	}

	o.logger.Info("dataset loaded",
		zap.String("source", source),
		zap.String("from", from),
		zap.String("size", humanize.Bytes(uint64(len(raw)))),
		zap.Int("rows", len(respondents)),
		zap.Duration("elapsed", o.now().Sub(start)),
	)
	return New(source, respondents, o.now()), nil
}

// read returns the raw bytes and where they came from ("cache", "http" or "file").
func (o *options) read(ctx context.Context, source string) ([]byte, string, error) {
	if o.cachePath != "" {
		if raw, err := os.ReadFile(o.cachePath); err == nil {
			return raw, "cache", nil
		} else if !errors.Is(err, os.ErrNotExist) {
			o.logger.Warn("cache unreadable, fetching", zap.String("path", o.cachePath), zap.Error(err))
		}
	}

	if !isURL(source) {
		raw, err := os.ReadFile(source)
		return raw, "file", err
	}

	raw, err := o.fetch(ctx, source)
	if err != nil {
		return nil, "", err
	}
	if o.cachePath != "" {
		if err := writeCache(o.cachePath, raw); err != nil {
			o.logger.Warn("cache write failed", zap.String("path", o.cachePath), zap.Error(err))
		}
	}
	return raw, "http", nil
}

func (o *options) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func writeCache(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func decode(raw []byte, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case EncodingCP1252, "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(bytes.NewReader(raw)), nil
	case EncodingUTF8, "utf8":
		return bytes.NewReader(raw), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
