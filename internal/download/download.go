// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches the PDF of each row of a types.Table into a
// destination directory and returns a new table carrying the local paths.
// A failed row is recorded and skipped; it never aborts the run.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-table/internal/httputil"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

var (
	// ErrDestNotFound is returned before any download when the destination
	// does not exist. It also matches fs.ErrNotExist.
	ErrDestNotFound = fmt.Errorf("destination directory does not exist: %w", fs.ErrNotExist)

	// ErrNoPDFLink marks a row without a pdf_link value.
	ErrNoPDFLink = errors.New("record has no pdf link")
)

// Options controls one download run.
type Options struct {
	// DestDir is prepended verbatim to each filename; include the trailing
	// separator.
	DestDir string

	// MaxPDFs limits the run to the first N rows. Zero or negative means all.
	MaxPDFs int

	// Workers > 1 downloads rows concurrently. The path column keeps row
	// order either way.
	Workers int
}

// OptionsFromConfig converts download settings into Options.
func OptionsFromConfig(cfg types.DownloadConfig) Options {
	return Options{DestDir: cfg.DestDir, MaxPDFs: cfg.MaxPDFs, Workers: cfg.Workers}
}

// Report summarizes a download run.
type Report struct {
	// Processed is the number of rows attempted.
	Processed int

	// Downloaded is the number of rows whose PDF was saved.
	Downloaded int

	// Failed lists the zero-based indices of failed rows, ascending.
	Failed []int

	// Paths holds one entry per processed row: the saved path, or nil.
	Paths []*string
}

// HasFailures reports whether any row failed.
func (r Report) HasFailures() bool {
	return len(r.Failed) > 0
}

// Downloader retrieves PDFs over HTTP.
type Downloader struct {
	Client    *http.Client
	UserAgent string
	Logger    *zap.Logger

	// Progress receives one status line per processed row. Nil discards.
	Progress io.Writer
}

// New builds a Downloader from cfg. A nil client gets cfg.Timeout; a nil
// logger discards log output.
func New(client *http.Client, cfg types.DownloadConfig, logger *zap.Logger, progress io.Writer) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Downloader{
		Client:    client,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
		Progress:  progress,
	}
}

// Download saves the PDFs of the first opts.MaxPDFs rows of table and
// returns a copy of table with a path_to_pdf column. The input table is not
// modified. The only errors returned are a missing destination (before any
// row is attempted) and context cancellation.
func (d *Downloader) Download(ctx context.Context, table types.Table, opts Options) (types.Table, Report, error) {
	if _, err := os.Stat(opts.DestDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Table{}, Report{}, fmt.Errorf("%w: %s", ErrDestNotFound, opts.DestDir)
		}
		return types.Table{}, Report{}, fmt.Errorf("checking destination %s: %w", opts.DestDir, err)
	}

	n := table.Len()
	if opts.MaxPDFs > 0 && opts.MaxPDFs < n {
		n = opts.MaxPDFs
	}
	rows := table.Records[:n]

	var (
		paths []*string
		err   error
	)
	if opts.Workers > 1 {
		paths, err = d.runParallel(ctx, rows, opts.DestDir, opts.Workers)
	} else {
		paths, err = d.runSequential(ctx, rows, opts.DestDir)
	}
	if err != nil {
		return types.Table{}, Report{}, err
	}

	report := Report{Processed: n, Paths: paths}
	for i, p := range paths {
		if p == nil {
			report.Failed = append(report.Failed, i)
		} else {
			report.Downloaded++
		}
	}
	d.logger().Info("download finished",
		zap.String("dest", opts.DestDir),
		zap.Int("processed", report.Processed),
		zap.Int("downloaded", report.Downloaded),
		zap.Ints("failed", report.Failed),
	)
	return table.WithColumn(types.ColPathToPDF, paths), report, nil
}

func (d *Downloader) runSequential(ctx context.Context, rows []types.Record, dir string) ([]*string, error) {
	paths := make([]*string, len(rows))
	var failed []int
	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := d.downloadRow(ctx, i, r, dir)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failed = append(failed, i)
		} else {
			paths[i] = &path
		}
		d.reportProgress(i+1, len(rows), dir, failed)
	}
	return paths, nil
}

// runParallel downloads rows with a bounded pool of workers. Each worker
// writes only its own row's slot, so paths keeps row order.
func (d *Downloader) runParallel(ctx context.Context, rows []types.Record, dir string, workers int) ([]*string, error) {
	paths := make([]*string, len(rows))
	jobs := make(chan int)

	var (
		mu     sync.Mutex
		done   int
		failed []int
		wg     sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				path, err := d.downloadRow(ctx, i, rows[i], dir)
				mu.Lock()
				done++
				if err != nil {
					failed = append(failed, i)
					sort.Ints(failed)
				} else {
					paths[i] = &path
				}
				d.reportProgress(done, len(rows), dir, failed)
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range rows {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// downloadRow saves one row's PDF and logs the outcome.
func (d *Downloader) downloadRow(ctx context.Context, i int, r types.Record, dir string) (string, error) {
	path, err := saveRow(ctx, d.Client, r, dir, d.UserAgent)
	if err != nil {
		d.logger().Warn("download failed", zap.Int("row", i), zap.String("url", r.PDFLink), zap.Error(err))
		return "", err
	}
	d.logger().Debug("downloaded", zap.Int("row", i), zap.String("path", path))
	return path, nil
}

// saveRow derives the row's filename and downloads its PDF to dir+filename.
func saveRow(ctx context.Context, client *http.Client, r types.Record, dir, userAgent string) (string, error) {
	if !r.Has(types.ColPDFLink) || r.PDFLink == "" {
		return "", ErrNoPDFLink
	}
	name, err := Filename(r)
	if err != nil {
		return "", err
	}
	path := dir + name
	if err := downloadFile(ctx, client, r.PDFLink, path, userAgent); err != nil {
		return "", err
	}
	return path, nil
}

func (d *Downloader) reportProgress(done, total int, dir string, failed []int) {
	if d.Progress == nil {
		return
	}
	status := "No errors."
	if len(failed) > 0 {
		status = fmt.Sprintf("Errors at %v.", failed)
	}
	fmt.Fprintf(d.Progress, "%d/%d papers downloaded at %s. %s\n", done, total, dir, status)
}

func (d *Downloader) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// downloadFile fetches url to destPath through a temporary file in the
// same directory, renamed into place on success.
func downloadFile(ctx context.Context, client *http.Client, url, destPath, userAgent string) error {
	resp, err := httputil.Get(ctx, client, url, userAgent, "application/pdf")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
