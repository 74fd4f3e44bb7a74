package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"matinee/internal/config"
	"matinee/internal/logging"
	"matinee/internal/services"
	"matinee/internal/services/ytdlp"
)

// Status is the terminal state of one job.
type Status string

const (
	// StatusOK means bytes landed on disk this run.
	StatusOK Status = "OK"
	// StatusSkipped means the destination already held the asset.
	StatusSkipped Status = "SKIPPED"
	// StatusFailed means the job exhausted its options without a file.
	StatusFailed Status = "FAILED"
)

// Outcome records the result of one job. Every job submitted to Run gets
// exactly one outcome, in submission order.
type Outcome struct {
	Job       Job
	Status    Status
	Strategy  Strategy
	LocalPath string
	Detail    string
}

// Fetcher downloads assets through a bounded worker pool. One job failing
// never aborts its siblings; the only run-level failure is an unusable
// output root.
type Fetcher struct {
	cfg          *config.Config
	logger       *slog.Logger
	stream       ytdlp.Client
	direct       *directDownloader
	showProgress bool

	// locks serializes jobs that resolve to the same destination stem, so
	// duplicate sheet entries cannot both write the same file.
	locks sync.Map
}

// Option adjusts Fetcher construction.
type Option func(*Fetcher)

// WithStreamClient substitutes the stream extractor, primarily for tests.
func WithStreamClient(client ytdlp.Client) Option {
	return func(f *Fetcher) { f.stream = client }
}

// WithHTTPClient substitutes the HTTP client used for direct downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.direct.client = client }
}

// WithProgress toggles per-download progress bars on the terminal.
func WithProgress(show bool) Option {
	return func(f *Fetcher) { f.showProgress = show }
}

// New builds a Fetcher from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	f := &Fetcher{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "fetch"),
		stream: ytdlp.NewCLI(ytdlp.WithBinary(cfg.YtdlpBinary())),
		direct: &directDownloader{
			client: &http.Client{
				Timeout: time.Duration(cfg.Fetch.RequestTimeout) * time.Second,
			},
			attempts:   cfg.Fetch.RetryAttempts,
			retryDelay: time.Duration(cfg.Fetch.RetryDelaySeconds * float64(time.Second)),
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.direct.showProgress = f.showProgress
	return f
}

// Run executes the jobs through the worker pool and returns one outcome per
// job. The error return is reserved for run-level failures; per-job problems
// live in the outcomes.
func (f *Fetcher) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	if err := f.preflightOutputRoot(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes, nil
	}

	workers := f.cfg.Fetch.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	f.logger.Info("starting downloads",
		logging.Int("jobs", len(jobs)),
		logging.Int("workers", workers))

	jobCh := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				outcomes[idx] = f.runJob(ctx, jobs[idx])
			}
		}()
	}

	dispatched := make([]bool, len(jobs))
	for idx := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case jobCh <- idx:
			dispatched[idx] = true
		}
	}
	close(jobCh)
	wg.Wait()

	for idx := range jobs {
		if !dispatched[idx] {
			outcomes[idx] = Outcome{
				Job:      jobs[idx],
				Status:   StatusFailed,
				Strategy: Classify(jobs[idx].SourceURL).Strategy,
				Detail:   "canceled before dispatch",
			}
		}
	}
	return outcomes, nil
}

// preflightOutputRoot verifies the output root before any job is dispatched.
// A bad root is the one condition that fails the whole run.
func (f *Fetcher) preflightOutputRoot() error {
	root := strings.TrimSpace(f.cfg.Paths.AssetsDir)
	if root == "" {
		return services.Wrap(services.ErrConfiguration, "fetch", "preflight", "assets_dir is not configured", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "preflight", fmt.Sprintf("create output root %s", root), err)
	}
	if err := unix.Access(root, unix.W_OK); err != nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "preflight", fmt.Sprintf("output root %s is not writable", root), err)
	}
	return nil
}

func (f *Fetcher) runJob(ctx context.Context, job Job) Outcome {
	cls := Classify(job.SourceURL)
	out := Outcome{Job: job, Strategy: cls.Strategy}
	log := f.logger.With(
		logging.Int(logging.FieldRow, job.RowIndex),
		logging.String(logging.FieldTitle, job.Title),
		logging.String("kind", string(job.Kind)),
		logging.String(logging.FieldURL, job.SourceURL))

	stem := destStem(f.cfg.Paths.AssetsDir, job.Title, job.Kind)
	unlock := f.lockStem(stem)
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(stem), 0o755); err != nil {
		out.Status = StatusFailed
		out.Detail = "create destination directory: " + err.Error()
		log.Error("download failed", logging.Error(err))
		return out
	}

	pl, err := planJob(stem, f.cfg.Fetch.MinCompleteMiB*1024*1024)
	if err != nil {
		out.Status = StatusFailed
		out.Detail = "inspect destination: " + err.Error()
		log.Error("download failed", logging.Error(err))
		return out
	}
	switch pl.action {
	case actionSkipStub:
		out.Status = StatusSkipped
		out.LocalPath = pl.path
		out.Detail = "stub marker present; asset already organized"
		log.Info("skipping download", logging.String("reason", "stub"))
		return out
	case actionSkipComplete:
		out.Status = StatusSkipped
		out.LocalPath = pl.path
		out.Detail = fmt.Sprintf("already downloaded (%s)", humanize.IBytes(uint64(pl.offset)))
		log.Info("skipping download", logging.String("reason", "complete"),
			logging.String("path", pl.path))
		return out
	case actionResume:
		log.Info("resuming partial download",
			logging.String("path", pl.path),
			logging.String("offset", humanize.IBytes(uint64(pl.offset))))
	default:
		log.Info("downloading", logging.String("strategy", string(cls.Strategy)))
	}

	path, err := f.transfer(ctx, job, cls, stem, pl)
	if err != nil {
		out.Status = StatusFailed
		out.Detail = err.Error()
		log.Error("download failed", logging.Error(err))
		return out
	}

	out.Status = StatusOK
	out.LocalPath = path
	if info, statErr := os.Stat(path); statErr == nil {
		out.Detail = fmt.Sprintf("downloaded %s", humanize.IBytes(uint64(info.Size())))
	}
	log.Info("download complete", logging.String("path", path))
	return out
}

// transfer routes one job to its strategy implementation.
func (f *Fetcher) transfer(ctx context.Context, job Job, cls Classification, stem string, pl plan) (string, error) {
	switch cls.Strategy {
	case StrategyStream:
		return f.stream.Download(ctx, ytdlp.Request{
			URL:                job.SourceURL,
			OutputStem:         stem,
			Password:           job.Password,
			MaxHeight:          f.cfg.Fetch.MaxHeight,
			Retries:            f.cfg.Fetch.StreamRetries,
			CookieFile:         f.cfg.Fetch.CookieFile,
			CookiesFromBrowser: f.cfg.Fetch.CookiesFromBrowser,
		})
	case StrategyDrive:
		return f.direct.download(ctx, directRequest{
			url:         cls.FetchURL,
			fallbackURL: job.SourceURL,
			stem:        stem,
			pl:          pl,
			sniffHTML:   true,
		})
	default:
		return f.direct.download(ctx, directRequest{
			url:  cls.FetchURL,
			stem: stem,
			pl:   pl,
		})
	}
}

// lockStem takes the per-destination mutex and returns its release func.
// Holding it across plan and transfer means a duplicated link skips cleanly
// instead of clobbering the first download.
func (f *Fetcher) lockStem(stem string) func() {
	actual, _ := f.locks.LoadOrStore(stem, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
