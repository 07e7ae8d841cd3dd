package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/webdriver-transport/internal/config"
	"github.com/samvad-hq/webdriver-transport/internal/domain"
	"github.com/samvad-hq/webdriver-transport/internal/logger"
	"github.com/samvad-hq/webdriver-transport/internal/storage"
	"github.com/samvad-hq/webdriver-transport/pkg/httpclient"
	"github.com/samvad-hq/webdriver-transport/pkg/publishers"
	"go.uber.org/zap"
)

// Request describes one call routed through the Runner.
type Request struct {
	Method  string
	URL     string
	Params  any
	Options []httpclient.Option
}

// Runner executes requests and journals and publishes every exchange. Journal
// and publish failures are logged and never change the outcome of Execute.
type Runner struct {
	source string
	exec   httpclient.Client
	store  storage.Store
	fanout *publishers.Fanout
	log    logger.Logger
}

// NewRunner builds a runner from config: executor defaults, journal backend
// and optional sinks file.
func NewRunner(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(sugar)

	store, err := storage.NewStore(cfg.JournalType, cfg.JournalPath, storage.Options{
		EntryTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	log.DebugObj("journal initialized", "journal_config", map[string]any{
		"type":                     cfg.JournalType,
		"path":                     cfg.JournalPath,
		"ttl_seconds":              int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.JournalCleanupInterval.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg.SinksFile, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var restyLog *zap.SugaredLogger
	if sugar != nil {
		restyLog = sugar.Named("resty")
	}
	exec := httpclient.NewExecutor(cfg.HTTPOptions(), restyLog)
	return newRunner(cfg.AppName, exec, store, fanout, log), nil
}

func newRunner(source string, exec httpclient.Client, store storage.Store, fanout *publishers.Fanout, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NopLogger{}
	}
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	if fanout == nil {
		fanout = publishers.NewFanout(nil)
	}
	return &Runner{source: source, exec: exec, store: store, fanout: fanout, log: log}
}

func buildFanout(ctx context.Context, sinksFile string, log logger.Logger) (*publishers.Fanout, error) {
	if sinksFile == "" {
		return publishers.NewFanout(nil), nil
	}
	reg, err := publishers.LoadRegistry(sinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(summaries),
		"sinks": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Execute runs req and returns the executor's result unchanged.
func (r *Runner) Execute(ctx context.Context, req Request) (*httpclient.Result, error) {
	if r == nil || r.exec == nil {
		return nil, fmt.Errorf("runner is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	res, err := r.exec.Execute(ctx, req.Method, req.URL, req.Params, req.Options...)
	ex := newExchange(req, res, err, start)

	if err != nil {
		r.log.ErrorObj("request failed", "exchange", ex)
	} else {
		r.log.InfoObj("request executed", "exchange", ex)
	}

	if rerr := r.store.Record(ex); rerr != nil {
		r.log.WarnObj("journal record failed", "error", rerr.Error())
	}
	if r.fanout.Size() > 0 {
		if n, perr := r.fanout.Publish(ctx, publishers.NewEvent(r.source, ex)); perr != nil {
			r.log.WarnObj("exchange publish failed", "publish_result", map[string]any{
				"delivered": n,
				"error":     perr.Error(),
			})
		}
	}
	return res, err
}

// History returns the most recent journal entries, newest first.
func (r *Runner) History(limit int) ([]domain.Exchange, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	return r.store.Recent(limit)
}

// Close releases the journal and any sink connections.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.store.Close(), r.fanout.Close())
}

// newExchange builds the journal record. It only carries the credential-free
// URL and, for transport errors, the underlying cause without the params.
func newExchange(req Request, res *httpclient.Result, err error, start time.Time) domain.Exchange {
	ex := domain.Exchange{
		ID:         uuid.NewString(),
		Method:     strings.ToUpper(strings.TrimSpace(req.Method)),
		URL:        httpclient.StripCredentials(req.URL),
		DurationMs: time.Since(start).Milliseconds(),
		At:         start.UTC(),
	}
	if res != nil {
		ex.Method = res.Info.Method
		if res.Info.URL != "" {
			ex.URL = res.Info.URL
		}
		ex.StatusCode = res.StatusCode()
		ex.BodyBytes = len(res.Body)
		ex.EmptyReply = res.Info.EmptyReply
		ex.Summary = httpclient.Summary(res)
	}
	if err != nil {
		var te *httpclient.TransportError
		if errors.As(err, &te) && te.Err != nil {
			ex.Error = te.Err.Error()
		} else {
			ex.Error = err.Error()
		}
	}
	return ex
}
