// Package retrieval runs a fetch: for each taxpayer it lists the messages of
// the day window, downloads each one into its target directory and optionally
// renders the invoices as PDF.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/console"
	"github.com/dmitrijs2005/efactura/internal/efactura"
	"github.com/dmitrijs2005/efactura/internal/extract"
	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/dmitrijs2005/efactura/internal/models"
	"github.com/google/uuid"
)

type Lister interface {
	List(ctx context.Context, cif string, days int, tok *models.Token) ([]models.RawMessage, *models.Token, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, id, dir string, tok *models.Token) (efactura.Result, *models.Token, error)
}

type Converter interface {
	Convert(ctx context.Context, xmlPath string, tok *models.Token) (string, *models.Token, error)
}

// Ledger enforces the download quota and keeps run history.
type Ledger interface {
	Allow(ctx context.Context, messageID string) (bool, error)
	RecordAttempt(ctx context.Context, cif, messageID, outcome string) error
	FinishRun(ctx context.Context, run *models.SyncRun) error
}

// Mirror copies a materialized directory to remote storage.
type Mirror interface {
	MirrorDir(ctx context.Context, dir string) (int, error)
}

// Deps are the collaborators of a Service. Converter is required only when
// Options.PDF is set; Ledger and Mirror are optional.
type Deps struct {
	Lister    Lister
	Fetcher   Fetcher
	Converter Converter
	Ledger    Ledger
	Mirror    Mirror
	Console   *console.Console
	Log       logging.Logger
}

type Options struct {
	Root string
	Days int
	PDF  bool
}

type Service struct {
	Deps
	opts Options
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(deps Deps, opts Options, o ...Option) *Service {
	s := &Service{Deps: deps, opts: opts, now: time.Now}
	for _, fn := range o {
		fn(s)
	}
	return s
}

// Run processes the taxpayers in order and returns the token in use at the
// end, which may have been refreshed along the way. A taxpayer whose listing
// fails is recorded and skipped, and its error is returned once the remaining
// taxpayers are done. A rejected refresh or a cancelled context aborts the run.
// Per-message failures are counted and never surface as errors.
func (s *Service) Run(ctx context.Context, cifs []string, tok *models.Token) (*models.Token, error) {
	var errs []error
	for _, cif := range cifs {
		var err error
		tok, err = s.syncTaxpayer(ctx, cif, tok)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if fatal(ctx, err) {
			break
		}
		s.Console.Errorf("%s: %v", cif, err)
	}
	return tok, errors.Join(errs...)
}

type tally struct {
	run  *models.SyncRun
	pdfs int
}

func (s *Service) syncTaxpayer(ctx context.Context, cif string, tok *models.Token) (*models.Token, error) {
	t := &tally{run: &models.SyncRun{
		ID:        uuid.NewString(),
		CIF:       cif,
		Days:      s.opts.Days,
		StartedAt: s.now(),
	}}
	log := s.Log.With("run_id", t.run.ID, "cif", cif)

	s.Console.Infof("%s: listing messages for the last %d days", cif, s.opts.Days)
	msgs, tok, err := s.Lister.List(ctx, cif, s.opts.Days, tok)
	if err != nil {
		s.finish(ctx, log, t, err)
		return tok, fmt.Errorf("list %s: %w", cif, err)
	}
	log.Info(ctx, "messages listed", "count", len(msgs))

	for _, msg := range msgs {
		if msg.IsEmpty() {
			continue
		}
		t.run.Listed++

		tok, err = s.processMessage(ctx, log, cif, msg, tok, t)
		if err != nil {
			s.finish(ctx, log, t, err)
			return tok, err
		}
	}

	s.finish(ctx, log, t, nil)
	return tok, nil
}

// processMessage returns an error only when the whole run must stop.
func (s *Service) processMessage(ctx context.Context, log logging.Logger, cif string, msg models.RawMessage, tok *models.Token, t *tally) (*models.Token, error) {
	id, _ := extract.ID(msg)
	dir := Target(s.opts.Root, cif, msg, id, s.now())

	if id != "" && s.Ledger != nil {
		ok, err := s.Ledger.Allow(ctx, id)
		if err != nil {
			log.Warn(ctx, "quota check failed", "id", id, "error", err)
		} else if !ok {
			log.Warn(ctx, "message skipped", "id", id, "error", common.ErrQuotaExceeded)
			s.Console.Warnf("%s: %s skipped, daily download quota reached", cif, id)
			t.run.Skipped++
			return tok, nil
		}
	}

	res, tok, err := s.Fetcher.Fetch(ctx, id, dir, tok)
	s.recordAttempt(ctx, log, cif, id, res, err)
	if err != nil {
		if fatal(ctx, err) {
			return tok, err
		}
		log.Error(ctx, "download failed", "id", id, "error", err)
		s.Console.Errorf("%s: %s download failed: %v", cif, id, err)
		t.run.Failed++
		return tok, nil
	}

	switch res {
	case efactura.ResultSaved, efactura.ResultBroken:
		t.run.Saved++
		s.Console.Okf("%s: saved %s", cif, dir)
	case efactura.ResultNoID, efactura.ResultNotRetrievable:
		t.run.Skipped++
		s.Console.Warnf("%s: %s skipped (%s)", cif, displayID(id), res)
		return tok, nil
	case efactura.ResultPresent:
		t.run.Skipped++
	}

	if s.opts.PDF && s.Converter != nil {
		tok, err = s.convertDir(ctx, log, cif, dir, tok, t)
		if err != nil {
			return tok, err
		}
	}
	if s.Mirror != nil {
		n, err := s.Mirror.MirrorDir(ctx, dir)
		if err != nil {
			log.Warn(ctx, "mirror failed", "dir", dir, "error", err)
		} else if n > 0 {
			log.Debug(ctx, "mirrored files", "dir", dir, "count", n)
		}
	}
	return tok, nil
}

// recordAttempt logs a download call in the ledger; skips that made no
// request are not recorded.
func (s *Service) recordAttempt(ctx context.Context, log logging.Logger, cif, id string, res efactura.Result, err error) {
	if s.Ledger == nil || id == "" {
		return
	}
	outcome := res.String()
	if err != nil {
		outcome = "error"
	} else if res == efactura.ResultPresent || res == efactura.ResultNoID {
		return
	}
	if err := s.Ledger.RecordAttempt(ctx, cif, id, outcome); err != nil {
		log.Warn(ctx, "record download attempt", "id", id, "error", err)
	}
}

// convertDir renders every XML in dir that has no PDF yet.
func (s *Service) convertDir(ctx context.Context, log logging.Logger, cif, dir string, tok *models.Token, t *tally) (*models.Token, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tok, nil
		}
		log.Warn(ctx, "read target dir", "dir", dir, "error", err)
		return tok, nil
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		xmlPath := filepath.Join(dir, e.Name())
		if _, err := os.Stat(efactura.PDFPath(xmlPath)); err == nil {
			continue
		}

		var pdf string
		pdf, tok, err = s.Converter.Convert(ctx, xmlPath, tok)
		if err != nil {
			if fatal(ctx, err) {
				return tok, err
			}
			log.Error(ctx, "pdf conversion failed", "xml", xmlPath, "error", err)
			s.Console.Errorf("%s: pdf for %s failed: %v", cif, e.Name(), err)
			continue
		}
		t.pdfs++
		s.Console.Okf("%s: pdf %s", cif, pdf)
	}
	return tok, nil
}

func (s *Service) finish(ctx context.Context, log logging.Logger, t *tally, runErr error) {
	ctx = context.WithoutCancel(ctx)
	t.run.FinishedAt = s.now()
	if runErr != nil {
		t.run.Error = runErr.Error()
	}
	if s.Ledger != nil {
		if err := s.Ledger.FinishRun(ctx, t.run); err != nil {
			log.Warn(ctx, "record sync run", "error", err)
		}
	}

	log.Info(ctx, "taxpayer done",
		"listed", t.run.Listed, "saved", t.run.Saved, "skipped", t.run.Skipped,
		"failed", t.run.Failed, "pdfs", t.pdfs)
	s.Console.Summary(console.Summary{
		CIF:     t.run.CIF,
		Listed:  t.run.Listed,
		Saved:   t.run.Saved,
		Skipped: t.run.Skipped,
		Failed:  t.run.Failed,
		PDFs:    t.pdfs,
	})
}

// fatal reports errors that stop the run instead of the current item.
func fatal(ctx context.Context, err error) bool {
	return errors.Is(err, common.ErrUnauthorized) || ctx.Err() != nil
}

func displayID(id string) string {
	if id == "" {
		return common.UnknownIDPlaceholder
	}
	return id
}
