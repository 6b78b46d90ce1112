// Package bootstrap assembles the intake stack from configuration. Both binaries use it.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/async"
	"github.com/joseph-ayodele/contracts-tracker/internal/catalog"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/export"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/intake"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger/sqlstore"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger/xlsxstore"
	"github.com/joseph-ayodele/contracts-tracker/internal/ocr"
	"github.com/joseph-ayodele/contracts-tracker/internal/session"
)

// NewLogger builds a text logger that outputs messages with variables but no time.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// OpenLedger opens the configured backend. The returned func releases it.
func OpenLedger(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (ledger.Store, func(), error) {
	switch cfg.Backend {
	case "xlsx":
		s, err := xlsxstore.Open(cfg.Path, cfg.Sheet, constants.LedgerColumns, logger)
		if err != nil {
			return nil, nil, common.NewAppError(common.CodeStore, fmt.Sprintf("open ledger workbook: %v", err), common.ErrStore)
		}
		return s, func() {}, nil

	case "sqlite":
		drv, err := sqlstore.OpenSQLite(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		s, err := sqlstore.New(ctx, drv, cfg.Table, constants.LedgerColumns, logger)
		if err != nil {
			_ = drv.Close()
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		drv, pool, err := sqlstore.OpenPostgres(ctx, sqlstore.Config{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			DialTimeout:     cfg.DialTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		closeAll := func() {
			_ = drv.Close()
			pool.Close()
		}
		if err := sqlstore.HealthCheck(ctx, drv, cfg.DialTimeout, logger); err != nil {
			closeAll()
			return nil, nil, err
		}
		s, err := sqlstore.New(ctx, drv, cfg.Table, constants.LedgerColumns, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		return s, closeAll, nil

	default:
		return nil, nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown ledger backend %q", cfg.Backend), common.ErrInvalidInput)
	}
}

// App is the wired intake stack.
type App struct {
	Config    *common.Config
	Catalog   *catalog.Catalog
	Reader    *ocr.Reader
	Extractor *extract.PageExtractor
	Ledger    *ledger.Service
	Sessions  *session.Manager
	Intake    *intake.Service
	// Queue is non-nil when ledger writes are serialised.
	Queue *async.WriteQueue

	closeLedger func()
}

// New validates cfg and wires every component.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, err
	}
	fields, err := cat.Extractor(logger)
	if err != nil {
		return nil, err
	}
	reader := ocr.NewReader(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
	}, logger)

	store, closeLedger, err := OpenLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		return nil, err
	}
	ledgerSvc := ledger.NewService(store, logger)

	app := &App{
		Config:      cfg,
		Catalog:     cat,
		Reader:      reader,
		Extractor:   extract.NewPageExtractor(reader, fields, cat.ExtractPage, logger),
		Ledger:      ledgerSvc,
		Sessions:    session.NewManager(cfg.Server.SessionTTL, logger),
		closeLedger: closeLedger,
	}

	opts := []intake.Option{intake.WithExporter(export.NewService(ledgerSvc, logger))}
	if cfg.Ledger.SerialWrites {
		app.Queue = async.NewWriteQueue(logger,
			async.WithWorkers(1),
			async.WithQueueSize(128),
			async.WithTaskTimeout(cfg.Ledger.WriteTimeout),
		)
		opts = append(opts, intake.WithWriteExecutor(app.Queue))
	}
	app.Intake = intake.NewService(app.Sessions, cat, app.Extractor, ledgerSvc, logger, opts...)

	logger.Info("app.ready",
		"ledger_backend", cfg.Ledger.Backend,
		"serial_writes", cfg.Ledger.SerialWrites,
		"extract_page", cat.ExtractPage,
	)
	return app, nil
}

// Close drains the write queue and releases the ledger.
func (a *App) Close(ctx context.Context) {
	if a.Queue != nil {
		a.Queue.Shutdown(ctx)
	}
	if a.closeLedger != nil {
		a.closeLedger()
	}
}
