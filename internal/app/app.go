// Package app wires the media core together: config, logging, transfer
// backends, coordinator, decryption pipeline and export manager, plus the
// command-line fetch flow.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/chatmedia/internal/attachment"
	"github.com/dmitrijs2005/chatmedia/internal/cachex"
	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/config"
	"github.com/dmitrijs2005/chatmedia/internal/coordinator"
	"github.com/dmitrijs2005/chatmedia/internal/filex"
	"github.com/dmitrijs2005/chatmedia/internal/logging"
	"github.com/dmitrijs2005/chatmedia/internal/media"
	"github.com/dmitrijs2005/chatmedia/internal/resolver"
	"github.com/dmitrijs2005/chatmedia/internal/transfer"
)

type App struct {
	config   *config.Config
	service  *media.Service
	log      logging.Logger
	Registry *prometheus.Registry
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := filex.EnsureDir(cfg.CacheDir); err != nil {
		return nil, err
	}
	if err := filex.EnsureDir(cfg.TempDir); err != nil {
		return nil, err
	}

	store := cachex.NewDiskStore()
	thumbs, err := cachex.NewMemoryCache(cfg.ThumbnailCacheEntries)
	if err != nil {
		return nil, err
	}

	httpSvc := transfer.NewHTTPService(&http.Client{Timeout: cfg.TransferTimeout}, log)
	s3Svc := transfer.NewS3Service(transfer.S3Config{
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		RootUser:     cfg.S3RootUser,
		RootPassword: cfg.S3RootPassword,
	}, log)
	router := transfer.NewRouter(httpSvc, s3Svc)

	registry := prometheus.NewRegistry()
	coord := coordinator.New(router, store, log, coordinator.NewMetrics(registry))

	pipeline := media.NewPipeline(store, thumbs, log)
	exports := media.NewExportManager(pipeline, cfg.TempDir, log)
	res := resolver.New(resolver.NewHomeserverTranslator(cfg.HomeserverURL),
		cfg.CacheDir, cfg.ThumbnailWidth, cfg.ThumbnailHeight)

	svc := media.NewService(res, coord, store, pipeline, exports, log,
		cfg.ThumbnailWidth, cfg.ThumbnailHeight)

	return &App{config: cfg, service: svc, log: log, Registry: registry}, nil
}

// eventFile is the on-disk JSON shape of a chat event to fetch.
type eventFile struct {
	ID        string         `json:"id"`
	RoomID    string         `json:"room_id"`
	Type      string         `json:"type"`
	SentState string         `json:"sent_state"`
	Content   map[string]any `json:"content"`
}

// configFlags are the flags owned by the config package; EventFiles skips
// them and their values when collecting positional arguments.
var configFlags = map[string]bool{
	"-c": true, "-config": true,
	"-hs": true, "-cache": true, "-temp": true, "-t": true,
}

// EventFiles returns the positional arguments: paths of event JSON files.
func EventFiles(args []string) []string {
	var files []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if configFlags[arg] && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		files = append(files, arg)
	}
	return files
}

// Run fetches every event file given on the command line, materializing
// content and thumbnails concurrently, then tears the service down.
func (a *App) Run(ctx context.Context) {
	files := EventFiles(os.Args[1:])
	if len(files) == 0 {
		a.log.Info(ctx, "no event files given, nothing to fetch")
		return
	}

	defer a.service.Teardown()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, f := range files {
		f := f
		g.Go(func() error { return a.fetchOne(ctx, f) })
	}
	if err := g.Wait(); err != nil {
		a.log.Error(ctx, "fetch failed", "error", err)
	}
}

func (a *App) fetchOne(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var ev eventFile
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	att, err := a.service.NewAttachment(attachment.Event{
		ID:        ev.ID,
		RoomID:    ev.RoomID,
		Type:      ev.Type,
		SentState: ev.SentState,
		Content:   ev.Content,
	})
	if err != nil {
		if errors.Is(err, common.ErrUnsupportedAttachment) {
			a.log.Info(ctx, "nothing to render", "event", ev.ID)
			return nil
		}
		return err
	}

	exportCh := make(chan error, 1)
	att.Export(ctx,
		func(p string) {
			a.log.Info(ctx, "content exported", "event", ev.ID, "path", p,
				"cache", att.Descriptor.CacheFilePath)
			exportCh <- nil
		},
		func(err error) { exportCh <- err })

	thumbCh := make(chan error, 1)
	att.Thumbnail(ctx,
		func(b []byte) {
			a.log.Info(ctx, "thumbnail ready", "event", ev.ID, "bytes", len(b))
			thumbCh <- nil
		},
		func(err error) { thumbCh <- err })

	var exportErr, thumbErr error
	for i := 0; i < 2; i++ {
		select {
		case exportErr = <-exportCh:
			exportCh = nil
		case thumbErr = <-thumbCh:
			thumbCh = nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// a missing thumbnail is expected for plain files and audio
	if thumbErr != nil && !errors.Is(thumbErr, common.ErrorNotFound) {
		a.log.Warn(ctx, "thumbnail unavailable", "event", ev.ID, "error", thumbErr)
	}
	return exportErr
}
