package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"offbeat/internal/config"
	"offbeat/internal/domain"
	"offbeat/internal/download"
	"offbeat/internal/facade"
	"offbeat/internal/log"
	"offbeat/internal/remote"
	"offbeat/internal/search"
	"offbeat/internal/state"
	"offbeat/internal/store"
	"offbeat/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: offbeat <command> [args]

Commands:
  status                     show connectivity, pending writes, last sync
  sync                       push pending writes to the server
  discard                    drop all pending writes
  offline [on|off]           set or show the work-offline preference
  queue                      print the current queue
  playlists                  list playlists
  download <playlist-id>     download a playlist for offline playback
  search <query>             search the cached library
  usage                      show offline storage accounting`)
}

func run() error {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		return fmt.Errorf("no command given")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.Null()
	}
	slog.SetDefault(logger)

	st, err := store.New(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer st.Close()

	container := state.New()
	container.SetWorkOffline(config.WorkOffline(cfg.Cache.Dir))
	if err := container.Hydrate(st); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	client := remote.NewClient(cfg.Server.APIBase, cfg.Server.StreamBase, cfg.Server.Token, cfg.Server.DeviceID, logger)
	api := facade.New(client, st, container, cfg.Server.DeviceID, logger,
		facade.WithWorkOfflinePersister(func(v bool) error {
			return config.SetWorkOffline(cfg.Cache.Dir, v)
		}))
	sync := syncer.New(client, st, container, syncer.Mode(cfg.Sync.Mode), logger)
	dl := download.New(client, st, container, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch args[0] {
	case "status":
		return cmdStatus(container, sync)
	case "sync":
		return cmdSync(ctx, sync)
	case "discard":
		return sync.Discard()
	case "offline":
		return cmdOffline(api, container, args[1:])
	case "queue":
		return cmdQueue(ctx, api)
	case "playlists":
		return cmdPlaylists(ctx, api)
	case "download":
		return cmdDownload(ctx, dl, args[1:])
	case "search":
		return cmdSearch(st, logger, args[1:])
	case "usage":
		return cmdUsage(dl)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdStatus(container *state.Container, sync *syncer.Manager) error {
	status, err := sync.Status()
	if err != nil {
		return err
	}
	mode := "online"
	if container.ShouldUseOffline() {
		mode = "offline"
	}
	fmt.Printf("mode:           %s\n", mode)
	fmt.Printf("work offline:   %v\n", container.WorkOffline())
	fmt.Printf("pending writes: %d\n", status.PendingCount)
	if !status.LastSyncAt.IsZero() {
		fmt.Printf("last sync:      %s\n", status.LastSyncAt.Format(time.RFC3339))
	}
	if status.Failed {
		fmt.Printf("last failure:   %s (%s)\n", status.FailureMsg, status.FailedAt.Format(time.RFC3339))
	}
	return nil
}

func cmdSync(ctx context.Context, sync *syncer.Manager) error {
	res := sync.Sync(ctx)
	if !res.OK {
		return fmt.Errorf("sync failed: %s", res.Err)
	}
	fmt.Printf("synced %d, skipped %d\n", res.Synced, res.Skipped)
	return nil
}

func cmdOffline(api *facade.Facade, container *state.Container, args []string) error {
	if len(args) == 0 {
		fmt.Println(map[bool]string{true: "on", false: "off"}[container.WorkOffline()])
		return nil
	}
	switch args[0] {
	case "on":
		return api.SetWorkOffline(true)
	case "off":
		return api.SetWorkOffline(false)
	default:
		return fmt.Errorf("expected on or off, got %q", args[0])
	}
}

func cmdQueue(ctx context.Context, api *facade.Facade) error {
	page, err := api.Queue(ctx)
	if err != nil {
		return err
	}
	for i, song := range page.Songs {
		marker := "  "
		if i == page.QueueIndex {
			marker = "> "
		}
		fmt.Printf("%s%3d  %s - %s\n", marker, i, song.Artist, song.Title)
	}
	return nil
}

func cmdPlaylists(ctx context.Context, api *facade.Facade) error {
	playlists, err := api.Playlists(ctx)
	if err != nil {
		return err
	}
	for _, p := range playlists {
		suffix := ""
		if p.Pending {
			suffix = " (pending sync)"
		}
		fmt.Printf("%-12s %s (%d songs)%s\n", p.ID, p.Name, p.SongCount, suffix)
	}
	return nil
}

func cmdDownload(ctx context.Context, dl *download.Manager, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("download needs a playlist id")
	}
	id, err := domain.ParsePlaylistID(args[0])
	if err != nil {
		return err
	}
	return dl.DownloadPlaylist(ctx, id, "", "")
}

func cmdSearch(st *store.Store, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search needs a query")
	}
	svc := search.New(st, logger)
	matches, err := svc.Songs(strings.Join(args, " "), 25)
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Printf("%s - %s (%s)\n", m.Song.Artist, m.Song.Title, m.Song.Album)
	}
	return nil
}

func cmdUsage(dl *download.Manager) error {
	usage, err := dl.Usage()
	if err != nil {
		return err
	}
	for _, category := range []string{domain.UsagePlaylists, domain.UsageFolders, domain.UsageSongs} {
		e := usage[category]
		fmt.Printf("%-10s %6d files  %10.1f MiB\n", category, e.Count, float64(e.Bytes)/(1<<20))
	}
	return nil
}
