// Command sercha-kb manages a flat-file knowledge base and mirrors it into
// a Notion database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/notion"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/flatfile"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("load .env: %v", err)
	}

	configDir, err := file.DefaultDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings := services.NewSettingsService(configStore)

	cli.SetVersion(version)
	cli.SetServices(newServices(configDir, settings))

	return cli.Execute(ctx)
}

// storeOpener opens the knowledge base on first use and hands the same
// store to every later caller.
type storeOpener struct {
	root  string
	store *flatfile.Store
}

func (o *storeOpener) open() (*flatfile.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	store, err := flatfile.NewStore(o.root)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	o.store = store
	return store, nil
}

// newServices wires the command services. Nothing here touches the store
// or the journal until a command asks for it.
func newServices(configDir string, settings *services.SettingsService) cli.Services {
	stores := &storeOpener{root: settings.StoreRoot()}

	openJournal := func() (*sqlite.Store, error) {
		journal, err := sqlite.NewStore(configDir)
		if err != nil {
			return nil, fmt.Errorf("open sync journal: %w", err)
		}
		return journal, nil
	}

	return cli.Services{
		Settings: settings,
		Knowledge: func() (driving.KnowledgeService, error) {
			store, err := stores.open()
			if err != nil {
				return nil, err
			}
			return services.NewKnowledgeService(store), nil
		},
		Sync: func() (driving.SyncService, func() error, error) {
			store, err := stores.open()
			if err != nil {
				return nil, nil, err
			}
			journal, err := openJournal()
			if err != nil {
				return nil, nil, err
			}
			transport := notion.NewTransport(settings.Sync())
			client := notion.NewClient(settings.Notion(), transport)
			return services.NewSyncService(store, client, journal.SyncJournal()), journal.Close, nil
		},
		History: func() (driving.SyncService, func() error, error) {
			journal, err := openJournal()
			if err != nil {
				return nil, nil, err
			}
			return services.NewSyncService(nil, nil, journal.SyncJournal()), journal.Close, nil
		},
	}
}
