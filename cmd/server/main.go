package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/StoreStation/tilehaven/pkg/catalog"
	"github.com/StoreStation/tilehaven/pkg/session"
	"github.com/StoreStation/tilehaven/pkg/store"
	"github.com/StoreStation/tilehaven/pkg/transport"
)

var (
	itemsPath  string
	peersPath  string
	worldsPath string
	address    string
	peerLimit  int
	compress   bool
	checksum   bool
)

func main() {
	root := &cobra.Command{
		Use:   "tilehaven-server",
		Short: "tilehaven game server",
		RunE:  run,
	}

	flags := root.Flags()
	flags.StringVar(&itemsPath, "items", "items.dat", "Path to the binary item-definitions file")
	flags.StringVar(&peersPath, "peers-db", "db/peers.db", "Path to the peers SQLite database")
	flags.StringVar(&worldsPath, "worlds-db", "db/worlds.db", "Path to the worlds SQLite database")
	flags.StringVar(&address, "address", "", "UDP address to listen on (overrides gameserver_adress/gameserver_port)")
	flags.IntVar(&peerLimit, "peer-limit", 50, "Maximum concurrent peers")
	flags.BoolVar(&compress, "compress", true, "Enable payload compression")
	flags.BoolVar(&checksum, "checksum", true, "Enable per-frame CRC-32 checksums")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("server exited with error")
	}
}

// resolveAddress returns --address when it is set; otherwise it builds the
// address from gameserver_adress/gameserver_port (spec §6), with the port
// defaulting to the game port, 17091, and ":17091" when neither is set.
func resolveAddress() string {
	if address != "" {
		return address
	}
	host := os.Getenv("gameserver_adress")
	port := os.Getenv("gameserver_port")
	if host == "" && port == "" {
		return ":17091"
	}
	if port == "" {
		port = "17091"
	}
	return host + ":" + port
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to load .env, continuing with process environment")
	}

	cat := catalog.New()
	if err := catalog.Load(cat, itemsPath); err != nil {
		return err
	}
	if err := cat.ApplyOverrides(); err != nil {
		return err
	}

	db, err := store.Open(peersPath, worldsPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("closing database handles")
		}
	}()

	worker := store.NewWorker(db)

	host, err := transport.NewHost(transport.Config{
		Address:      resolveAddress(),
		PeerLimit:    peerLimit,
		ChannelLimit: 2,
		Compress:     compress,
		Checksum:     checksum,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			logrus.WithError(err).Error("closing transport host")
		}
	}()

	core := session.New(session.Config{
		Transport: host,
		Catalog:   cat,
		Persist:   worker,
		Store:     db,
	})

	logrus.WithFields(logrus.Fields{
		"address":   resolveAddress(),
		"items":     itemsPath,
		"peers_db":  peersPath,
		"worlds_db": worldsPath,
	}).Info("tilehaven server starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// worker.Run is driven by Close/Wait, not context cancellation: shutdown
	// order matters (session core drains first, persistence flushes last),
	// so the worker gets a context that outlives the signal context.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(context.Background())
		return nil
	})
	g.Go(func() error {
		core.Run(gctx)
		return nil
	})

	<-gctx.Done()
	logrus.Info("shutdown signal received, draining session core")
	core.Stop()
	worker.Close()
	worker.Wait()

	_ = g.Wait()
	logrus.Info("tilehaven server stopped")
	return nil
}
