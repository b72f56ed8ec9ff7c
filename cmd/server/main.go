package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/minhpq/microsql/internal"
	"github.com/minhpq/microsql/server/microwire"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to yaml config (optional)")
		addr    = flag.String("addr", "127.0.0.1:8877", "listen address")
		dataDir = flag.String("data-dir", "./data", "directory for snapshot files")
		dbName  = flag.String("db", "microsql", "database name (snapshot file is <db>.json)")
		debug   = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	sc := microwire.ServerConfig{
		Addr:    *addr,
		DataDir: *dataDir,
		DBName:  *dbName,
	}

	if *cfgPath != "" {
		cfg, err := internal.LoadConfig(*cfgPath)
		if err != nil {
			slog.Error("load config failed", "path", *cfgPath, "err", err)
			os.Exit(1)
		}
		sc.Addr = cfg.Server.Addr
		sc.DataDir = cfg.Database.Dir
		sc.DBName = cfg.Database.Name
		*debug = *debug || cfg.Server.Debug
	}

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := microwire.Run(sc); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
