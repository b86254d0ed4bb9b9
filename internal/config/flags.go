package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/chatmedia/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-hs string   base URL of the media repository
//	-cache string  durable cache directory
//	-temp string   ephemeral export directory
//	-t int       transfer timeout in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-hs", "-cache", "-temp", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.HomeserverURL, "hs", cfg.HomeserverURL, "base URL of the media repository")
	fs.StringVar(&cfg.CacheDir, "cache", cfg.CacheDir, "durable cache directory")
	fs.StringVar(&cfg.TempDir, "temp", cfg.TempDir, "ephemeral export directory")
	transferTimeout := fs.Int("t", int(cfg.TransferTimeout.Seconds()), "transfer timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TransferTimeout = time.Duration(*transferTimeout) * time.Second
}
