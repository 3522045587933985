package config

import (
	"flag"
	"os"

	"github.com/chafidzadlan/anotherfile/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string    metadata store DSN
//	-t string    access token
//	-o string    owner id
//	-s string    S3 endpoint
//	-b string    S3 bucket
//	-dir string  download directory
//	-l string    local state database path
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-t", "-o", "-s", "-b", "-dir", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.MetadataDSN, "d", cfg.MetadataDSN, "metadata store DSN")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	fs.StringVar(&cfg.OwnerID, "o", cfg.OwnerID, "owner id")
	fs.StringVar(&cfg.S3Endpoint, "s", cfg.S3Endpoint, "S3-compatible blob storage endpoint")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "blob storage bucket")
	fs.StringVar(&cfg.DownloadDir, "dir", cfg.DownloadDir, "directory downloads are saved to")
	fs.StringVar(&cfg.LocalStorePath, "l", cfg.LocalStorePath, "local state database path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
