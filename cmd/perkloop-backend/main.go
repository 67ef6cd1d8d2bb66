// perkloop-backend runs the development backend the perkloop CLI talks to
// when no production deployment is configured.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/perkloop/perkloop-go/internal/backend"
)

func main() {
	_ = godotenv.Load()

	cfg := &backend.Config{}
	flag.IntVar(&cfg.Port, "port", 8630, "HTTP listen port")
	flag.StringVar(&cfg.SeedFile, "seed-file", "", "YAML fixture for initial state")
	flag.StringVar(&cfg.Secret, "secret", os.Getenv("PERKLOOP_TOKEN_SECRET"), "token signing secret")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable request logging")
	flag.DurationVar(&cfg.Latency, "latency", 0, "artificial per-request delay, e.g. 150ms")
	flag.Parse()

	b, err := backend.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if err := b.Serve(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
