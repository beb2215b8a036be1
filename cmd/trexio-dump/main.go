// Command trexio-dump prints the contents of a trexio container.
//
// Usage:
//
//	trexio-dump [-config trexio.yaml] [-backend text] [-values=false] <container>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/andreyvit/trexio"
	"github.com/andreyvit/trexio/config"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./trexio.yaml if present)")
	backendFlag := flag.String("backend", "", "container backend: binary or text (overrides config)")
	values := flag.Bool("values", true, "print field values, not just names and shapes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <container>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("** %v", err)
	}
	if *backendFlag != "" {
		b, err := trexio.ParseBackend(*backendFlag)
		if err != nil {
			log.Fatalf("** %v", err)
		}
		cfg.Container.Backend = b.String()
	}

	out, err := config.OpenOutput(cfg.Logging)
	if err != nil {
		log.Fatalf("** %v", err)
	}
	defer out.Close()
	logger := config.NewLogger(cfg.Logging, out)

	opts, err := cfg.Options(logger)
	if err != nil {
		log.Fatalf("** %v", err)
	}

	flags := trexio.DumpGroupHeaders | trexio.DumpShapes
	if *values {
		flags |= trexio.DumpValues
	}

	err = trexio.With(path, trexio.ModeRead, cfg.BackendKind(), func(f *trexio.File) error {
		s, err := f.Dump(flags)
		os.Stdout.WriteString(s)
		return err
	}, opts...)
	if err != nil {
		logger.Error("dump failed", "path", path, "status", trexio.StatusOf(err).String(), "err", err)
		out.Close()
		os.Exit(1)
	}
}
