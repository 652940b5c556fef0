package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/pubnotion"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "build":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: pubnotion build <output-dir>")
			os.Exit(1)
		}
		if err := runBuild(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "new":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: pubnotion new <project-name>")
			os.Exit(1)
		}
		if err := runNew(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("pubnotion %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app := pubnotion.New(cfg.site(), pubnotion.ViewFuncs{}, pubnotion.WithStaticDir(cfg.StaticDir))
	defer app.Close()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runBuild(dir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// A static site has no collect endpoint and no admin area.
	site := cfg.site()
	site.AnalyticsEnabled = false
	site.AdminPassword = ""

	app := pubnotion.New(site, pubnotion.ViewFuncs{}, pubnotion.WithStaticDir(cfg.StaticDir))
	defer app.Close()

	res, err := app.Export(context.Background(), dir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d pages to %s\n", len(res.Paths), dir)
	return nil
}

func printUsage() {
	fmt.Println(`pubnotion - A blog engine that publishes a Notion database with Go, Echo, and templ

Usage:
  pubnotion <command> [arguments]

Commands:
  serve         Serve the site over HTTP
  build <dir>   Export the site as static files into dir
  new <name>    Create a starter site that embeds pubnotion
  version       Print the pubnotion version
  help          Show this help message

Configuration is read from the environment and an optional .env file.
NOTION_TOKEN and NOTION_DATABASE_ID are required.

Examples:
  pubnotion serve
  pubnotion build dist
  pubnotion new github.com/user/myblog`)
}
