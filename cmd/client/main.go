// Package main runs the interactive terminal signup client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/atinyakov/signupform/internal/client/signup"
	"github.com/atinyakov/signupform/internal/logger"
	"github.com/atinyakov/signupform/internal/rules"
	"golang.org/x/term"
)

var (
	version   string
	buildDate string
)

// main parses command-line flags and runs the signup prompt.
func main() {
	var (
		baseURL  string
		caFile   string
		logLevel string
		showVer  bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert (for HTTPS with the dev CA)")
	flag.StringVar(&logLevel, "log-level", "error", "log level")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Signup Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	zl := logger.New()
	if err := zl.Init(logLevel); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Log.Sync() }()

	client, err := signup.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	api := signup.NewAPIClient(baseURL, client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prompt := signup.NewPrompt(os.Stdin, os.Stdout, api, rules.Default(), zl.Log)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		prompt.ReadPassword = signup.TerminalPassword(fd, os.Stdout)
	}

	if _, err := prompt.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
