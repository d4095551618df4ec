// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package main is the entry point for asgraph, the task-graph generator for
// application-services.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rvandermeulen/application-services/internal/cli"
	"github.com/rvandermeulen/application-services/internal/panichandler"
)

func main() {
	code := run()
	if code != 0 {
		os.Exit(code)
	}
}

func run() int {
	defer panichandler.Handle()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panichandler.SetCancel(cancel)

	// Cancel the context on the termination signals so that a partial
	// generation does not keep running in the background.
	sigc := make(chan os.Signal, 1)

	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	handlePanic := panichandler.WithStackTrace()
	go func() {
		defer handlePanic()
		<-sigc
		cancel()
	}()

	return cli.Execute(ctx, os.Args[1:])
}
