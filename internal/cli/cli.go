// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cli implements the command-line interface of the task-graph
// generator.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rvandermeulen/application-services/internal/config"
	"github.com/rvandermeulen/application-services/internal/fspath"
	"github.com/rvandermeulen/application-services/internal/index"
	"github.com/rvandermeulen/application-services/internal/kind"
	"github.com/rvandermeulen/application-services/internal/log"
	"github.com/rvandermeulen/application-services/internal/logging"
	"github.com/rvandermeulen/application-services/internal/params"
	"github.com/rvandermeulen/application-services/internal/run"
	"github.com/rvandermeulen/application-services/internal/target"
	"github.com/rvandermeulen/application-services/internal/version"
	"github.com/rvandermeulen/application-services/pkg/taskdesc"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Name is the name of the command that's run.
const Name = "asgraph"

// usageLine is the one-line synopsis of the program.
const usageLine = Name + " [--version] [-h | --help] [<options>]"

// errHelp is returned internally when the help flag is set.
var errHelp = errors.New("help requested")

// options are the parsed command-line options of one run.
type options struct {
	configFile string
	paramsFile string
	kindDir    string
	method     string
	output     string
	version    bool
}

// Execute parses the command-line arguments, generates the task graph, and
// writes the target task descriptors out. It returns the exit code of the
// program.
func Execute(ctx context.Context, args []string) int {
	logging.InitBootstrap()

	opts, flagSet, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, errHelp) {
			printUsage(flagSet)

			return 0
		}

		fmt.Fprintf(os.Stderr, "%s: %v\n", Name, err)

		return 2
	}

	if opts.version {
		fmt.Fprintf(os.Stdout, "%s version %s\n", Name, version.Version())

		return 0
	}

	if err := generate(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", Name, err)

		return 1
	}

	return 0
}

// parseArgs parses the command-line arguments into options.
func parseArgs(args []string) (*options, *pflag.FlagSet, error) {
	opts := &options{} //nolint:exhaustruct // filled from flags

	flagSet := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	flagSet.SortFlags = false
	flagSet.Usage = func() {}

	flagSet.StringVarP(&opts.configFile, "config", "c", "", "read the graph configuration from `<path>`")
	flagSet.StringVarP(&opts.paramsFile, "parameters", "p", "", "read the decision parameters from `<path>`")
	flagSet.StringVar(&opts.kindDir, "kind-dir", "", "read the kind documents from `<path>`")
	flagSet.StringVarP(&opts.method, "target-tasks-method", "t", "", "select the target tasks with `<method>`")
	flagSet.StringVarP(&opts.output, "output", "o", "-", "write the task descriptors to `<path>`")
	flagSet.BoolVar(&opts.version, "version", false, "print the version information and exit")

	help := flagSet.BoolP("help", "h", false, "show the help message and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, flagSet, errHelp
		}

		return nil, flagSet, fmt.Errorf("failed to parse command-line arguments: %w", err)
	}

	if *help {
		return nil, flagSet, errHelp
	}

	if err := resolvePaths(opts); err != nil {
		return nil, flagSet, err
	}

	return opts, flagSet, nil
}

// resolvePaths expands and resolves the path options in place. Empty values
// and the standard output marker are left untouched.
func resolvePaths(opts *options) error {
	for _, p := range []*string{&opts.configFile, &opts.paramsFile, &opts.kindDir, &opts.output} {
		if *p == "" || *p == "-" {
			continue
		}

		abs, err := fspath.Path(*p).Abs()
		if err != nil {
			return err
		}

		*p = abs.String()
	}

	return nil
}

// printUsage prints the usage message of the program.
func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stdout, "Usage: %s\n\nOptions:\n%s", usageLine, flagSet.FlagUsages())
}

// generate runs one full generation: load the configuration, the parameters,
// and the kinds, transform every job, select the target tasks, and write the
// selected descriptors out.
func generate(ctx context.Context, opts *options) error {
	cfg, err := config.Parse(ctx, opts.configFile)
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.Logging); err != nil {
		return err
	}

	if opts.kindDir != "" {
		cfg.KindDir = opts.kindDir
	}

	p := params.Default()

	if opts.paramsFile != "" {
		p, err = params.Load(opts.paramsFile)
		if err != nil {
			return err
		}
	}

	if opts.method != "" {
		p.TargetTasksMethod = opts.method
	}

	log.Info(ctx, "generating task graph", "kinds", cfg.KindDir, "tasksFor", p.TasksFor)

	kinds, err := kind.LoadAll(cfg.KindDir)
	if err != nil {
		return err
	}

	registry := run.NewRegistry()

	var descs []*taskdesc.TaskDescriptor

	for _, k := range kinds {
		kindDescs, err := kind.Transform(ctx, registry, k)
		if err != nil {
			return err
		}

		descs = append(descs, kindDescs...)
	}

	selected, err := targetTasks(ctx, cfg, p, descs)
	if err != nil {
		return err
	}

	log.Info(ctx, "selected target tasks", "full", len(descs), "target", len(selected))

	return write(opts.output, selected)
}

// targetTasks applies the configured target-task method to the generated
// descriptors and returns the selected ones in their original order.
func targetTasks(
	ctx context.Context,
	cfg *config.Config,
	p *params.Parameters,
	descs []*taskdesc.TaskDescriptor,
) ([]*taskdesc.TaskDescriptor, error) {
	method, err := target.Get(p.TargetTasksMethod)
	if err != nil {
		return nil, err
	}

	graph := make(target.Graph, len(descs))
	for _, desc := range descs {
		graph[desc.Label] = target.Task{Label: desc.Label, Attributes: desc.Attributes}
	}

	labels := method(ctx, target.Input{
		Graph:  graph,
		Params: p,
		Index:  index.New(cfg.IndexURL),
	})

	wanted := make(map[string]bool, len(labels))
	for _, label := range labels {
		wanted[label] = true
	}

	selected := make([]*taskdesc.TaskDescriptor, 0, len(labels))

	for _, desc := range descs {
		if wanted[desc.Label] {
			selected = append(selected, desc)
		}
	}

	return selected, nil
}

// write marshals the descriptors to YAML and writes them to the given path,
// or to the standard output when the path is "-".
func write(path string, descs []*taskdesc.TaskDescriptor) error {
	data, err := yaml.Marshal(descs)
	if err != nil {
		return fmt.Errorf("failed to marshal task descriptors: %w", err)
	}

	if path == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write task descriptors: %w", err)
		}

		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // generator output is not sensitive
		return fmt.Errorf("failed to write task descriptors: %w", err)
	}

	return nil
}
