package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/pawlang/paw/project"
)

// Execute runs the Paw CLI with the given version string.
// Import front-end packages via blank imports before calling this
// function so they register via init().
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "paw",
		Usage:                  "Compile game scripts to native code",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Compile every script under <project>/res",
				ArgsUsage: "[project]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Rebuild even when no script changed",
					},
					&cli.BoolFlag{
						Name:  "no-plugin",
						Usage: "Stop after generating Go sources",
					},
				},
				Action: buildAction,
			},
			{
				Name:      "emit",
				Usage:     "Output the generated Go source for one script",
				ArgsUsage: "<file>",
				Action:    emitAction,
			},
			{
				Name:      "clean",
				Usage:     "Remove the .paw output directory",
				ArgsUsage: "[project]",
				Action:    cleanAction,
			},
			{
				Name:      "hash",
				Usage:     "Print the project digest and the last built digest",
				ArgsUsage: "[project]",
				Action:    hashAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func projectRoot(cmd *cli.Command) string {
	if cmd.NArg() > 0 {
		return cmd.Args().First()
	}
	return "."
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	comp := project.New(projectRoot(cmd))
	comp.Force = cmd.Bool("force")
	comp.NoPlugin = cmd.Bool("no-plugin")
	return comp.Build()
}

func emitAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: paw emit <file>")
	}
	file := cmd.Args().First()
	root, err := findProjectRoot(file)
	if err != nil {
		return err
	}
	comp := project.New(root)
	src, err := comp.Emit(file)
	if err != nil {
		return err
	}
	fmt.Print(src)
	return nil
}

func cleanAction(ctx context.Context, cmd *cli.Command) error {
	return project.New(projectRoot(cmd)).Clean()
}

func hashAction(ctx context.Context, cmd *cli.Command) error {
	comp := project.New(projectRoot(cmd))
	current, stored, err := comp.Digest()
	if err != nil {
		return err
	}
	fmt.Printf("current: %s\n", current)
	if stored == "" {
		stored = "(no build)"
	}
	fmt.Printf("built:   %s\n", stored)
	return nil
}

// findProjectRoot walks up from a script file to the directory that
// contains its res/ tree.
func findProjectRoot(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", file, err)
	}
	dir := filepath.Dir(abs)
	for {
		if filepath.Base(dir) == "res" {
			return filepath.Dir(dir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s is not under a res directory", file)
		}
		dir = parent
	}
}
