// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd009-technology-stack R4.3-R4.9.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	gitpkg "github.com/petar-djukic/declash/internal/git"
	"github.com/petar-djukic/declash/pkg/declash"
)

// newRenameCmd creates the "rename" command.
func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename clashing members",
		Long: "Rename runs one renaming pass. Without --write it only reports what it would do; " +
			"with --write it rewrites the files and commits them when the source is in a git repository.",
		RunE: runRename,
	}

	flags := cmd.Flags()
	flags.String("frontend", "go", "Symbol source: go, scip or dump")
	flags.String("index", "", "SCIP index or symbol dump path")
	flags.StringSlice("exclude", nil, "Glob patterns of files that must not be rewritten")
	flags.Bool("write", false, "Write renamed files back")
	flags.Bool("diff", false, "Print unified diffs of the renamed files")
	flags.Bool("no-git", false, "Disable git operations")
	flags.Bool("allow-dirty", false, "Commit uncommitted changes before renaming instead of refusing")
	flags.Int("suffix-start", 1, "First numeric suffix tried for new names")
	flags.Int("concurrency", 0, "Worker count (0 = number of CPUs)")
	flags.Bool("case-insensitive", false, "Match references case-insensitively")
	flags.String("verify-cmd", "", "Command run after writing; on failure the files are restored")
	flags.Duration("verify-timeout", 0, "Timeout for --verify-cmd (0 = 5m)")

	for _, name := range []string{
		"frontend", "index", "exclude", "write", "diff", "no-git", "allow-dirty",
		"suffix-start", "concurrency", "case-insensitive", "verify-cmd", "verify-timeout",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	return cmd
}

// runRename executes one renaming pass.
func runRename(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg := declash.Config{
		WorkDir:         viper.GetString("workdir"),
		Frontend:        viper.GetString("frontend"),
		Index:           viper.GetString("index"),
		Exclude:         viper.GetStringSlice("exclude"),
		Write:           viper.GetBool("write"),
		Diff:            viper.GetBool("diff"),
		NoGit:           viper.GetBool("no-git"),
		AllowDirty:      viper.GetBool("allow-dirty"),
		SuffixStart:     viper.GetInt("suffix-start"),
		Concurrency:     viper.GetInt("concurrency"),
		CaseInsensitive: viper.GetBool("case-insensitive"),
		VerifyCmd:       viper.GetString("verify-cmd"),
		VerifyTimeout:   viper.GetDuration("verify-timeout"),
		Logger:          logger,
	}

	d, err := declash.New(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result, err := d.Run(ctx)
	if result != nil {
		if cfg.Diff && result.Diff != "" {
			fmt.Fprint(cmd.ErrOrStderr(), result.Diff)
		}
		printResult(cmd.OutOrStdout(), result)
	}
	return err
}

// printResult outputs the result as JSON.
func printResult(w io.Writer, result *declash.Result) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling result: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(out))
}

// newUndoCmd creates the "undo" command.
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last declash commit",
		Long:  "Undo performs a soft reset of the last commit if a renaming pass made it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := gitpkg.Open(gitpkg.Config{WorkDir: viper.GetString("workdir")})
			if err != nil {
				return fmt.Errorf("opening repository: %w", err)
			}

			passID, err := repo.Undo()
			if err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reverted declash pass %s.\n", passID)
			return nil
		},
	}
}
