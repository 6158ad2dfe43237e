package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/geleto/casai"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "casai",
		Short:         "Inspect layered function and tool configurations",
		Long:          "casai merges YAML configuration templates the way the library does and checks the result.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMergeCmd(), newCheckCmd())
	return root
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge FILE...",
		Short: "Merge templates left to right and print the final configuration",
		Long:  "The first file is the root ancestor; every following file inherits from the merge of the files before it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := mergeFiles(logger(cmd), args)
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), tpl.Config())
		},
	}
}

func newCheckCmd() *cobra.Command {
	var (
		kind           string
		requireExecute bool
	)
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Merge templates and validate the result for a function or tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			log := logger(cmd)
			var parent casai.ConfigProvider
			if len(args) > 1 {
				tpl, err := mergeFiles(log, args[:len(args)-1])
				if err != nil {
					return err
				}
				parent = tpl
			}
			last := args[len(args)-1]
			raw, err := casai.LoadRawConfig(last)
			if err != nil {
				return err
			}
			final, err := casai.ValidateConfig(k, raw.Config(), parent, requireExecute)
			if err != nil {
				return fmt.Errorf("%s: %w", last, err)
			}
			log.Info("configuration valid", "kind", k.String(), "files", len(args))
			return printConfig(cmd.OutOrStdout(), final)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "function", "entity kind to check: function or tool")
	cmd.Flags().BoolVar(&requireExecute, "require-execute", false, "fail when no execute implementation is configured")
	return cmd
}

// mergeFiles builds a template chain from paths, first path outermost.
func mergeFiles(log *slog.Logger, paths []string) (*casai.Template, error) {
	var parent *casai.Template
	for _, path := range paths {
		raw, err := casai.LoadRawConfig(path)
		if err != nil {
			return nil, err
		}
		opts := []casai.Option{casai.WithLogger(log)}
		if parent != nil {
			opts = append(opts, casai.WithParent(parent))
		}
		tpl, err := casai.NewConfig(raw.Config(), opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		parent = tpl
	}
	return parent, nil
}

func parseKind(s string) (casai.Kind, error) {
	switch s {
	case "function":
		return casai.KindFunction, nil
	case "tool":
		return casai.KindTool, nil
	case "config":
		return casai.KindConfig, nil
	default:
		return 0, fmt.Errorf("unknown kind %q (want function, tool or config)", s)
	}
}

func printConfig(w io.Writer, cfg casai.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func logger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}
