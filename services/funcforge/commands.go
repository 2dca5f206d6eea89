package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forge-ai/funcforge/internal/codegen"
	"github.com/forge-ai/funcforge/internal/config"
	"github.com/forge-ai/funcforge/internal/funcspec"
	"github.com/forge-ai/funcforge/internal/prompt"
	"github.com/forge-ai/funcforge/internal/provider"
	"github.com/forge-ai/funcforge/internal/report"
	"github.com/forge-ai/funcforge/internal/sandbox"
	"github.com/forge-ai/funcforge/internal/validate"
)

// errFailed signals that the code was checked and got examples wrong. The
// report already says so, so main only sets the exit status.
var errFailed = errors.New("validation failed")

type rootOpts struct {
	debug  bool
	runner string
	model  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:           "funcforge",
		Short:         "Synthesize a Python function from examples with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.runner, "runner", "", "sandbox runner: local or docker (overrides SANDBOX_RUNNER)")
	root.PersistentFlags().StringVar(&opts.model, "model", "", "model name (overrides LLM_MODEL)")

	root.AddCommand(newPromptCmd(), newGenerateCmd(opts), newValidateCmd(opts))
	return root
}

func newPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt SPEC",
		Short: "Print the prompt that would be sent for a spec file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := funcspec.Load(args[0])
			if err != nil {
				return err
			}
			text, err := prompt.Build(spec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newGenerateCmd(opts *rootOpts) *cobra.Command {
	var (
		out          string
		skipValidate bool
	)
	cmd := &cobra.Command{
		Use:   "generate SPEC",
		Short: "Generate a solve function and check it against the examples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := funcspec.Load(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			p, err := provider.New(cfg.Provider, cfg.ProviderOptions())
			if err != nil {
				return fmt.Errorf("%w (set %s)", err, cfg.APIKeyVar())
			}

			log.Info().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("generating")
			res, err := codegen.New(p).Generate(cmd.Context(), spec)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				if err := os.WriteFile(out, []byte(res.Code+"\n"), 0o644); err != nil {
					return fmt.Errorf("write code: %w", err)
				}
				log.Info().Str("file", out).Msg("code written")
			} else if err := report.Code(w, res.Thinking, res.Code); err != nil {
				return err
			}

			if skipValidate {
				return nil
			}
			return check(cmd.Context(), cmd, cfg, spec, res.Code)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the code to this file instead of stdout")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "do not run the code against the examples")
	return cmd
}

func newValidateCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "validate SPEC CODE_FILE",
		Short: "Check existing Python code against a spec's examples",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := funcspec.Load(args[0])
			if err != nil {
				return err
			}
			code, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read code: %w", err)
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return check(cmd.Context(), cmd, cfg, spec, string(code))
		},
	}
}

func loadConfig(opts *rootOpts) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if opts.runner != "" {
		cfg.Runner = opts.runner
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}
	return cfg, nil
}

func check(ctx context.Context, cmd *cobra.Command, cfg *config.Config, spec funcspec.FuncSpec, code string) error {
	runner, err := sandbox.New(cfg.SandboxOptions())
	if err != nil {
		return err
	}
	failures, err := validate.Validate(ctx, runner, spec, code)
	if err != nil {
		return err
	}
	if err := report.Failures(cmd.OutOrStdout(), len(spec.Examples), failures); err != nil {
		return err
	}
	if len(failures) > 0 {
		return errFailed
	}
	return nil
}
