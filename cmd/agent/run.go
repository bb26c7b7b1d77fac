package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/petasbytes/tool-agent/memory"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const defaultPrompt = "3 + 5 を計算して"

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run the agent loop on one prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPrompt(cmd, args, false)
		},
	}
}

func newOnceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "once [prompt]",
		Short: "Plan once, run the requested tools, then answer without tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPrompt(cmd, args, true)
		},
	}
}

func (a *app) runPrompt(cmd *cobra.Command, args []string, once bool) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		prompt = defaultPrompt
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User: %s\n", prompt)

	res, err := sess.newLoop(out, once).Run(ctx, prompt)
	if err != nil {
		return err
	}
	if cfg.Transcript != "" {
		if err := memory.SaveTranscript(cfg.Transcript, res.Turns); err != nil {
			return errors.Wrap(err, "save transcript")
		}
	}
	return report(out, res)
}
