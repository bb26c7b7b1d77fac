package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/petasbytes/tool-agent/memory"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session; every line is a fresh agent run (Ctrl-C to quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.chat(cmd)
		},
	}
}

func (a *app) chat(cmd *cobra.Command) error {
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

	// Earlier runs are kept in the transcript only; each run starts from fresh memory.
	var transcript []memory.Turn
	if cfg.Transcript != "" {
		transcript, err = memory.LoadTranscript(cfg.Transcript)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Transcript).Msg("failed to load transcript")
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chat with the agent (provider %s, Ctrl-C to quit)\n", cfg.Provider)

	// stdin reader goroutine -> lines into channel
	scanner := bufio.NewScanner(cmd.InOrStdin())
	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "You: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return nil
		case line, ok = <-inputCh:
			if !ok {
				fmt.Fprintln(out)
				return scanner.Err()
			}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		res, err := sess.newLoop(out, false).Run(ctx, line)
		if err != nil {
			return err
		}
		// Aborted runs are reported and the session continues.
		_ = report(out, res)

		if cfg.Transcript != "" {
			transcript = append(transcript, res.Turns...)
			if err := memory.SaveTranscript(cfg.Transcript, transcript); err != nil {
				log.Warn().Err(err).Str("path", cfg.Transcript).Msg("failed to save transcript")
			}
		}
	}
}
