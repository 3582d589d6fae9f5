package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/agent"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/conv"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

type Concierge interface {
	HandleMessage(ctx context.Context, phone, text string) (agent.Reply, error)
}

// ReadLine is a terminal chat that plays the part of a client texting in
// from a fixed phone number.
type ReadLine struct {
	concierge Concierge
	phone     string
	rl        *readline.Instance
}

func NewReadLine(concierge Concierge, runtimePath, phone string) (*ReadLine, error) {
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          phone + " > ",
		HistoryFile:     filepath.Join(runtimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		concierge: concierge,
		phone:     phone,
		rl:        rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("phone", r.phone).Msg("chat started, type 'exit' to quit")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if stop := r.turn(ctx, r.rl.Stdout(), line); stop {
			return nil
		}
	}
}

// turn handles one input line and reports whether the session should end.
func (r *ReadLine) turn(ctx context.Context, out io.Writer, line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "exit", "quit":
		return true
	case "":
		return false
	}

	reply, err := r.concierge.HandleMessage(ctx, r.phone, line)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("chat turn failed")
		fmt.Fprintf(out, "%s\n", agent.FallbackReply)
		return false
	}

	fmt.Fprintf(out, "%s\n", conv.MarkdownToSMS([]byte(reply.Text)))
	return false
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
