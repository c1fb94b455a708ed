package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"startupsaathi-backend/internal/model"
	"startupsaathi-backend/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var interactive bool

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask the assistant from the terminal",
	Long: `Ask a single question, or start a conversation with --interactive.

In interactive mode type /reset to start over and /quit (or Ctrl-D) to leave.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "keep the conversation open")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if !interactive && strings.TrimSpace(question) == "" {
		return fmt.Errorf("a question is required unless --interactive is set")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	completer, err := model.NewCompleter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create completer: %w", err)
	}

	c := &conversation{
		assistant: service.NewAssistant(completer),
		out:       cmd.OutOrStdout(),
	}
	c.reset()

	// the arguments act as the seed question of the first open
	ok := c.print(c.assistant.Open(ctx, c.session, question))
	if !interactive {
		if !ok {
			return fmt.Errorf("request failed")
		}
		return nil
	}
	return c.loop(ctx, cmd.InOrStdin())
}

type conversation struct {
	assistant *service.Assistant
	session   model.Session
	out       io.Writer
}

func (c *conversation) reset() {
	c.session = model.NewSession(uuid.New().String(), time.Now())
}

func (c *conversation) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/reset":
			c.session = c.assistant.Close(c.session)
			c.print(c.assistant.Open(ctx, c.session, ""))
			fmt.Fprintln(c.out, "(conversation cleared)")
			continue
		}

		c.print(c.assistant.Submit(ctx, c.session, line))
	}
}

// print stores the new session and writes the reply; false means the
// completion failed.
func (c *conversation) print(res service.Result) bool {
	c.session = res.Session

	switch res.Outcome {
	case service.OutcomeAnswered:
		turns := res.Session.Turns
		fmt.Fprintln(c.out, turns[len(turns)-1].Content)
	case service.OutcomeFailed:
		fmt.Fprintf(c.out, "Chat error: %s\n", model.FailureReason(res.Err))
		return false
	}
	return true
}
