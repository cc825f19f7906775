package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/memory"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/render"
)

const chatLongDesc string = `Chat with a bot that remembers the conversation.

After each turn the bot refreshes a rolling summary of the conversation once
the history is longer than --summarize-after messages, and the summary is
fed back into its system prompt. Type "exit" or "quit" to stop.

With --session the conversation is loaded from and saved to a JSON file so
it survives restarts.

Examples:
  adp chat
  adp chat --stream --session ~/.adp/chat.json
  adp chat --summarize-after 6 --keep-last 4`

const chatShortDesc string = "Chat with conversational memory"

type chatCommander struct {
	flags          *cmdenv.Flags
	session        string
	summarizeAfter int
	keepLast       int
	stream         bool
}

func NewChatCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &chatCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.session, "session", "", "Load and save the conversation in this JSON file")
	cmd.Flags().IntVar(&cmder.summarizeAfter, "summarize-after", -1, "Refresh the summary once the history holds more than this many messages")
	cmd.Flags().IntVar(&cmder.keepLast, "keep-last", -1, "Keep only this many recent messages after each summary (0 keeps all)")
	cmd.Flags().BoolVar(&cmder.stream, "stream", false, "Print replies as they are generated")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	summarizeAfter := env.Config.Memory.SummarizeAfter
	if c.summarizeAfter >= 0 {
		summarizeAfter = c.summarizeAfter
	}
	keepLast := env.Config.Memory.KeepLast
	if c.keepLast >= 0 {
		keepLast = c.keepLast
	}
	path := env.Config.Memory.SessionFile
	if c.session != "" {
		path = c.session
	}

	model := env.Model
	if c.stream {
		streaming := *env.Model
		streaming.OnToken = env.Out.Token
		model = &streaming
	}

	mem, err := memory.New(model,
		memory.WithSummarizeAfter(summarizeAfter),
		memory.WithKeepLast(keepLast),
		memory.WithLogger(env.Logger),
	)
	if err != nil {
		return err
	}

	session := memory.NewSession(mem)
	if path != "" {
		session, err = memory.LoadSession(path, mem)
		if err != nil {
			return err
		}
		env.Logger.Debug("session loaded",
			zap.String("path", path),
			zap.Int("messages", len(session.State().Messages)),
		)
	}

	env.Out.Note("Bot is ready! (type 'exit' to quit)")
	env.Out.Note("Tip: tell it your name and what you like, then ask whether it remembers.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(env.Out.Writer(), "\nYou: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if memory.IsExit(input) {
			break
		}
		if input == "" {
			continue
		}

		c.turn(ctx, env.Out, session, input)

		if path != "" {
			if err := session.Save(path); err != nil {
				env.Logger.Warn("failed to save session", zap.String("path", path), zap.Error(err))
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

const summaryNote = "[system] updating long-term memory (summary)"

// turn runs one exchange. A failed turn is printed and the loop continues.
func (c *chatCommander) turn(ctx context.Context, out *render.Printer, session *memory.Session, input string) {
	if c.stream {
		fmt.Fprint(out.Writer(), "Bot: ")
	}

	reply, err := session.Send(ctx, input)
	if err != nil {
		if c.stream {
			fmt.Fprintln(out.Writer())
		}
		out.Error("chat", err)
		return
	}

	if c.stream {
		fmt.Fprintln(out.Writer())
	} else {
		out.Reply("Bot", reply.Text)
	}
	if reply.Summarized {
		out.Note(summaryNote)
	}
	if reply.Summary != "" {
		out.Note("\n[memory] %s", reply.Summary)
	}
}
