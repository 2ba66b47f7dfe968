package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/adapters/render/collection"
	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/domain"
)

var errFollowNeedsRealtime = errors.New("--follow needs a realtime transport, realtime.transport is none")

func newConversationsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"chats"},
		Short:   "Browse live chats and hand them between the bot and an agent",
	}

	cmd.AddCommand(
		newConversationListCmd(app),
		newConversationMessagesCmd(app),
		newConversationSendCmd(app),
		newConversationHandlerCmd(app, "takeover", "Hand the conversation to a human agent", domain.ConversationHumanTakeover),
		newConversationHandlerCmd(app, "release", "Hand the conversation back to the bot", domain.ConversationBotActive),
	)

	return cmd
}

func newConversationListCmd(app *app) *cobra.Command {
	var search string
	var days int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := app.listEntities(cmd, domain.KindConversation, 0)
			if err != nil {
				return err
			}
			items = domain.FilterConversations(items, domain.ConversationFilter{
				Term: search,
				Days: days,
				Now:  app.now(),
			})
			return app.writeCollection(cmd, domain.NewCollection(domain.KindConversation, items, 0))
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Match phone digits or last message text")
	cmd.Flags().IntVar(&days, "days", 0, "Only conversations active in the last N days (0 for all)")

	return cmd
}

func newConversationMessagesCmd(app *app) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Print a conversation transcript",
		Long:  "messages prints the transcript of one conversation. With --follow it keeps printing messages pushed on the realtime channel until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var messages []domain.Message
			err := app.fetch(cmd, "Fetching messages...", func(ctx context.Context) error {
				var fetchErr error
				messages, fetchErr = app.api.ListMessages(ctx, args[0])
				return fetchErr
			})
			if err != nil {
				return err
			}

			if app.flags.json && !follow {
				if messages == nil {
					messages = []domain.Message{}
				}
				return writeJSON(cmd, messages)
			}
			if !follow {
				return writeLine(cmd, "%s", collection.RenderMessages(args[0], messages, app.now()))
			}
			return followMessages(cmd, app, domain.NewTranscript(args[0], messages))
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new messages as they arrive")

	return cmd
}

// followMessages streams the transcript. JSON mode writes one message per
// line, starting with the fetched history.
func followMessages(cmd *cobra.Command, app *app, transcript domain.Transcript) error {
	ctx := cmd.Context()

	clientID, err := app.clientID(ctx)
	if err != nil {
		return userError(err)
	}
	events, err := app.eventSource(clientID)
	if err != nil {
		return err
	}
	if events == nil {
		return errFollowNeedsRealtime
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	emit := func(msg domain.Message) {
		if app.flags.json {
			_ = enc.Encode(msg)
			return
		}
		_ = writeLine(cmd, "%s", collection.RenderMessage(msg, app.now()))
	}

	if app.flags.json {
		for _, msg := range transcript.Messages {
			emit(msg)
		}
	} else if err := writeLine(cmd, "%s", collection.RenderMessages(transcript.ConversationID, transcript.Messages, app.now())); err != nil {
		return err
	}

	if _, err := application.FollowTranscript(ctx, events, transcript, emit, app.log); err != nil {
		return fmt.Errorf("live messages stopped: %w", err)
	}
	return nil
}

func newConversationSendCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <message>...",
		Short: "Send a message as the agent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			var sent domain.Message
			err := app.fetch(cmd, "Sending message...", func(ctx context.Context) error {
				var sendErr error
				sent, sendErr = app.api.SendMessage(ctx, args[0], content)
				return sendErr
			})
			if err != nil {
				return err
			}

			if app.flags.json {
				return writeJSON(cmd, sent)
			}
			return writeLine(cmd, "Sent to %s: %s", args[0], content)
		},
	}
}

func newConversationHandlerCmd(app *app, action, short, status string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <conversation-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			err := app.fetch(cmd, "Updating conversation...", func(ctx context.Context) error {
				if action == "takeover" {
					return app.api.Takeover(ctx, id)
				}
				return app.api.Release(ctx, id)
			})
			if err != nil {
				return err
			}

			if app.flags.json {
				return writeJSON(cmd, map[string]string{"id": id, "status": status})
			}
			return writeLine(cmd, "Conversation %s is now %s", id, status)
		},
	}
}
