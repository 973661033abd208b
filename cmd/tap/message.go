package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tap-x-project/tap/did"
	"github.com/tap-x-project/tap/message"
)

var (
	messageSendFrom string
	messageSendTo   string
	messageSendType string
	messageSendTxID string
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Send TAP messages between local and remote agents",
}

var messageSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build, sign or encrypt, and deliver a message from a local agent",
	RunE:  runMessageSend,
}

func init() {
	rootCmd.AddCommand(messageCmd)
	messageCmd.AddCommand(messageSendCmd)

	messageSendCmd.Flags().StringVar(&messageSendFrom, "from", "", "sending agent's DID (required)")
	messageSendCmd.Flags().StringVar(&messageSendTo, "to", "", "recipient DID (required)")
	messageSendCmd.Flags().StringVar(&messageSendType, "type", "trustping", "message type: trustping, authorize")
	messageSendCmd.Flags().StringVar(&messageSendTxID, "transaction", "", "transaction id to thread the message to (required for authorize)")
	_ = messageSendCmd.MarkFlagRequired("from")
	_ = messageSendCmd.MarkFlagRequired("to")
}

func runMessageSend(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.store.Close()

	if _, err := rt.keystore.Lookup(did.DID(messageSendFrom)); err != nil {
		return fmt.Errorf("sender %s: %w", messageSendFrom, err)
	}
	sender := newAgentFor(rt, did.DID(messageSendFrom))
	if err := rt.node.RegisterAgent(sender); err != nil {
		return fmt.Errorf("wiring sender into node: %w", err)
	}

	var body message.Body
	switch messageSendType {
	case "trustping":
		body = &message.TrustPing{ResponseRequested: true}
	case "authorize":
		if messageSendTxID == "" {
			return fmt.Errorf("--transaction is required for an authorize message")
		}
		body = &message.Authorize{}
	default:
		return fmt.Errorf("unsupported message type %q", messageSendType)
	}

	plain, err := sender.CreateMessage(body, messageSendTxID)
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	_, _, err = sender.SendMessage(context.Background(), plain, []did.DID{did.DID(messageSendTo)}, true)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), plain.ID)
	return nil
}
