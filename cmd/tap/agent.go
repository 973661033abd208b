package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tap-x-project/tap/agent"
	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/did"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage local TAP agent identities",
}

var agentCreateLabel string

var agentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new did:key identity and register it as a local agent",
	RunE:  runAgentCreate,
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List DIDs held in the local keystore",
	RunE:  runAgentList,
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentCreateCmd)
	agentCmd.AddCommand(agentListCmd)

	agentCreateCmd.Flags().StringVar(&agentCreateLabel, "label", "", "human-readable label for the new key")
}

func runAgentCreate(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.store.Close()

	d, err := rt.keystore.GenerateKey(sagecrypto.KeyTypeEd25519, agentCreateLabel)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	if err := rt.registerExisting(d); err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), d)
	return nil
}

func runAgentList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.store.Close()

	for _, d := range rt.keystore.ListKeys() {
		fmt.Fprintln(cmd.OutOrStdout(), d)
	}
	return nil
}

// newAgentFor builds an *agent.Agent bound to rt's keystore and resolver
// for the already-generated DID d.
func newAgentFor(rt *runtime, d did.DID) *agent.Agent {
	return agent.New(d, rt.keystore, rt.resolver, func() int64 { return time.Now().Unix() })
}
