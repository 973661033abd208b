package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tap-x-project/tap/did"
	"github.com/tap-x-project/tap/internal/config"
	"github.com/tap-x-project/tap/keystore"
	"github.com/tap-x-project/tap/node"
	"github.com/tap-x-project/tap/node/store"
)

// configError marks a failure to stand up the runtime itself — a bad
// config file, an unreadable keystore, an unopenable store — as distinct
// from a command failing once it runs (§6 exit codes).
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// runtime is the set of handles every subcommand needs: the loaded
// config, the local keystore, a DID resolver covering all three
// supported methods, and the node.Node wrapping the persistent store.
type runtime struct {
	cfg      *config.Config
	keystore *keystore.Manager
	resolver *did.Resolver
	node     *node.Node
	store    store.Store
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, &configError{fmt.Errorf("loading configuration: %w", err)}
	}

	ks, err := keystore.NewManager(cfg.KeyStore.Path)
	if err != nil {
		return nil, &configError{fmt.Errorf("opening keystore: %w", err)}
	}

	resolver := did.NewResolver()
	resolver.Register("key", did.NewKeyResolver())
	resolver.Register("pkh", did.NewPkhResolver())
	resolver.Register("web", did.NewWebResolver(&http.Client{Timeout: 10 * time.Second}, 10*time.Second))

	st, err := store.Open(cfg.Node.DBPath)
	if err != nil {
		return nil, &configError{fmt.Errorf("opening node store: %w", err)}
	}

	n := node.New(st, resolver, node.Config{MaxAgents: cfg.Node.MaxAgents, BaseURL: cfg.Node.BaseURL})
	return &runtime{cfg: cfg, keystore: ks, resolver: resolver, node: n, store: st}, nil
}

// registerExisting builds an *agent.Agent for an already-generated DID and
// registers it on rt's node, for subcommands that act on an existing local
// identity.
func (rt *runtime) registerExisting(d did.DID) error {
	a := newAgentFor(rt, d)
	return rt.node.RegisterAgent(a)
}
