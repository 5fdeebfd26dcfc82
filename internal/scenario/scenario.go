// Package scenario drives the program through a scripted sequence of
// operations read from YAML. It backs the simulate command and doubles as an
// end-to-end fixture for tests.
//
//	name: weekly draw
//	wallets:
//	  - name: alice
//	    lamports: 2000000000
//	steps:
//	  - op: initialize
//	  - op: bootstrap
//	  - op: buy
//	    wallet: alice
//	    amount: 1000000000
//	  - op: enter
//	    wallet: alice
//	    tier: 2
//	  - op: commit
//	    seed: round-0
//	  - op: advance
//	    slots: 1
//	  - op: draw
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Op names a scenario step.
type Op string

const (
	OpInitialize        Op = "initialize"
	OpBootstrap         Op = "bootstrap"
	OpBuy               Op = "buy"
	OpSell              Op = "sell"
	OpBurn              Op = "burn"
	OpAddLiquidity      Op = "add_liquidity"
	OpSync              Op = "sync"
	OpEnter             Op = "enter"
	OpCommit            Op = "commit"
	OpDraw              Op = "draw"
	OpCancel            Op = "cancel"
	OpAdvance           Op = "advance"
	OpSetTax            Op = "set_tax"
	OpSetSplit          Op = "set_split"
	OpPause             Op = "pause"
	OpTransferAuthority Op = "transfer_authority"
	OpInitAdmin         Op = "init_admin"
	OpAddAdmin          Op = "add_admin"
	OpRemoveAdmin       Op = "remove_admin"
	OpTransferMaster    Op = "transfer_master"
	OpAdminPause        Op = "admin_pause"
	OpAdminUnpause      Op = "admin_unpause"
	OpIsAdmin           Op = "is_admin"
)

var knownOps = map[Op]bool{
	OpInitialize: true, OpBootstrap: true, OpBuy: true, OpSell: true, OpBurn: true,
	OpAddLiquidity: true, OpSync: true, OpEnter: true, OpCommit: true, OpDraw: true,
	OpCancel: true, OpAdvance: true, OpSetTax: true, OpSetSplit: true, OpPause: true,
	OpTransferAuthority: true, OpInitAdmin: true, OpAddAdmin: true, OpRemoveAdmin: true,
	OpTransferMaster: true, OpAdminPause: true, OpAdminUnpause: true, OpIsAdmin: true,
}

// AuthorityWallet is the implicit wallet that deploys the program.
const AuthorityWallet = "authority"

// Scenario is a parsed scenario file.
type Scenario struct {
	Name string `yaml:"name"`
	// Signed submits every step as a signed transaction instead of a bare
	// instruction.
	Signed bool `yaml:"signed"`
	// LpSol seeds the wrapped SOL pool at genesis, in lamports.
	LpSol   uint64       `yaml:"lp_sol"`
	Wallets []WalletSpec `yaml:"wallets"`
	Steps   []Step       `yaml:"steps"`
}

// WalletSpec funds a named wallet before the first step.
type WalletSpec struct {
	Name     string `yaml:"name"`
	Lamports uint64 `yaml:"lamports"`
	Tokens   uint64 `yaml:"tokens"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op Op `yaml:"op"`
	// Wallet acts in the step. Privileged steps default to the authority.
	Wallet string `yaml:"wallet"`
	// Target is the wallet an admin step is about.
	Target string `yaml:"target"`
	Amount uint64 `yaml:"amount"`
	// Sol is the SOL side of add_liquidity and bootstrap, in lamports.
	Sol    uint64 `yaml:"sol"`
	Locked bool   `yaml:"locked"`
	Tier   uint8  `yaml:"tier"`
	Seed   string `yaml:"seed"`
	Slots  uint64 `yaml:"slots"`
	Paused bool   `yaml:"paused"`
	Buy    uint16 `yaml:"buy_bps"`
	Sell   uint16 `yaml:"sell_bps"`
	Bank   uint16 `yaml:"bank_bps"`
	Lock   uint16 `yaml:"locked_bps"`
	// Expect is the error code the step must fail with, e.g.
	// EMERGENCY_PAUSED. Empty means the step must succeed.
	Expect string `yaml:"expect"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every step is known and names declared wallets.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	wallets := map[string]bool{AuthorityWallet: true}
	for i, w := range s.Wallets {
		if w.Name == "" {
			return fmt.Errorf("wallet %d has no name", i)
		}
		if wallets[w.Name] {
			return fmt.Errorf("wallet %q declared twice", w.Name)
		}
		wallets[w.Name] = true
	}
	for i, st := range s.Steps {
		if !knownOps[st.Op] {
			return fmt.Errorf("step %d: unknown op %q", i, st.Op)
		}
		for _, name := range []string{st.Wallet, st.Target} {
			if name != "" && !wallets[name] {
				return fmt.Errorf("step %d (%s): unknown wallet %q", i, st.Op, name)
			}
		}
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, st.Op, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Op {
	case OpBuy, OpSell, OpBurn, OpEnter:
		if st.Wallet == "" {
			return fmt.Errorf("wallet is required")
		}
	case OpAddAdmin, OpRemoveAdmin, OpTransferMaster, OpTransferAuthority, OpIsAdmin:
		if st.Target == "" {
			return fmt.Errorf("target is required")
		}
	case OpAdvance:
		if st.Slots == 0 {
			return fmt.Errorf("slots must be positive")
		}
	}
	return nil
}

// expects reports whether code satisfies the step's expectation.
func (st Step) expects(code string) bool {
	return strings.EqualFold(strings.TrimSpace(st.Expect), code)
}
