package scenario

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/common"
	"github.com/lugondev/go-soflotto/internal/config"
	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/lottery"
	"github.com/lugondev/go-soflotto/internal/program"
	"github.com/lugondev/go-soflotto/internal/receipt"
	solclient "github.com/lugondev/go-soflotto/internal/solana"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/internal/token"
)

const defaultLpSol = 1_000 * solana.LAMPORTS_PER_SOL

// StepResult is the outcome of one step. Err is set only when the step did
// not behave as the scenario expected.
type StepResult struct {
	Index    int
	Op       Op
	Receipts []*receipt.Receipt
	Code     string
	Err      error
}

// Report summarizes a run.
type Report struct {
	Name     string
	Mint     solana.PublicKey
	Steps    []StepResult
	Final    *state.GlobalState
	Balances map[string]uint64
	Elapsed  time.Duration
}

// Failed returns the steps that did not behave as expected.
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

type wallet struct {
	key      *solclient.Wallet
	accounts program.WalletAccounts
}

// Runner executes scenarios against a freshly deployed program.
type Runner struct {
	common.LoggerMixin

	prog    *program.Program
	b       *program.Builder
	cfg     *config.Config
	mint    solana.PublicKey
	signed  bool
	wallets map[string]*wallet
	// entered tracks the participants of the open round.
	entered map[string]bool
	seed    *[32]byte
}

// NewRunner prepares a runner for prog, which must sit on an empty ledger.
func NewRunner(prog *program.Program, cfg *config.Config, logger *slog.Logger) *Runner {
	r := &Runner{
		LoggerMixin: common.NewLoggerMixin(),
		prog:        prog,
		b:           program.NewBuilder(prog.Book()),
		cfg:         cfg,
		wallets:     make(map[string]*wallet),
		entered:     make(map[string]bool),
	}
	if logger != nil {
		r.SetLogger(logger)
	}
	return r
}

// Run deploys the program, funds the declared wallets and executes every
// step. A step that misbehaves is recorded in the report and stops the run.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	start := time.Now()
	if err := r.deploy(ctx, sc); err != nil {
		return nil, err
	}
	r.signed = sc.Signed

	report := &Report{Name: sc.Name, Mint: r.mint}
	for i, st := range sc.Steps {
		res := r.step(ctx, i, st)
		report.Steps = append(report.Steps, res)
		if res.Err != nil {
			r.GetLogger().Error("step failed", "index", i, "op", st.Op, "error", res.Err)
			break
		}
		r.GetLogger().Debug("step done", "index", i, "op", st.Op, "code", res.Code)
	}

	final, err := r.globalState()
	if err != nil {
		return nil, err
	}
	report.Final = final
	report.Balances = r.balances()
	report.Elapsed = time.Since(start)
	return report, nil
}

func (r *Runner) deploy(ctx context.Context, sc *Scenario) error {
	econ := r.cfg.Economics
	r.mint = solana.NewWallet().PublicKey()
	lpSol := sc.LpSol
	if lpSol == 0 {
		lpSol = defaultLpSol
	}
	if err := r.prog.Genesis(ctx, program.Genesis{
		Mint:     r.mint,
		Decimals: r.cfg.Program.TokenDecimals,
		Supply:   r.cfg.Program.InitialSupply,
		LpSol:    lpSol,
	}); err != nil {
		return err
	}

	// The authority can bootstrap both pools out of the box.
	specs := append([]WalletSpec{{
		Name:     AuthorityWallet,
		Lamports: 2*econ.BootstrapSol + 10*solana.LAMPORTS_PER_SOL,
		Tokens:   2 * econ.BootstrapTokens,
	}}, sc.Wallets...)
	for _, ws := range specs {
		key := solclient.NewWallet()
		accounts, err := r.prog.Airdrop(ctx, key.PublicKey(), r.mint, ws.Lamports, ws.Tokens)
		if err != nil {
			return fmt.Errorf("fund wallet %s: %w", ws.Name, err)
		}
		r.wallets[ws.Name] = &wallet{key: key, accounts: accounts}
		r.GetLogger().Debug("wallet funded", "name", ws.Name, "owner", key.PublicKey(), "lamports", ws.Lamports, "tokens", ws.Tokens)
	}
	return nil
}

func (r *Runner) step(ctx context.Context, i int, st Step) StepResult {
	res := StepResult{Index: i, Op: st.Op}

	if st.Op == OpAdvance {
		r.prog.Ledger().AdvanceSlots(st.Slots)
		return res
	}

	ix, err := r.instruction(st)
	if err != nil {
		res.Err = err
		return res
	}
	receipts, execErr := r.submit(ctx, ix)
	res.Receipts = receipts
	if execErr != nil {
		res.Code = errors.CodeOf(execErr)
	}

	switch {
	case st.Expect == "" && execErr != nil:
		res.Err = execErr
	case st.Expect != "" && execErr == nil:
		res.Err = fmt.Errorf("expected %s, step succeeded", st.Expect)
	case st.Expect != "" && !st.expects(res.Code):
		res.Err = fmt.Errorf("expected %s, got %s: %w", st.Expect, res.Code, execErr)
	case execErr == nil:
		r.afterCommit(st)
	}
	return res
}

// afterCommit tracks round membership and the pending seed for the next
// draw.
func (r *Runner) afterCommit(st Step) {
	switch st.Op {
	case OpEnter:
		r.entered[st.Wallet] = true
	case OpCommit:
		seed := r.seedFor(st)
		r.seed = &seed
	case OpDraw:
		r.entered = make(map[string]bool)
		r.seed = nil
	case OpCancel:
		r.seed = nil
	}
}

func (r *Runner) actor(st Step) (*wallet, bool) {
	name := st.Wallet
	if name == "" {
		name = AuthorityWallet
	}
	return r.wallets[name], name != AuthorityWallet
}

func (r *Runner) instruction(st Step) (*solana.GenericInstruction, error) {
	w, delegated := r.actor(st)
	owner := w.key.PublicKey()
	var target solana.PublicKey
	if st.Target != "" {
		target = r.wallets[st.Target].key.PublicKey()
	}
	econ := r.cfg.Economics

	switch st.Op {
	case OpInitialize:
		return r.b.Initialize(owner, r.mint)
	case OpBootstrap:
		sol, tokens := st.Sol, st.Amount
		if sol == 0 {
			sol = econ.BootstrapSol
		}
		if tokens == 0 {
			tokens = econ.BootstrapTokens
		}
		return r.b.BootstrapPools(w.accounts, sol, tokens, delegated)
	case OpBuy:
		return r.b.BuyTokens(w.accounts, st.Amount)
	case OpSell:
		return r.b.SellTokens(w.accounts, st.Amount)
	case OpBurn:
		return r.b.BurnTokens(w.accounts, st.Amount)
	case OpAddLiquidity:
		return r.b.AddLiquidity(w.accounts, st.Locked, st.Amount, st.Sol, delegated)
	case OpSync:
		return r.b.SyncDualLp(owner, st.Amount, delegated)
	case OpEnter:
		return r.b.EnterLottery(w.accounts, st.Tier)
	case OpCommit:
		return r.b.CommitDraw(owner, lottery.Commitment(r.seedFor(st)), delegated)
	case OpDraw:
		return r.drawInstruction(st, owner, delegated)
	case OpCancel:
		return r.b.CancelDraw(owner, delegated)
	case OpSetTax:
		return r.b.UpdateTaxRates(owner, st.Buy, st.Sell, delegated)
	case OpSetSplit:
		return r.b.UpdateLpSplit(owner, st.Bank, st.Lock, delegated)
	case OpPause:
		return r.b.SetEmergencyPause(owner, st.Paused, delegated)
	case OpTransferAuthority:
		return r.b.TransferAuthority(owner, target)
	case OpInitAdmin:
		master := owner
		if st.Target != "" {
			master = target
		}
		return r.b.InitializeAdmin(owner, master)
	case OpAddAdmin:
		return r.b.AddAdmin(owner, target)
	case OpRemoveAdmin:
		return r.b.RemoveAdmin(owner, target)
	case OpTransferMaster:
		return r.b.TransferMaster(owner, target)
	case OpAdminPause:
		return r.b.EmergencyPause(owner)
	case OpAdminUnpause:
		return r.b.Unpause(owner)
	case OpIsAdmin:
		return r.b.IsAdmin(target)
	}
	return nil, fmt.Errorf("unknown op %q", st.Op)
}

// seedFor hashes the step's seed phrase, or the round number when none is
// given.
func (r *Runner) seedFor(st Step) [32]byte {
	phrase := st.Seed
	if phrase == "" {
		round := uint64(0)
		if gs, err := r.globalState(); err == nil {
			round = gs.CurrentRound
		}
		phrase = fmt.Sprintf("round-%d", round)
	}
	return sha256.Sum256([]byte(phrase))
}

func (r *Runner) drawInstruction(st Step, authority solana.PublicKey, delegated bool) (*solana.GenericInstruction, error) {
	gs, err := r.globalState()
	if err != nil {
		return nil, err
	}
	var seed [32]byte
	switch {
	case st.Seed != "":
		seed = sha256.Sum256([]byte(st.Seed))
	case r.seed != nil:
		seed = *r.seed
	}

	names := make([]string, 0, len(r.entered))
	for name := range r.entered {
		names = append(names, name)
	}
	sort.Strings(names)
	participants := make([]program.WalletAccounts, 0, len(names))
	for _, name := range names {
		participants = append(participants, r.wallets[name].accounts)
	}
	// Payouts follow the drawn holders; this slot only has to hold a
	// token account of the mint.
	winnerToken := r.wallets[AuthorityWallet].accounts.Token
	if len(participants) > 0 {
		winnerToken = participants[0].Token
	}
	return r.b.DrawWinner(authority, seed, gs.CurrentRound, winnerToken, participants, delegated)
}

func (r *Runner) submit(ctx context.Context, ix *solana.GenericInstruction) ([]*receipt.Receipt, error) {
	if !r.signed {
		rc, err := r.prog.Process(ctx, ix)
		if rc == nil {
			return nil, err
		}
		return []*receipt.Receipt{rc}, err
	}

	payer := r.wallets[AuthorityWallet].key.PublicKey()
	for _, m := range ix.Accounts() {
		if m.IsSigner {
			payer = m.PublicKey
			break
		}
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, r.prog.Ledger().LatestBlockhash(), solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	if _, err := tx.Sign(r.signer); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return r.prog.ExecuteTransaction(ctx, tx)
}

func (r *Runner) signer(key solana.PublicKey) *solana.PrivateKey {
	for _, w := range r.wallets {
		if pk := w.key.Signer(key); pk != nil {
			return pk
		}
	}
	return nil
}

func (r *Runner) globalState() (*state.GlobalState, error) {
	raw, ok := r.prog.Ledger().Get(r.prog.Book().State.Address)
	if !ok {
		return &state.GlobalState{}, nil
	}
	var gs state.GlobalState
	if err := state.Decode(raw.Data, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// balances reports the token balance of every wallet.
func (r *Runner) balances() map[string]uint64 {
	out := make(map[string]uint64, len(r.wallets))
	for name, w := range r.wallets {
		raw, ok := r.prog.Ledger().Get(w.accounts.Token)
		if !ok {
			continue
		}
		acc, err := token.DecodeAccount(raw.Data)
		if err != nil {
			continue
		}
		out[name] = acc.Amount
	}
	return out
}

// Wallet returns the accounts of a named wallet.
func (r *Runner) Wallet(name string) (program.WalletAccounts, bool) {
	w, ok := r.wallets[name]
	if !ok {
		return program.WalletAccounts{}, false
	}
	return w.accounts, true
}
