// Package program is the instruction dispatcher of the SOF token program.
//
// Process takes a Solana instruction (program id, ordered account metas and
// anchor-encoded data), validates it against the instruction table and runs
// its handler inside one ledger transaction. ExecuteTransaction does the same
// for every instruction of a signed transaction, atomically. Committed
// receipts are handed to the configured processor chain.
package program

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/address"
	"github.com/lugondev/go-soflotto/internal/common"
	"github.com/lugondev/go-soflotto/internal/config"
	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/metrics"
	"github.com/lugondev/go-soflotto/internal/oracle"
	"github.com/lugondev/go-soflotto/internal/processor"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/token"
	"github.com/lugondev/go-soflotto/pkg/view"
)

// Params are the deployment parameters applied by initialize and consulted
// by handlers.
type Params struct {
	BuyTaxBps          uint16
	SellTaxBps         uint16
	BankLpBps          uint16
	LockedLpBps        uint16
	TokenDecimals      uint8
	RevealDelaySlots   uint64
	RevealTimeoutSlots uint64
}

// ParamsFromConfig extracts Params from the application config.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		BuyTaxBps:          cfg.Economics.BuyTaxBps,
		SellTaxBps:         cfg.Economics.SellTaxBps,
		BankLpBps:          cfg.Economics.BankLpBps,
		LockedLpBps:        cfg.Economics.LockedLpBps,
		TokenDecimals:      cfg.Program.TokenDecimals,
		RevealDelaySlots:   cfg.Lottery.RevealDelaySlots,
		RevealTimeoutSlots: cfg.Lottery.RevealTimeoutSlots,
	}
}

// Program executes instructions against a ledger.
type Program struct {
	common.LoggerMixin

	ledger   *ledger.Ledger
	book     *address.Book
	oracle   oracle.PriceOracle
	params   Params
	registry *Registry
	pipeline processor.Processor[*receipt.Receipt]
	metrics  *metrics.Collection
}

// Option configures a Program.
type Option func(*Program)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) { p.SetLogger(logger) }
}

// WithProcessors appends receipt processors. They run after commit, in order.
func WithProcessors(ps ...processor.Processor[*receipt.Receipt]) Option {
	return func(p *Program) {
		chain, ok := p.pipeline.(*processor.ChainedProcessor[*receipt.Receipt])
		if !ok {
			chain = processor.NewChainedProcessor[*receipt.Receipt]()
			p.pipeline = chain
		}
		for _, proc := range ps {
			chain.Add(proc)
		}
	}
}

// WithMetrics sets the collection passed to processors.
func WithMetrics(m *metrics.Collection) Option {
	return func(p *Program) { p.metrics = m }
}

// New creates a Program. The ledger's logger follows the program's.
func New(l *ledger.Ledger, book *address.Book, o oracle.PriceOracle, params Params, opts ...Option) *Program {
	p := &Program{
		LoggerMixin: common.NewLoggerMixin(),
		ledger:      l,
		book:        book,
		oracle:      o,
		params:      params,
		registry:    DefaultRegistry(),
		pipeline:    processor.NewNoopProcessor[*receipt.Receipt](),
		metrics:     metrics.NewCollection(),
	}
	for _, opt := range opts {
		opt(p)
	}
	l.SetLogger(p.GetLogger())
	return p
}

func (p *Program) Ledger() *ledger.Ledger     { return p.ledger }
func (p *Program) Book() *address.Book        { return p.book }
func (p *Program) ID() solana.PublicKey       { return p.book.ProgramID() }
func (p *Program) Registry() *Registry        { return p.registry }
func (p *Program) Oracle() oracle.PriceOracle { return p.oracle }
func (p *Program) Params() Params             { return p.params }

// call is one decoded instruction awaiting execution.
type call struct {
	programID solana.PublicKey
	metas     []*solana.AccountMeta
	data      []byte
}

// Process executes a single instruction. Signer flags on the account metas
// are trusted; use ExecuteTransaction to have them backed by signatures.
func (p *Program) Process(ctx context.Context, ix solana.Instruction) (*receipt.Receipt, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, errors.DecodeFailed("instruction data", err)
	}
	receipts, err := p.run(ctx, solana.Signature{}, []call{{
		programID: ix.ProgramID(),
		metas:     ix.Accounts(),
		data:      data,
	}})
	if len(receipts) == 0 {
		return nil, err
	}
	return receipts[0], err
}

// run executes calls as one ledger transaction. On failure every receipt up
// to and including the failing one is returned, marked failed.
func (p *Program) run(ctx context.Context, sig solana.Signature, calls []call) ([]*receipt.Receipt, error) {
	receipts := make([]*receipt.Receipt, 0, len(calls))
	start := time.Now()

	var sysvars ledger.Sysvars
	changes, err := p.ledger.Execute(ctx, func(tx *ledger.Txn) error {
		sysvars = tx.Sysvars()
		for i, c := range calls {
			r, err := p.dispatch(tx, i, c)
			receipts = append(receipts, r)
			if err != nil {
				return err
			}
		}
		return nil
	})

	elapsed := time.Since(start)
	ts := time.Unix(sysvars.UnixTimestamp, 0).UTC()
	for _, r := range receipts {
		r.Signature = sig
		r.Slot = sysvars.Slot
		r.Timestamp = ts
		r.Duration = elapsed
		if err != nil {
			r.Events = nil
			if r.Error == "" {
				r.Fail(errors.Wrap(err, "transaction rolled back"))
			}
		} else {
			r.Success = true
			r.Writes = len(changes)
		}
		if logErr := r.BuildLogs(); logErr != nil {
			p.GetLogger().Warn("failed to render receipt logs", "instruction", r.Instruction, "error", logErr)
		}
	}

	if err != nil {
		p.GetLogger().Debug("instruction failed", "slot", sysvars.Slot, "error", err)
		p.postProcess(ctx, receipts)
		return receipts, err
	}

	p.GetLogger().Debug("instructions committed", "slot", sysvars.Slot, "count", len(receipts), "writes", len(changes))
	p.postProcess(ctx, receipts)
	return receipts, nil
}

func (p *Program) postProcess(ctx context.Context, receipts []*receipt.Receipt) {
	for _, r := range receipts {
		if err := p.pipeline.Process(ctx, r, p.metrics); err != nil {
			p.GetLogger().Error("receipt processor failed", "receipt", r.ID, "instruction", r.Instruction, "error", err)
		}
	}
}

// dispatch validates one call and runs its handler.
func (p *Program) dispatch(tx *ledger.Txn, index int, c call) (*receipt.Receipt, error) {
	r := receipt.New(c.programID, "unknown", index, c.metas)

	fail := func(err error) (*receipt.Receipt, error) {
		r.Fail(err)
		return r, err
	}

	if !c.programID.Equals(p.ID()) {
		return fail(errors.ErrInvalidProgramID.WithDetails(map[string]any{"program": c.programID.String()}))
	}
	def, ok := p.registry.Lookup(c.data)
	if !ok {
		return fail(errors.ErrUnknownInstruction)
	}
	r.Instruction = def.Name

	args, err := decodeArgs(def, c.data)
	if err != nil {
		return fail(err)
	}
	if err := p.validateAccounts(def, c.metas); err != nil {
		return fail(err)
	}
	if err := p.checkFlags(tx, def); err != nil {
		return fail(err)
	}

	ex := &execution{
		program:   p,
		tx:        tx,
		bank:      token.NewBank(tx),
		def:       def,
		metas:     c.metas[:len(def.Accounts)],
		remaining: c.metas[len(def.Accounts):],
		args:      args,
		receipt:   r,
	}
	if err := def.handler(ex); err != nil {
		return fail(err)
	}
	return r, nil
}

// checkFlags reads the GlobalState flags in place, without a full decode.
func (p *Program) checkFlags(tx *ledger.Txn, def *Definition) error {
	if !def.Has(RequiresInit) && !def.Has(Pausable) {
		return nil
	}
	raw, ok := tx.Get(p.book.State.Address)
	if !ok {
		return errors.ErrNotInitialized
	}
	v, err := view.NewGlobalStateView(raw.Data)
	if err != nil || !v.IsInitialized() {
		return errors.ErrNotInitialized
	}
	if def.Has(Pausable) && v.IsEmergencyPaused() {
		return errors.ErrEmergencyPaused
	}
	return nil
}
