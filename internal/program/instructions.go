package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/address"
	"github.com/lugondev/go-soflotto/internal/token"
	"github.com/lugondev/go-soflotto/pkg/discriminator"
)

// Instruction names. Discriminators are sha256("global:" + snake_case)[:8].
const (
	InstructionInitialize        = "initialize"
	InstructionBuyTokens         = "buyTokens"
	InstructionSellTokens        = "sellTokens"
	InstructionAddLiquidity      = "addLiquidity"
	InstructionBurnTokens        = "burnTokens"
	InstructionSyncDualLp        = "syncDualLp"
	InstructionEnterLottery      = "enterLottery"
	InstructionCommitDraw        = "commitDraw"
	InstructionDrawWinner        = "drawWinner"
	InstructionCancelDraw        = "cancelDraw"
	InstructionUpdateTaxRates    = "updateTaxRates"
	InstructionUpdateLpSplit     = "updateLpSplit"
	InstructionBootstrapPools    = "bootstrapPools"
	InstructionSetEmergencyPause = "setEmergencyPause"
	InstructionTransferAuthority = "transferAuthority"
	InstructionInitializeAdmin   = "initializeAdmin"
	InstructionAddAdmin          = "addAdmin"
	InstructionRemoveAdmin       = "removeAdmin"
	InstructionTransferMaster    = "transferMaster"
	InstructionEmergencyPause    = "emergencyPause"
	InstructionUnpause           = "unpause"
	InstructionIsAdmin           = "isAdmin"
)

type BuyTokensArgs struct {
	SolAmount uint64
}

type SellTokensArgs struct {
	TokenAmount uint64
}

type AddLiquidityArgs struct {
	TokenAmount uint64
	SolAmount   uint64
}

type BurnTokensArgs struct {
	Amount uint64
}

type SyncDualLpArgs struct {
	TradingFees uint64
}

type EnterLotteryArgs struct {
	EntryTier uint8
}

type CommitDrawArgs struct {
	Commitment [32]byte
}

type DrawWinnerArgs struct {
	Seed [32]byte
}

type UpdateTaxRatesArgs struct {
	BuyTaxBps  uint16
	SellTaxBps uint16
}

type UpdateLpSplitArgs struct {
	BankLpBps   uint16
	LockedLpBps uint16
}

type BootstrapPoolsArgs struct {
	SolPerPool    uint64
	TokensPerPool uint64
}

type SetEmergencyPauseArgs struct {
	Paused bool
}

type TransferAuthorityArgs struct {
	NewAuthority solana.PublicKey
}

type InitializeAdminArgs struct {
	MasterAdmin solana.PublicKey
}

type AdminArgs struct {
	Admin solana.PublicKey
}

type TransferMasterArgs struct {
	NewMaster solana.PublicKey
}

type IsAdminArgs struct {
	Pubkey solana.PublicKey
}

// ArgField describes one argument for the IDL.
type ArgField struct {
	Name string
	Type string
}

// AccountSpec is one fixed position of an instruction's account list.
type AccountSpec struct {
	Name     string
	Signer   bool
	Writable bool
	// Address, when set, is the only key accepted at this position.
	Address func(b *address.Book) solana.PublicKey
	// Program marks a position that must hold a known program id.
	Program bool
}

// Flags gate an instruction on GlobalState before its handler runs.
type Flags uint8

const (
	// RequiresInit rejects the instruction until GlobalState is initialized.
	RequiresInit Flags = 1 << iota
	// Pausable rejects the instruction while the program is paused.
	Pausable
	// AcceptsAdminState allows an optional trailing adminState account.
	AcceptsAdminState
)

// Definition is the static description of an instruction.
type Definition struct {
	Name          string
	Discriminator discriminator.Discriminator
	Accounts      []AccountSpec
	Args          []ArgField
	Flags         Flags
	newArgs       func() any
	handler       handlerFunc
}

func (d *Definition) Has(f Flags) bool { return d.Flags&f != 0 }

func fixed(f func(b *address.Book) address.Derived) func(b *address.Book) solana.PublicKey {
	return func(b *address.Book) solana.PublicKey { return f(b).Address }
}

func constKey(k solana.PublicKey) func(*address.Book) solana.PublicKey {
	return func(*address.Book) solana.PublicKey { return k }
}

func acc(name string) AccountSpec { return AccountSpec{Name: name} }

func (a AccountSpec) w() AccountSpec { a.Writable = true; return a }
func (a AccountSpec) s() AccountSpec { a.Signer = true; return a }
func (a AccountSpec) at(f func(b *address.Book) address.Derived) AccountSpec {
	a.Address = fixed(f)
	return a
}

func programAcc(name string, id solana.PublicKey) AccountSpec {
	return AccountSpec{Name: name, Address: constKey(id), Program: true}
}

var (
	specState            = acc("state").w().at(func(b *address.Book) address.Derived { return b.State })
	specAdminState       = acc("adminState").w().at(func(b *address.Book) address.Derived { return b.Admin })
	specLpSolPool        = acc("lpSolPool").w().at(func(b *address.Book) address.Derived { return b.LpSolPool })
	specFeeCollector     = acc("feeCollector").w().at(func(b *address.Book) address.Derived { return b.FeeCollector })
	specTokenVault       = acc("tokenVault").w().at(func(b *address.Book) address.Derived { return b.TokenVault })
	specLotteryPool      = acc("lotteryPool").w().at(func(b *address.Book) address.Derived { return b.LotteryPool })
	specRewardsPool      = acc("rewardsPool").w().at(func(b *address.Book) address.Derived { return b.RewardsPool })
	specBurnAccount      = acc("burnAccount").w().at(func(b *address.Book) address.Derived { return b.Burn })
	specTokenAuthority   = acc("tokenAuthority").at(func(b *address.Book) address.Derived { return b.TokenAuthority })
	specLpAuthority      = acc("lpAuthority").at(func(b *address.Book) address.Derived { return b.LpAuthority })
	specLotteryAuthority = acc("lotteryAuthority").at(func(b *address.Book) address.Derived { return b.LotteryAuthority })
	specTokenProgram     = programAcc("tokenProgram", token.ProgramID)
	specSystemProgram    = programAcc("systemProgram", solana.SystemProgramID)
)

// Definitions is the instruction table in IDL order.
var Definitions = []*Definition{
	{
		Name: InstructionInitialize,
		Accounts: []AccountSpec{
			specState,
			acc("authority").s().w(),
			acc("tokenMint"),
			specSystemProgram,
		},
		handler: handleInitialize,
	},
	{
		Name: InstructionBuyTokens,
		Accounts: []AccountSpec{
			specState,
			acc("user").s().w(),
			acc("userSolAccount").w(),
			acc("userTokenAccount").w(),
			specLpSolPool,
			specFeeCollector,
			specTokenVault,
			specTokenAuthority,
			specTokenProgram,
			specLotteryPool,
		},
		Args:    []ArgField{{"solAmount", "u64"}},
		Flags:   RequiresInit | Pausable,
		newArgs: func() any { return &BuyTokensArgs{} },
		handler: handleBuyTokens,
	},
	{
		Name: InstructionSellTokens,
		Accounts: []AccountSpec{
			specState,
			acc("user").s().w(),
			acc("userTokenAccount").w(),
			acc("userSolAccount").w(),
			specLpSolPool,
			specFeeCollector,
			specTokenVault,
			specLpAuthority,
			specTokenProgram,
			specLotteryPool,
		},
		Args:    []ArgField{{"tokenAmount", "u64"}},
		Flags:   RequiresInit | Pausable,
		newArgs: func() any { return &SellTokensArgs{} },
		handler: handleSellTokens,
	},
	{
		Name: InstructionAddLiquidity,
		Accounts: []AccountSpec{
			specState,
			acc("user").s().w(),
			acc("userTokenAccount").w(),
			acc("userSolAccount").w(),
			acc("lpPool").w(),
			acc("lpSolReserve").w(),
			specTokenProgram,
			acc("lpTokenReserve").w(),
		},
		Args:    []ArgField{{"tokenAmount", "u64"}, {"solAmount", "u64"}},
		Flags:   RequiresInit | AcceptsAdminState,
		newArgs: func() any { return &AddLiquidityArgs{} },
		handler: handleAddLiquidity,
	},
	{
		Name: InstructionBurnTokens,
		Accounts: []AccountSpec{
			specState,
			acc("user").s().w(),
			acc("userTokenAccount").w(),
			specBurnAccount,
			specTokenProgram,
		},
		Args:    []ArgField{{"amount", "u64"}},
		Flags:   RequiresInit | Pausable,
		newArgs: func() any { return &BurnTokensArgs{} },
		handler: handleBurnTokens,
	},
	{
		Name: InstructionSyncDualLp,
		Accounts: []AccountSpec{
			specState,
			acc("authority").s(),
			acc("mainLpPool").w().at(func(b *address.Book) address.Derived { return b.BankPool }),
			acc("secondaryLpPool").w().at(func(b *address.Book) address.Derived { return b.LockedPool }),
			specFeeCollector,
			specLpAuthority,
			specTokenProgram,
			acc("bankTokenReserve").w().at(func(b *address.Book) address.Derived { return b.BankTokenReserve }),
			acc("lockedTokenReserve").w().at(func(b *address.Book) address.Derived { return b.LockedTokenReserve }),
		},
		Args:    []ArgField{{"tradingFees", "u64"}},
		Flags:   RequiresInit | AcceptsAdminState,
		newArgs: func() any { return &SyncDualLpArgs{} },
		handler: handleSyncDualLp,
	},
	{
		Name: InstructionEnterLottery,
		Accounts: []AccountSpec{
			specState,
			acc("userState").w(),
			acc("user").s().w(),
			acc("userTokenAccount").w(),
			specLotteryPool,
			specTokenProgram,
			specSystemProgram,
		},
		Args:    []ArgField{{"entryTier", "u8"}},
		Flags:   RequiresInit | Pausable,
		newArgs: func() any { return &EnterLotteryArgs{} },
		handler: handleEnterLottery,
	},
	{
		Name:     InstructionCommitDraw,
		Accounts: []AccountSpec{specState, acc("authority").s()},
		Args:     []ArgField{{"commitment", "[u8; 32]"}},
		Flags:    RequiresInit | AcceptsAdminState,
		newArgs:  func() any { return &CommitDrawArgs{} },
		handler:  handleCommitDraw,
	},
	{
		Name: InstructionDrawWinner,
		Accounts: []AccountSpec{
			specState,
			acc("authority").s(),
			specLotteryPool,
			acc("winnerTokenAccount").w(),
			specLotteryAuthority,
			specTokenProgram,
			acc("drawResult").w(),
			specRewardsPool,
		},
		Args:    []ArgField{{"seed", "[u8; 32]"}},
		Flags:   RequiresInit | AcceptsAdminState,
		newArgs: func() any { return &DrawWinnerArgs{} },
		handler: handleDrawWinner,
	},
	{
		Name:     InstructionCancelDraw,
		Accounts: []AccountSpec{specState, acc("authority").s()},
		Flags:    RequiresInit | AcceptsAdminState,
		handler:  handleCancelDraw,
	},
	{
		Name:     InstructionUpdateTaxRates,
		Accounts: []AccountSpec{specState, acc("authority").s()},
		Args:     []ArgField{{"buyTaxBps", "u16"}, {"sellTaxBps", "u16"}},
		Flags:    RequiresInit | AcceptsAdminState,
		newArgs:  func() any { return &UpdateTaxRatesArgs{} },
		handler:  handleUpdateTaxRates,
	},
	{
		Name:     InstructionUpdateLpSplit,
		Accounts: []AccountSpec{specState, acc("authority").s()},
		Args:     []ArgField{{"bankLpBps", "u16"}, {"lockedLpBps", "u16"}},
		Flags:    RequiresInit | AcceptsAdminState,
		newArgs:  func() any { return &UpdateLpSplitArgs{} },
		handler:  handleUpdateLpSplit,
	},
	{
		Name: InstructionBootstrapPools,
		Accounts: []AccountSpec{
			specState,
			acc("authority").s().w(),
			acc("treasurySolAccount").w(),
			acc("treasuryTokenAccount").w(),
			acc("bankPool").w().at(func(b *address.Book) address.Derived { return b.BankPool }),
			acc("lockedPool").w().at(func(b *address.Book) address.Derived { return b.LockedPool }),
			acc("bankSolReserve").w().at(func(b *address.Book) address.Derived { return b.BankSolReserve }),
			acc("bankTokenReserve").w().at(func(b *address.Book) address.Derived { return b.BankTokenReserve }),
			acc("lockedSolReserve").w().at(func(b *address.Book) address.Derived { return b.LockedSolReserve }),
			acc("lockedTokenReserve").w().at(func(b *address.Book) address.Derived { return b.LockedTokenReserve }),
			specTokenProgram,
			specSystemProgram,
		},
		Args:    []ArgField{{"solPerPool", "u64"}, {"tokensPerPool", "u64"}},
		Flags:   RequiresInit | AcceptsAdminState,
		newArgs: func() any { return &BootstrapPoolsArgs{} },
		handler: handleBootstrapPools,
	},
	{
		Name:     InstructionSetEmergencyPause,
		Accounts: []AccountSpec{specState, acc("authority").s()},
		Args:     []ArgField{{"paused", "bool"}},
		Flags:    RequiresInit | AcceptsAdminState,
		newArgs:  func() any { return &SetEmergencyPauseArgs{} },
		handler:  handleSetEmergencyPause,
	},
	{
		Name:     InstructionTransferAuthority,
		Accounts: []AccountSpec{specState, acc("authority").s()},
		Args:     []ArgField{{"newAuthority", "publicKey"}},
		Flags:    RequiresInit,
		newArgs:  func() any { return &TransferAuthorityArgs{} },
		handler:  handleTransferAuthority,
	},
	{
		Name:     InstructionInitializeAdmin,
		Accounts: []AccountSpec{specAdminState, acc("authority").s().w(), specSystemProgram},
		Args:     []ArgField{{"masterAdmin", "publicKey"}},
		newArgs:  func() any { return &InitializeAdminArgs{} },
		handler:  handleInitializeAdmin,
	},
	{
		Name:     InstructionAddAdmin,
		Accounts: []AccountSpec{specAdminState, acc("master").s()},
		Args:     []ArgField{{"admin", "publicKey"}},
		newArgs:  func() any { return &AdminArgs{} },
		handler:  handleAddAdmin,
	},
	{
		Name:     InstructionRemoveAdmin,
		Accounts: []AccountSpec{specAdminState, acc("master").s()},
		Args:     []ArgField{{"admin", "publicKey"}},
		newArgs:  func() any { return &AdminArgs{} },
		handler:  handleRemoveAdmin,
	},
	{
		Name:     InstructionTransferMaster,
		Accounts: []AccountSpec{specAdminState, acc("master").s()},
		Args:     []ArgField{{"newMaster", "publicKey"}},
		newArgs:  func() any { return &TransferMasterArgs{} },
		handler:  handleTransferMaster,
	},
	{
		Name:     InstructionEmergencyPause,
		Accounts: []AccountSpec{specAdminState, acc("master").s()},
		handler:  handleEmergencyPause,
	},
	{
		Name:     InstructionUnpause,
		Accounts: []AccountSpec{specAdminState, acc("master").s()},
		handler:  handleUnpause,
	},
	{
		Name:     InstructionIsAdmin,
		Accounts: []AccountSpec{acc("adminState").at(func(b *address.Book) address.Derived { return b.Admin })},
		Args:     []ArgField{{"pubkey", "publicKey"}},
		newArgs:  func() any { return &IsAdminArgs{} },
		handler:  handleIsAdmin,
	},
}

// Registry maps discriminators to instruction definitions.
type Registry struct {
	byName  map[string]*Definition
	matcher *discriminator.Matcher
	ordered []*Definition
}

// NewRegistry indexes defs, filling in each discriminator.
func NewRegistry(defs []*Definition) *Registry {
	r := &Registry{
		byName:  make(map[string]*Definition, len(defs)),
		matcher: discriminator.NewMatcher(),
		ordered: make([]*Definition, 0, len(defs)),
	}
	for _, d := range defs {
		d.Discriminator = discriminator.Instruction(d.Name)
		r.byName[d.Name] = d
		r.matcher.Add(d.Discriminator)
		r.ordered = append(r.ordered, d)
	}
	return r
}

// Lookup finds the definition for instruction data.
func (r *Registry) Lookup(data []byte) (*Definition, bool) {
	i := r.matcher.MatchData(data)
	if i < 0 {
		return nil, false
	}
	return r.ordered[i], true
}

func (r *Registry) ByName(name string) (*Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns the definitions in table order.
func (r *Registry) All() []*Definition {
	return r.ordered
}

var defaultRegistry = NewRegistry(Definitions)

// DefaultRegistry returns the registry of the built-in instruction table.
func DefaultRegistry() *Registry { return defaultRegistry }
