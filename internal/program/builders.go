package program

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/address"
)

// Accounts names the caller-supplied keys of an instruction. Positions with a
// fixed address are filled in from the address book.
type Accounts map[string]solana.PublicKey

// Builder assembles program instructions on the client side.
type Builder struct {
	book     *address.Book
	registry *Registry
}

func NewBuilder(book *address.Book) *Builder {
	return &Builder{book: book, registry: DefaultRegistry()}
}

// Build encodes args behind the instruction discriminator and lays out the
// account metas in table order. extra metas are appended after the fixed
// accounts.
func (b *Builder) Build(name string, args any, accounts Accounts, extra ...*solana.AccountMeta) (*solana.GenericInstruction, error) {
	def, ok := b.registry.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown instruction %q", name)
	}

	data := def.Discriminator.Bytes()
	if args != nil {
		body, err := bin.MarshalBorsh(args)
		if err != nil {
			return nil, fmt.Errorf("encode %s args: %w", name, err)
		}
		data = append(data, body...)
	}

	metas := make(solana.AccountMetaSlice, 0, len(def.Accounts)+len(extra))
	for _, acct := range def.Accounts {
		var key solana.PublicKey
		if acct.Address != nil {
			key = acct.Address(b.book)
		} else if key, ok = accounts[acct.Name]; !ok {
			return nil, fmt.Errorf("%s: missing account %q", name, acct.Name)
		}
		metas = append(metas, solana.NewAccountMeta(key, acct.Writable, acct.Signer))
	}
	metas = append(metas, extra...)
	return solana.NewInstruction(b.book.ProgramID(), metas, data), nil
}

// AdminStateMeta is the optional trailing account that lets registered admins
// run privileged GlobalState instructions.
func (b *Builder) AdminStateMeta() *solana.AccountMeta {
	return solana.Meta(b.book.Admin.Address)
}

func (b *Builder) admin(withAdmin bool) []*solana.AccountMeta {
	if !withAdmin {
		return nil
	}
	return []*solana.AccountMeta{b.AdminStateMeta()}
}

func (b *Builder) Initialize(authority, mint solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionInitialize, nil, Accounts{"authority": authority, "tokenMint": mint})
}

func (b *Builder) BuyTokens(w WalletAccounts, solAmount uint64) (*solana.GenericInstruction, error) {
	return b.Build(InstructionBuyTokens, &BuyTokensArgs{SolAmount: solAmount}, Accounts{
		"user":             w.Owner,
		"userSolAccount":   w.Sol,
		"userTokenAccount": w.Token,
	})
}

func (b *Builder) SellTokens(w WalletAccounts, tokenAmount uint64) (*solana.GenericInstruction, error) {
	return b.Build(InstructionSellTokens, &SellTokensArgs{TokenAmount: tokenAmount}, Accounts{
		"user":             w.Owner,
		"userSolAccount":   w.Sol,
		"userTokenAccount": w.Token,
	})
}

func (b *Builder) BurnTokens(w WalletAccounts, amount uint64) (*solana.GenericInstruction, error) {
	return b.Build(InstructionBurnTokens, &BurnTokensArgs{Amount: amount}, Accounts{
		"user":             w.Owner,
		"userTokenAccount": w.Token,
	})
}

// AddLiquidity targets the bank pool, or the locked pool when locked is set.
func (b *Builder) AddLiquidity(w WalletAccounts, locked bool, tokenAmount, solAmount uint64, withAdmin bool) (*solana.GenericInstruction, error) {
	pool, solRes, tokenRes := b.book.BankPool, b.book.BankSolReserve, b.book.BankTokenReserve
	if locked {
		pool, solRes, tokenRes = b.book.LockedPool, b.book.LockedSolReserve, b.book.LockedTokenReserve
	}
	return b.Build(InstructionAddLiquidity, &AddLiquidityArgs{TokenAmount: tokenAmount, SolAmount: solAmount}, Accounts{
		"user":             w.Owner,
		"userTokenAccount": w.Token,
		"userSolAccount":   w.Sol,
		"lpPool":           pool.Address,
		"lpSolReserve":     solRes.Address,
		"lpTokenReserve":   tokenRes.Address,
	}, b.admin(withAdmin)...)
}

func (b *Builder) SyncDualLp(authority solana.PublicKey, tradingFees uint64, withAdmin bool) (*solana.GenericInstruction, error) {
	return b.Build(InstructionSyncDualLp, &SyncDualLpArgs{TradingFees: tradingFees}, Accounts{"authority": authority}, b.admin(withAdmin)...)
}

func (b *Builder) BootstrapPools(treasury WalletAccounts, solPerPool, tokensPerPool uint64, withAdmin bool) (*solana.GenericInstruction, error) {
	return b.Build(InstructionBootstrapPools, &BootstrapPoolsArgs{SolPerPool: solPerPool, TokensPerPool: tokensPerPool}, Accounts{
		"authority":            treasury.Owner,
		"treasurySolAccount":   treasury.Sol,
		"treasuryTokenAccount": treasury.Token,
	}, b.admin(withAdmin)...)
}

func (b *Builder) EnterLottery(w WalletAccounts, tier uint8) (*solana.GenericInstruction, error) {
	us, err := b.book.User(w.Owner)
	if err != nil {
		return nil, err
	}
	return b.Build(InstructionEnterLottery, &EnterLotteryArgs{EntryTier: tier}, Accounts{
		"userState":        us.Address,
		"user":             w.Owner,
		"userTokenAccount": w.Token,
	})
}

func (b *Builder) CommitDraw(authority solana.PublicKey, commitment [32]byte, withAdmin bool) (*solana.GenericInstruction, error) {
	return b.Build(InstructionCommitDraw, &CommitDrawArgs{Commitment: commitment}, Accounts{"authority": authority}, b.admin(withAdmin)...)
}

// DrawWinner lists every participant of round as a (userState, token account)
// pair. The optional admin state goes last.
func (b *Builder) DrawWinner(authority solana.PublicKey, seed [32]byte, round uint64, winnerTokenAccount solana.PublicKey, participants []WalletAccounts, withAdmin bool) (*solana.GenericInstruction, error) {
	result, err := b.book.Draw(round)
	if err != nil {
		return nil, err
	}
	extra := make([]*solana.AccountMeta, 0, 2*len(participants)+1)
	for _, w := range participants {
		us, err := b.book.User(w.Owner)
		if err != nil {
			return nil, err
		}
		extra = append(extra, solana.Meta(us.Address).WRITE(), solana.Meta(w.Token).WRITE())
	}
	extra = append(extra, b.admin(withAdmin)...)
	return b.Build(InstructionDrawWinner, &DrawWinnerArgs{Seed: seed}, Accounts{
		"authority":          authority,
		"winnerTokenAccount": winnerTokenAccount,
		"drawResult":         result.Address,
	}, extra...)
}

func (b *Builder) CancelDraw(authority solana.PublicKey, withAdmin bool) (*solana.GenericInstruction, error) {
	return b.Build(InstructionCancelDraw, nil, Accounts{"authority": authority}, b.admin(withAdmin)...)
}

func (b *Builder) UpdateTaxRates(authority solana.PublicKey, buyBps, sellBps uint16, withAdmin bool) (*solana.GenericInstruction, error) {
	return b.Build(InstructionUpdateTaxRates, &UpdateTaxRatesArgs{BuyTaxBps: buyBps, SellTaxBps: sellBps}, Accounts{"authority": authority}, b.admin(withAdmin)...)
}

func (b *Builder) UpdateLpSplit(authority solana.PublicKey, bankBps, lockedBps uint16, withAdmin bool) (*solana.GenericInstruction, error) {
	return b.Build(InstructionUpdateLpSplit, &UpdateLpSplitArgs{BankLpBps: bankBps, LockedLpBps: lockedBps}, Accounts{"authority": authority}, b.admin(withAdmin)...)
}

func (b *Builder) SetEmergencyPause(authority solana.PublicKey, paused, withAdmin bool) (*solana.GenericInstruction, error) {
	return b.Build(InstructionSetEmergencyPause, &SetEmergencyPauseArgs{Paused: paused}, Accounts{"authority": authority}, b.admin(withAdmin)...)
}

func (b *Builder) TransferAuthority(authority, next solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionTransferAuthority, &TransferAuthorityArgs{NewAuthority: next}, Accounts{"authority": authority})
}

func (b *Builder) InitializeAdmin(payer, master solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionInitializeAdmin, &InitializeAdminArgs{MasterAdmin: master}, Accounts{"authority": payer})
}

func (b *Builder) AddAdmin(master, admin solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionAddAdmin, &AdminArgs{Admin: admin}, Accounts{"master": master})
}

func (b *Builder) RemoveAdmin(master, admin solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionRemoveAdmin, &AdminArgs{Admin: admin}, Accounts{"master": master})
}

func (b *Builder) TransferMaster(master, next solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionTransferMaster, &TransferMasterArgs{NewMaster: next}, Accounts{"master": master})
}

func (b *Builder) EmergencyPause(master solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionEmergencyPause, nil, Accounts{"master": master})
}

func (b *Builder) Unpause(master solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionUnpause, nil, Accounts{"master": master})
}

func (b *Builder) IsAdmin(pubkey solana.PublicKey) (*solana.GenericInstruction, error) {
	return b.Build(InstructionIsAdmin, &IsAdminArgs{Pubkey: pubkey}, nil)
}
