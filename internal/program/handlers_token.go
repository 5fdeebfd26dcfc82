package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/pool"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/internal/tax"
)

type handlerFunc func(e *execution) error

func addU64(dst *uint64, v uint64) error {
	if *dst+v < *dst {
		return errors.ErrArithmeticOverflow
	}
	*dst += v
	return nil
}

func subU64(dst *uint64, v uint64) error {
	if *dst < v {
		return errors.ErrArithmeticOverflow
	}
	*dst -= v
	return nil
}

func handleInitialize(e *execution) error {
	book := e.program.book
	params := e.program.params

	var gs state.GlobalState
	ok, err := e.load(book.State.Address, &gs)
	if err != nil {
		return err
	}
	if ok && gs.IsInitialized {
		return errors.ErrAlreadyInitialized
	}

	mintKey := e.key(2)
	mint, err := e.bank.Mint(mintKey)
	if err != nil {
		return err
	}
	if mint.MintAuthority == nil || !mint.MintAuthority.Equals(book.TokenAuthority.Address) {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{
			"account": mintKey.String(),
			"reason":  "mint authority is not the program token authority",
		})
	}
	if err := tax.ValidateRate(params.BuyTaxBps); err != nil {
		return err
	}
	if err := tax.ValidateRate(params.SellTaxBps); err != nil {
		return err
	}
	if err := pool.ValidateSplit(params.BankLpBps, params.LockedLpBps); err != nil {
		return err
	}

	gs = state.GlobalState{
		Authority:     e.key(1),
		IsInitialized: true,
		Bump:          book.State.Bump,
		TokenMint:     mintKey,
		TotalSupply:   mint.Supply,
		BuyTaxBps:     params.BuyTaxBps,
		SellTaxBps:    params.SellTaxBps,
		BankLpBps:     params.BankLpBps,
		LockedLpBps:   params.LockedLpBps,
	}
	if err := e.saveGlobalState(&gs); err != nil {
		return err
	}
	e.emit(receipt.Initialized{Authority: gs.Authority, TokenMint: mintKey, TotalSupply: gs.TotalSupply})
	return nil
}

// recordTrade books the tax and burn of one trade on GlobalState.
func recordTrade(gs *state.GlobalState, d tax.Deductions, split tax.Split) error {
	if err := addU64(&gs.BurnedTokens, d.Burn); err != nil {
		return err
	}
	if err := subU64(&gs.TotalSupply, d.Burn); err != nil {
		return err
	}
	if err := addU64(&gs.TotalTaxCollected, d.Tax); err != nil {
		return err
	}
	if err := addU64(&gs.PendingLpFees, split.LpShare); err != nil {
		return err
	}
	return addU64(&gs.JackpotAmount, split.JackpotShare)
}

type transfer struct {
	to     solana.PublicKey
	amount uint64
}

func (e *execution) transferAll(from, authority solana.PublicKey, ts ...transfer) error {
	for _, t := range ts {
		if err := e.bank.Transfer(from, t.to, authority, t.amount); err != nil {
			return err
		}
	}
	return nil
}

func handleBuyTokens(e *execution) error {
	args := e.args.(*BuyTokensArgs)
	book := e.program.book

	gs, err := e.globalState()
	if err != nil {
		return err
	}
	user, userSol, userToken := e.key(1), e.key(2), e.key(3)
	if _, err := e.tokenAccount(userSol, solana.SolMint, user); err != nil {
		return err
	}
	if _, err := e.tokenAccount(userToken, gs.TokenMint, user); err != nil {
		return err
	}

	q, err := tax.QuoteBuy(args.SolAmount, e.program.oracle.TokensPerSol(), gs.BuyTaxBps)
	if err != nil {
		return err
	}
	split := tax.SplitTax(q.Tax)

	if err := e.bank.Transfer(userSol, book.LpSolPool.Address, user, q.SolIn); err != nil {
		return err
	}
	vault, authority := book.TokenVault.Address, book.TokenAuthority.Address
	if err := e.transferAll(vault, authority,
		transfer{userToken, q.Net},
		transfer{book.FeeCollector.Address, split.LpShare},
		transfer{book.LotteryPool.Address, split.JackpotShare},
	); err != nil {
		return err
	}
	if err := e.bank.Burn(vault, gs.TokenMint, authority, q.Burn); err != nil {
		return err
	}
	if err := recordTrade(gs, q.Deductions, split); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}

	e.emit(receipt.BuyExecuted{
		User:         user,
		SolIn:        q.SolIn,
		Gross:        q.Gross,
		Tax:          q.Tax,
		Burn:         q.Burn,
		Net:          q.Net,
		LpShare:      split.LpShare,
		JackpotShare: split.JackpotShare,
	})
	return nil
}

func handleSellTokens(e *execution) error {
	args := e.args.(*SellTokensArgs)
	book := e.program.book

	gs, err := e.globalState()
	if err != nil {
		return err
	}
	user, userToken, userSol := e.key(1), e.key(2), e.key(3)
	held, err := e.tokenAccount(userToken, gs.TokenMint, user)
	if err != nil {
		return err
	}
	if _, err := e.tokenAccount(userSol, solana.SolMint, user); err != nil {
		return err
	}

	q, err := tax.QuoteSell(args.TokenAmount, e.program.oracle.TokensPerSol(), gs.SellTaxBps)
	if err != nil {
		return err
	}
	if held.Amount < q.TokensIn {
		return errors.ErrInsufficientFunds.WithDetails(map[string]any{"balance": held.Amount, "required": q.TokensIn})
	}
	split := tax.SplitTax(q.Tax)

	if err := e.transferAll(userToken, user,
		transfer{book.TokenVault.Address, q.Net},
		transfer{book.FeeCollector.Address, split.LpShare},
		transfer{book.LotteryPool.Address, split.JackpotShare},
	); err != nil {
		return err
	}
	if err := e.bank.Burn(userToken, gs.TokenMint, user, q.Burn); err != nil {
		return err
	}
	if err := e.bank.Transfer(book.LpSolPool.Address, userSol, book.LpAuthority.Address, q.SolOut); err != nil {
		return err
	}
	if err := recordTrade(gs, q.Deductions, split); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}

	e.emit(receipt.SellExecuted{
		User:         user,
		TokensIn:     q.TokensIn,
		Tax:          q.Tax,
		Burn:         q.Burn,
		Net:          q.Net,
		SolOut:       q.SolOut,
		LpShare:      split.LpShare,
		JackpotShare: split.JackpotShare,
	})
	return nil
}

// handleBurnTokens moves tokens into the burn account and burns them from
// there, so the burn account never holds a balance.
func handleBurnTokens(e *execution) error {
	args := e.args.(*BurnTokensArgs)
	book := e.program.book
	if args.Amount == 0 {
		return errors.ErrInvalidAmount
	}

	gs, err := e.globalState()
	if err != nil {
		return err
	}
	user, userToken := e.key(1), e.key(2)
	if _, err := e.tokenAccount(userToken, gs.TokenMint, user); err != nil {
		return err
	}
	if err := e.bank.Transfer(userToken, book.Burn.Address, user, args.Amount); err != nil {
		return err
	}
	if err := e.bank.Burn(book.Burn.Address, gs.TokenMint, book.Burn.Address, args.Amount); err != nil {
		return err
	}
	if err := addU64(&gs.BurnedTokens, args.Amount); err != nil {
		return err
	}
	if err := subU64(&gs.TotalSupply, args.Amount); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.TokensBurned{User: user, Amount: args.Amount, BurnedTotal: gs.BurnedTokens})
	return nil
}
