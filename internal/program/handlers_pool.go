package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/access"
	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/pool"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
)

// authorized loads GlobalState and checks the signer at position 1 against
// the authority and the optional admin set.
func (e *execution) authorized() (*state.GlobalState, error) {
	gs, err := e.globalState()
	if err != nil {
		return nil, err
	}
	admins, err := e.adminState()
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(gs, admins, e.key(1)); err != nil {
		return nil, err
	}
	return gs, nil
}

func handleBootstrapPools(e *execution) error {
	args := e.args.(*BootstrapPoolsArgs)
	book := e.program.book

	gs, err := e.authorized()
	if err != nil {
		return err
	}
	authority, treasurySol, treasuryToken := e.key(1), e.key(2), e.key(3)
	if _, err := e.tokenAccount(treasurySol, solana.SolMint, authority); err != nil {
		return err
	}
	if _, err := e.tokenAccount(treasuryToken, gs.TokenMint, authority); err != nil {
		return err
	}

	var bank, locked state.LiquidityPool
	bankRes := pool.Reserves{Sol: book.BankSolReserve.Address, Token: book.BankTokenReserve.Address}
	lockedRes := pool.Reserves{Sol: book.LockedSolReserve.Address, Token: book.LockedTokenReserve.Address}
	if err := pool.Bootstrap(gs, &bank, &locked, bankRes, lockedRes,
		book.BankPool.Bump, book.LockedPool.Bump, args.SolPerPool, args.TokensPerPool); err != nil {
		return err
	}
	for _, addr := range []solana.PublicKey{book.BankPool.Address, book.LockedPool.Address} {
		if e.tx.Exists(addr) {
			return errors.ErrPoolAlreadyBootstrapped.WithDetails(map[string]any{"account": addr.String()})
		}
	}

	// Locked reserves belong to the burn address, which has no signer, so
	// nothing can move liquidity out of them.
	reserves := []struct {
		addr, mint, owner solana.PublicKey
		from              solana.PublicKey
		amount            uint64
	}{
		{bankRes.Sol, solana.SolMint, book.LpAuthority.Address, treasurySol, args.SolPerPool},
		{bankRes.Token, gs.TokenMint, book.LpAuthority.Address, treasuryToken, args.TokensPerPool},
		{lockedRes.Sol, solana.SolMint, book.Burn.Address, treasurySol, args.SolPerPool},
		{lockedRes.Token, gs.TokenMint, book.Burn.Address, treasuryToken, args.TokensPerPool},
	}
	for _, r := range reserves {
		if err := e.bank.CreateAccount(r.addr, r.mint, r.owner); err != nil {
			return err
		}
		if err := e.bank.Transfer(r.from, r.addr, authority, r.amount); err != nil {
			return err
		}
	}

	if err := e.save(book.BankPool.Address, &bank); err != nil {
		return err
	}
	if err := e.save(book.LockedPool.Address, &locked); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.PoolsBootstrapped{SolPerPool: args.SolPerPool, TokensPerPool: args.TokensPerPool})
	return nil
}

func handleAddLiquidity(e *execution) error {
	args := e.args.(*AddLiquidityArgs)
	book := e.program.book

	gs, err := e.authorized()
	if err != nil {
		return err
	}
	user, userToken, userSol := e.key(1), e.key(2), e.key(3)
	poolKey, solReserve, tokenReserve := e.key(4), e.key(5), e.key(7)

	if !poolKey.Equals(book.BankPool.Address) && !poolKey.Equals(book.LockedPool.Address) {
		return errors.ErrInvalidDerivedAddress.WithDetails(map[string]any{"account": "lpPool", "got": poolKey.String()})
	}
	var p state.LiquidityPool
	ok, err := e.load(poolKey, &p)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrPoolsNotBootstrapped
	}
	if !solReserve.Equals(p.SolAccount) || !tokenReserve.Equals(p.TokenAccount) {
		return errors.ErrInvalidDerivedAddress.WithDetails(map[string]any{"account": "lp reserves", "pool": p.PoolType.String()})
	}
	if err := pool.AddLiquidity(gs, &p, args.TokenAmount, args.SolAmount); err != nil {
		return err
	}
	if _, err := e.tokenAccount(userToken, gs.TokenMint, user); err != nil {
		return err
	}
	if _, err := e.tokenAccount(userSol, solana.SolMint, user); err != nil {
		return err
	}
	if err := e.bank.Transfer(userToken, tokenReserve, user, args.TokenAmount); err != nil {
		return err
	}
	if err := e.bank.Transfer(userSol, solReserve, user, args.SolAmount); err != nil {
		return err
	}

	if err := e.save(poolKey, &p); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.LiquidityAdded{
		Provider:    user,
		PoolType:    uint8(p.PoolType),
		TokenAmount: args.TokenAmount,
		SolAmount:   args.SolAmount,
	})
	return nil
}

func handleSyncDualLp(e *execution) error {
	args := e.args.(*SyncDualLpArgs)
	book := e.program.book

	gs, err := e.authorized()
	if err != nil {
		return err
	}
	var bank, locked state.LiquidityPool
	for _, p := range []struct {
		addr solana.PublicKey
		dst  *state.LiquidityPool
	}{{book.BankPool.Address, &bank}, {book.LockedPool.Address, &locked}} {
		ok, err := e.load(p.addr, p.dst)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrPoolsNotBootstrapped
		}
	}

	plan, err := pool.PlanSync(gs, args.TradingFees)
	if err != nil {
		return err
	}
	if err := e.transferAll(book.FeeCollector.Address, book.LpAuthority.Address,
		transfer{bank.TokenAccount, plan.Bank},
		transfer{locked.TokenAccount, plan.Locked},
	); err != nil {
		return err
	}
	now := e.sysvars().UnixTimestamp
	if err := pool.ApplySync(gs, &bank, &locked, plan, now); err != nil {
		return err
	}

	if err := e.save(book.BankPool.Address, &bank); err != nil {
		return err
	}
	if err := e.save(book.LockedPool.Address, &locked); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.LpSynced{Bank: plan.Bank, Locked: plan.Locked, Timestamp: now})
	return nil
}
