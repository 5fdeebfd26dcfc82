package program

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/token"
)

// Genesis is the token layout of a fresh deployment.
type Genesis struct {
	Mint     solana.PublicKey
	Decimals uint8
	// Supply is minted into the token vault.
	Supply uint64
	// LpSol seeds the wrapped SOL pool that pays out sells.
	LpSol uint64
}

// Genesis creates the mint and every program-owned token account. It must run
// before initialize.
func (p *Program) Genesis(ctx context.Context, g Genesis) error {
	b := p.book
	_, err := p.ledger.Execute(ctx, func(tx *ledger.Txn) error {
		bank := token.NewBank(tx)
		if err := bank.CreateMint(g.Mint, b.TokenAuthority.Address, g.Decimals); err != nil {
			return err
		}
		accounts := []struct {
			addr, mint, owner solana.PublicKey
		}{
			{b.TokenVault.Address, g.Mint, b.TokenAuthority.Address},
			{b.FeeCollector.Address, g.Mint, b.LpAuthority.Address},
			{b.LotteryPool.Address, g.Mint, b.LotteryAuthority.Address},
			{b.RewardsPool.Address, g.Mint, b.LotteryAuthority.Address},
			{b.Burn.Address, g.Mint, b.Burn.Address},
			{b.LpSolPool.Address, solana.SolMint, b.LpAuthority.Address},
		}
		for _, a := range accounts {
			if err := bank.CreateAccount(a.addr, a.mint, a.owner); err != nil {
				return err
			}
		}
		if err := bank.MintTo(g.Mint, b.TokenVault.Address, b.TokenAuthority.Address, g.Supply); err != nil {
			return err
		}
		return bank.Wrap(b.LpSolPool.Address, g.LpSol)
	})
	if err != nil {
		return errors.Wrap(err, "genesis")
	}
	p.GetLogger().Info("genesis written", "mint", g.Mint, "supply", g.Supply, "lp_sol", g.LpSol)
	return nil
}

// WalletAccounts are the associated token accounts of a wallet.
type WalletAccounts struct {
	Owner solana.PublicKey
	Sol   solana.PublicKey
	Token solana.PublicKey
}

// WalletAccountsOf returns the associated wrapped SOL and token accounts of
// owner for mint.
func WalletAccountsOf(owner, mint solana.PublicKey) (WalletAccounts, error) {
	sol, _, err := solana.FindAssociatedTokenAddress(owner, solana.SolMint)
	if err != nil {
		return WalletAccounts{}, err
	}
	tok, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return WalletAccounts{}, err
	}
	return WalletAccounts{Owner: owner, Sol: sol, Token: tok}, nil
}

// Airdrop opens the wallet's associated accounts if needed, wraps lamports
// into its SOL account and pays tokens out of the vault.
func (p *Program) Airdrop(ctx context.Context, owner, mint solana.PublicKey, lamports, tokens uint64) (WalletAccounts, error) {
	wa, err := WalletAccountsOf(owner, mint)
	if err != nil {
		return wa, err
	}
	b := p.book
	_, err = p.ledger.Execute(ctx, func(tx *ledger.Txn) error {
		bank := token.NewBank(tx)
		for _, a := range []struct{ addr, mint solana.PublicKey }{{wa.Sol, solana.SolMint}, {wa.Token, mint}} {
			if tx.Exists(a.addr) {
				continue
			}
			if err := bank.CreateAccount(a.addr, a.mint, owner); err != nil {
				return err
			}
		}
		if err := bank.Wrap(wa.Sol, lamports); err != nil {
			return err
		}
		return bank.Transfer(b.TokenVault.Address, wa.Token, b.TokenAuthority.Address, tokens)
	})
	if err != nil {
		return wa, errors.Wrap(err, "airdrop")
	}
	return wa, nil
}
