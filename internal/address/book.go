package address

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Derived is an address together with its bump.
type Derived struct {
	Address solana.PublicKey
	Bump    uint8
}

// Book holds every singleton address of a deployment. Per-user and per-round
// addresses are derived on demand.
type Book struct {
	deriver Deriver

	State              Derived
	Admin              Derived
	BankPool           Derived
	LockedPool         Derived
	BankSolReserve     Derived
	BankTokenReserve   Derived
	LockedSolReserve   Derived
	LockedTokenReserve Derived
	TokenVault         Derived
	FeeCollector       Derived
	LotteryPool        Derived
	RewardsPool        Derived
	LpSolPool          Derived
	Burn               Derived
	TokenAuthority     Derived
	LpAuthority        Derived
	LotteryAuthority   Derived
}

// NewBook derives all singleton addresses with d.
func NewBook(d Deriver) (*Book, error) {
	b := &Book{deriver: d}
	targets := []struct {
		dst   *Derived
		name  string
		seeds [][]byte
	}{
		{&b.State, "state", [][]byte{SeedState}},
		{&b.Admin, "admin", [][]byte{SeedAdmin}},
		{&b.BankPool, "bank pool", [][]byte{SeedPool, SeedBank}},
		{&b.LockedPool, "locked pool", [][]byte{SeedPool, SeedLocked}},
		{&b.BankSolReserve, "bank sol reserve", [][]byte{SeedReserve, SeedBank, SeedSol}},
		{&b.BankTokenReserve, "bank token reserve", [][]byte{SeedReserve, SeedBank, SeedToken}},
		{&b.LockedSolReserve, "locked sol reserve", [][]byte{SeedReserve, SeedLocked, SeedSol}},
		{&b.LockedTokenReserve, "locked token reserve", [][]byte{SeedReserve, SeedLocked, SeedToken}},
		{&b.TokenVault, "token vault", [][]byte{SeedVault}},
		{&b.FeeCollector, "fee collector", [][]byte{SeedFeeCollector}},
		{&b.LotteryPool, "lottery pool", [][]byte{SeedLotteryPool}},
		{&b.RewardsPool, "rewards pool", [][]byte{SeedRewardsPool}},
		{&b.LpSolPool, "lp sol pool", [][]byte{SeedLpSolPool}},
		{&b.Burn, "burn", [][]byte{SeedBurn}},
		{&b.TokenAuthority, "token authority", [][]byte{SeedTokenAuthority}},
		{&b.LpAuthority, "lp authority", [][]byte{SeedLpAuthority}},
		{&b.LotteryAuthority, "lottery authority", [][]byte{SeedLotteryAuthority}},
	}
	for _, t := range targets {
		addr, bump, err := d.Derive(t.seeds...)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", t.name, err)
		}
		*t.dst = Derived{Address: addr, Bump: bump}
	}
	return b, nil
}

func (b *Book) ProgramID() solana.PublicKey { return b.deriver.ProgramID() }

func (b *Book) Deriver() Deriver { return b.deriver }

// User derives the lottery state address of a holder.
func (b *Book) User(user solana.PublicKey) (Derived, error) {
	addr, bump, err := b.deriver.Derive(SeedUser, user[:])
	if err != nil {
		return Derived{}, fmt.Errorf("derive user state: %w", err)
	}
	return Derived{Address: addr, Bump: bump}, nil
}

// Draw derives the result address of a lottery round.
func (b *Book) Draw(round uint64) (Derived, error) {
	addr, bump, err := b.deriver.Derive(SeedDraw, RoundSeed(round))
	if err != nil {
		return Derived{}, fmt.Errorf("derive draw result: %w", err)
	}
	return Derived{Address: addr, Bump: bump}, nil
}

// Named lists the singleton addresses with display names, in a stable order.
func (b *Book) Named() []NamedAddress {
	return []NamedAddress{
		{"state", b.State},
		{"adminState", b.Admin},
		{"bankPool", b.BankPool},
		{"lockedPool", b.LockedPool},
		{"bankSolReserve", b.BankSolReserve},
		{"bankTokenReserve", b.BankTokenReserve},
		{"lockedSolReserve", b.LockedSolReserve},
		{"lockedTokenReserve", b.LockedTokenReserve},
		{"tokenVault", b.TokenVault},
		{"feeCollector", b.FeeCollector},
		{"lotteryPool", b.LotteryPool},
		{"rewardsPool", b.RewardsPool},
		{"lpSolPool", b.LpSolPool},
		{"burnAccount", b.Burn},
		{"tokenAuthority", b.TokenAuthority},
		{"lpAuthority", b.LpAuthority},
		{"lotteryAuthority", b.LotteryAuthority},
	}
}

type NamedAddress struct {
	Name string
	Derived
}
