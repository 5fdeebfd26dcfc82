package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/lottery"
	"github.com/lugondev/go-soflotto/internal/oracle"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
)

func handleEnterLottery(e *execution) error {
	args := e.args.(*EnterLotteryArgs)
	book := e.program.book

	gs, err := e.globalState()
	if err != nil {
		return err
	}
	userStateKey, user, userToken := e.key(1), e.key(2), e.key(3)
	derived, err := book.User(user)
	if err != nil {
		return err
	}
	if !userStateKey.Equals(derived.Address) {
		return errors.ErrInvalidDerivedAddress.WithDetails(map[string]any{
			"account":  "userState",
			"expected": derived.Address.String(),
			"got":      userStateKey.String(),
		})
	}
	held, err := e.holdingAccount(userToken, gs.TokenMint, user)
	if err != nil {
		return err
	}

	value := oracle.HoldingValue(e.program.oracle, held.Amount, e.program.params.TokenDecimals)
	entries, err := lottery.CheckEntry(args.EntryTier, value)
	if err != nil {
		return err
	}

	var us state.UserState
	exists, err := e.load(userStateKey, &us)
	if err != nil {
		return err
	}
	if !exists {
		us = state.UserState{User: user, Bump: derived.Bump}
	}
	if err := lottery.Enter(gs, &us, !exists, args.EntryTier, entries, held.Amount); err != nil {
		return err
	}
	lottery.MixEntry(gs, user, entries, e.sysvars().Blockhash)

	if err := e.save(userStateKey, &us); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.LotteryEntered{
		User:         user,
		Round:        us.Round,
		Tier:         us.Tier,
		Entries:      us.Entries,
		HoldingUSD:   value.StringFixed(2),
		TotalEntries: gs.TotalEntries,
	})
	return nil
}

func handleCommitDraw(e *execution) error {
	args := e.args.(*CommitDrawArgs)
	gs, err := e.authorized()
	if err != nil {
		return err
	}
	slot := e.sysvars().Slot
	if err := lottery.Commit(gs, args.Commitment, slot, e.program.params.RevealDelaySlots); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.DrawCommitted{
		Round:      gs.CurrentRound,
		Commitment: args.Commitment,
		Slot:       slot,
		TargetSlot: gs.DrawTargetSlot,
	})
	return nil
}

func handleCancelDraw(e *execution) error {
	gs, err := e.authorized()
	if err != nil {
		return err
	}
	if err := lottery.Cancel(gs, e.sysvars().Slot, e.program.params.RevealTimeoutSlots); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.DrawCancelled{Round: gs.CurrentRound})
	return nil
}

// participants reads the (userState, userTokenAccount) pairs passed after the
// fixed accounts. Every UserState of the current round must appear exactly
// once. Entries are recomputed from current balances and written back.
func (e *execution) participants(gs *state.GlobalState) ([]lottery.Holder, map[solana.PublicKey]solana.PublicKey, error) {
	book := e.program.book
	pairs := e.remaining
	if len(pairs)%2 != 0 || uint64(len(pairs)/2) != gs.Participants {
		return nil, nil, errors.ErrInvalidParticipantSet.WithDetails(map[string]any{
			"participants": gs.Participants,
			"accounts":     len(pairs),
		})
	}

	holders := make([]lottery.Holder, 0, len(pairs)/2)
	payTo := make(map[solana.PublicKey]solana.PublicKey, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		usKey, tokenKey := pairs[i].PublicKey, pairs[i+1].PublicKey

		var us state.UserState
		ok, err := e.load(usKey, &us)
		if err != nil {
			return nil, nil, err
		}
		if !ok || us.Round != gs.CurrentRound {
			return nil, nil, errors.ErrInvalidParticipantSet.WithDetails(map[string]any{"account": usKey.String()})
		}
		derived, err := book.User(us.User)
		if err != nil {
			return nil, nil, err
		}
		if !derived.Address.Equals(usKey) {
			return nil, nil, errors.ErrInvalidDerivedAddress.WithDetails(map[string]any{"account": usKey.String()})
		}
		if _, dup := payTo[us.User]; dup {
			return nil, nil, errors.ErrInvalidParticipantSet.WithDetails(map[string]any{"duplicate": us.User.String()})
		}
		held, err := e.holdingAccount(tokenKey, gs.TokenMint, us.User)
		if err != nil {
			return nil, nil, err
		}

		value := oracle.HoldingValue(e.program.oracle, held.Amount, e.program.params.TokenDecimals)
		us.Entries = lottery.TierEntries(value)
		if err := e.save(usKey, &us); err != nil {
			return nil, nil, err
		}
		holders = append(holders, lottery.Holder{User: us.User, Entries: us.Entries})
		payTo[us.User] = tokenKey
	}
	return holders, payTo, nil
}

func handleDrawWinner(e *execution) error {
	args := e.args.(*DrawWinnerArgs)
	book := e.program.book

	gs, err := e.authorized()
	if err != nil {
		return err
	}
	sv := e.sysvars()
	entropy, target := gs.EntryEntropy, gs.DrawTargetSlot
	random, blockhash, err := lottery.Reveal(gs, args.Seed, sv.Slot, e.program.params.RevealTimeoutSlots, e.tx.Blockhash)
	if err != nil {
		return err
	}

	round := gs.CurrentRound
	resultKey := e.key(6)
	derived, err := book.Draw(round)
	if err != nil {
		return err
	}
	if !resultKey.Equals(derived.Address) {
		return errors.ErrInvalidDerivedAddress.WithDetails(map[string]any{
			"account":  "drawResult",
			"expected": derived.Address.String(),
			"got":      resultKey.String(),
		})
	}
	if e.tx.Exists(resultKey) {
		return errors.ErrAlreadyInitialized.WithDetails(map[string]any{"account": "drawResult", "round": round})
	}
	if _, err := e.tokenAccount(e.key(3), gs.TokenMint, solana.PublicKey{}); err != nil {
		return err
	}

	holders, payTo, err := e.participants(gs)
	if err != nil {
		return err
	}
	lottery.SortHolders(holders)
	winner, err := lottery.SelectWinner(holders, random)
	if err != nil {
		return err
	}
	runnerUps := lottery.RunnerUps(holders, winner)
	payout := lottery.Split(gs.JackpotAmount, len(runnerUps))

	ts := []transfer{{payTo[holders[winner].User], payout.Winner}}
	for _, i := range runnerUps {
		ts = append(ts, transfer{payTo[holders[i].User], payout.RunnerUp})
	}
	ts = append(ts, transfer{book.RewardsPool.Address, payout.Rewards})
	if err := e.transferAll(book.LotteryPool.Address, book.LotteryAuthority.Address, ts...); err != nil {
		return err
	}

	var result state.DrawResult
	lottery.Settle(gs, &result, holders, winner, runnerUps, random, payout)
	result.Seed = args.Seed
	result.EntryEntropy = entropy
	result.TargetSlot = target
	result.Blockhash = [32]byte(blockhash)
	result.Timestamp = sv.UnixTimestamp
	result.Bump = derived.Bump

	if err := e.save(resultKey, &result); err != nil {
		return err
	}
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.DrawSettled{
		Round:          result.DrawID,
		Winner:         result.Winner,
		RandomNumber:   result.RandomNumber,
		TotalEntries:   result.TotalEntries,
		Payout:         result.Payout,
		RunnerUps:      result.RunnerUps,
		RunnerUpCount:  result.RunnerUpCount,
		RunnerUpPayout: result.RunnerUpPayout,
		RewardsPayout:  result.RewardsPayout,
		CarryOver:      result.CarryOver,
	})
	return nil
}
