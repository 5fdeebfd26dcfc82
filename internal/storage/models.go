package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/receipt"
)

type AccountModel struct {
	ID         string    `json:"id" bson:"_id,omitempty" db:"id"`
	Pubkey     string    `json:"pubkey" bson:"pubkey" db:"pubkey"`
	Lamports   uint64    `json:"lamports" bson:"lamports" db:"lamports"`
	Data       []byte    `json:"data" bson:"data" db:"data"`
	Owner      string    `json:"owner" bson:"owner" db:"owner"`
	Executable bool      `json:"executable" bson:"executable" db:"executable"`
	Slot       uint64    `json:"slot" bson:"slot" db:"slot"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

// InstructionModel is one journaled receipt.
type InstructionModel struct {
	ID          string    `json:"id" bson:"_id,omitempty" db:"id"`
	Signature   string    `json:"signature" bson:"signature" db:"signature"`
	ProgramID   string    `json:"program_id" bson:"program_id" db:"program_id"`
	Instruction string    `json:"instruction" bson:"instruction" db:"instruction"`
	Index       int       `json:"index" bson:"index" db:"instruction_index"`
	Slot        uint64    `json:"slot" bson:"slot" db:"slot"`
	BlockTime   time.Time `json:"block_time" bson:"block_time" db:"block_time"`
	Success     bool      `json:"success" bson:"success" db:"success"`
	ErrorCode   string    `json:"error_code,omitempty" bson:"error_code,omitempty" db:"error_code"`
	Error       string    `json:"error,omitempty" bson:"error,omitempty" db:"error_message"`
	Signers     []string  `json:"signers" bson:"signers" db:"signers"`
	Accounts    []string  `json:"accounts" bson:"accounts" db:"accounts"`
	LogMessages []string  `json:"log_messages,omitempty" bson:"log_messages,omitempty" db:"log_messages"`
	Writes      int       `json:"writes" bson:"writes" db:"writes"`
	DurationUs  int64     `json:"duration_us" bson:"duration_us" db:"duration_us"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

type EventModel struct {
	ID          string                 `json:"id" bson:"_id,omitempty" db:"id"`
	ReceiptID   string                 `json:"receipt_id" bson:"receipt_id" db:"receipt_id"`
	Signature   string                 `json:"signature" bson:"signature" db:"signature"`
	Instruction string                 `json:"instruction" bson:"instruction" db:"instruction"`
	EventName   string                 `json:"event_name" bson:"event_name" db:"event_name"`
	Data        map[string]interface{} `json:"data" bson:"data" db:"data"`
	Slot        uint64                 `json:"slot" bson:"slot" db:"slot"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at" db:"created_at"`
}

// DrawModel is a settled lottery round.
type DrawModel struct {
	ID             string    `json:"id" bson:"_id,omitempty" db:"id"`
	Round          uint64    `json:"round" bson:"round" db:"round"`
	ReceiptID      string    `json:"receipt_id" bson:"receipt_id" db:"receipt_id"`
	Winner         string    `json:"winner" bson:"winner" db:"winner"`
	RandomNumber   uint64    `json:"random_number" bson:"-" db:"random_number"`
	TotalEntries   uint64    `json:"total_entries" bson:"total_entries" db:"total_entries"`
	Payout         uint64    `json:"payout" bson:"payout" db:"payout"`
	RunnerUps      []string  `json:"runner_ups" bson:"runner_ups" db:"runner_ups"`
	RunnerUpPayout uint64    `json:"runner_up_payout" bson:"runner_up_payout" db:"runner_up_payout"`
	RewardsPayout  uint64    `json:"rewards_payout" bson:"rewards_payout" db:"rewards_payout"`
	CarryOver      uint64    `json:"carry_over" bson:"carry_over" db:"carry_over"`
	Slot           uint64    `json:"slot" bson:"slot" db:"slot"`
	SettledAt      time.Time `json:"settled_at" bson:"settled_at" db:"settled_at"`
}

// AccountToModel snapshots a ledger account as of slot.
func AccountToModel(c ledger.Change, slot uint64) *AccountModel {
	now := time.Now()
	return &AccountModel{
		ID:         c.Pubkey.String(),
		Pubkey:     c.Pubkey.String(),
		Lamports:   c.Account.Lamports,
		Data:       c.Account.Data,
		Owner:      c.Account.Owner.String(),
		Executable: c.Account.Executable,
		Slot:       slot,
		UpdatedAt:  now,
		CreatedAt:  now,
	}
}

func ReceiptToModel(r *receipt.Receipt) *InstructionModel {
	signers := make([]string, 0, len(r.Signers))
	for _, s := range r.Signers {
		signers = append(signers, s.String())
	}
	accounts := make([]string, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		accounts = append(accounts, a.String())
	}

	return &InstructionModel{
		ID:          r.ID.String(),
		Signature:   r.Signature.String(),
		ProgramID:   r.ProgramID.String(),
		Instruction: r.Instruction,
		Index:       r.Index,
		Slot:        r.Slot,
		BlockTime:   r.Timestamp,
		Success:     r.Success,
		ErrorCode:   r.ErrorCode,
		Error:       r.Error,
		Signers:     signers,
		Accounts:    accounts,
		LogMessages: r.Logs,
		Writes:      r.Writes,
		DurationUs:  r.Duration.Microseconds(),
		CreatedAt:   time.Now(),
	}
}

// EventsToModels flattens the events of r. Event fields become a generic
// document through their JSON form.
func EventsToModels(r *receipt.Receipt) ([]*EventModel, error) {
	out := make([]*EventModel, 0, len(r.Events))
	for i, e := range r.Events {
		data, err := eventData(e)
		if err != nil {
			return nil, err
		}
		out = append(out, &EventModel{
			ID:          fmt.Sprintf("%s_%d", r.ID, i),
			ReceiptID:   r.ID.String(),
			Signature:   r.Signature.String(),
			Instruction: r.Instruction,
			EventName:   e.EventName(),
			Data:        data,
			Slot:        r.Slot,
			CreatedAt:   time.Now(),
		})
	}
	return out, nil
}

func eventData(e receipt.Event) (map[string]interface{}, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", e.EventName(), err)
	}
	var data map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event %s: %w", e.EventName(), err)
	}
	return data, nil
}

// DrawToModel returns the draw settled by r, if any.
func DrawToModel(r *receipt.Receipt) (*DrawModel, bool) {
	var ev *receipt.DrawSettled
	for _, e := range r.Events {
		switch v := e.(type) {
		case receipt.DrawSettled:
			ev = &v
		case *receipt.DrawSettled:
			ev = v
		}
	}
	if ev == nil {
		return nil, false
	}

	runnerUps := make([]string, 0, ev.RunnerUpCount)
	for i := 0; i < int(ev.RunnerUpCount) && i < len(ev.RunnerUps); i++ {
		runnerUps = append(runnerUps, ev.RunnerUps[i].String())
	}
	return &DrawModel{
		ID:             fmt.Sprintf("draw_%d", ev.Round),
		Round:          ev.Round,
		ReceiptID:      r.ID.String(),
		Winner:         ev.Winner.String(),
		RandomNumber:   ev.RandomNumber,
		TotalEntries:   ev.TotalEntries,
		Payout:         ev.Payout,
		RunnerUps:      runnerUps,
		RunnerUpPayout: ev.RunnerUpPayout,
		RewardsPayout:  ev.RewardsPayout,
		CarryOver:      ev.CarryOver,
		Slot:           r.Slot,
		SettledAt:      r.Timestamp,
	}, true
}
