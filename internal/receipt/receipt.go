// Package receipt describes the outcome of one executed instruction: who ran
// what, in which slot, whether it committed, and the events it emitted.
//
// Receipts carry their events twice: typed, for in-process consumers, and as
// Solana-style program logs ("Program data: <base64>") so anything that can
// parse a transaction log can read them.
package receipt

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/pkg/discriminator"
	"github.com/lugondev/go-soflotto/pkg/log"
	"github.com/lugondev/go-soflotto/pkg/utils"
)

// Receipt is the record of one instruction execution.
type Receipt struct {
	ID          uuid.UUID
	Signature   solana.Signature
	ProgramID   solana.PublicKey
	Instruction string
	Index       int
	Slot        uint64
	Timestamp   time.Time
	Signers     []solana.PublicKey
	Accounts    []solana.PublicKey
	Success     bool
	ErrorCode   string
	Error       string
	Events      []Event
	Logs        []string
	Writes      int
	Duration    time.Duration
}

// New starts a receipt for an instruction.
func New(programID solana.PublicKey, instruction string, index int, metas []*solana.AccountMeta) *Receipt {
	r := &Receipt{
		ID:          uuid.New(),
		ProgramID:   programID,
		Instruction: instruction,
		Index:       index,
		Accounts:    make([]solana.PublicKey, 0, len(metas)),
	}
	for _, m := range metas {
		r.Accounts = append(r.Accounts, m.PublicKey)
		if m.IsSigner {
			r.Signers = append(r.Signers, m.PublicKey)
		}
	}
	return r
}

// Emit appends an event.
func (r *Receipt) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// Fail marks the receipt as failed with err.
func (r *Receipt) Fail(err error) {
	r.Success = false
	r.ErrorCode = errors.CodeOf(err)
	r.Error = err.Error()
}

// Event returns the first event with the given name.
func (r *Receipt) Event(name string) (Event, bool) {
	for _, e := range r.Events {
		if e.EventName() == name {
			return e, true
		}
	}
	return nil, false
}

// BuildLogs renders the receipt as a program log transcript.
func (r *Receipt) BuildLogs() error {
	pid := r.ProgramID.String()
	logs := []string{
		fmt.Sprintf("Program %s invoke [1]", pid),
		fmt.Sprintf("Program log: Instruction: %s", utils.ToPascalCase(r.Instruction)),
	}
	for _, e := range r.Events {
		data, err := EncodeEvent(e)
		if err != nil {
			return err
		}
		logs = append(logs, "Program data: "+base64.StdEncoding.EncodeToString(data))
	}
	if r.Success {
		logs = append(logs, fmt.Sprintf("Program %s success", pid))
	} else {
		logs = append(logs, fmt.Sprintf("Program %s failed: %s", pid, r.Error))
	}
	r.Logs = logs
	return nil
}

var eventsByDisc = func() map[discriminator.Discriminator]string {
	m := make(map[discriminator.Discriminator]string, len(factories))
	for name := range factories {
		m[discriminator.Event(name)] = name
	}
	return m
}()

// DecodeLogs extracts every known event from a log transcript. Unknown
// program data is skipped.
func DecodeLogs(logs []string) ([]Event, error) {
	var out []Event
	for _, data := range log.NewParser().ExtractProgramData(logs) {
		disc, ok := discriminator.FromBytes(data)
		if !ok {
			continue
		}
		name, ok := eventsByDisc[disc]
		if !ok {
			continue
		}
		e, err := DecodeEventAs(name, data)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
