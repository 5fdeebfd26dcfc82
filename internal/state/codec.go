package state

import (
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/pkg/discriminator"
)

// Record is implemented by every persisted account type.
type Record interface {
	AccountName() string
}

// Encode serializes r behind its account discriminator.
func Encode(r Record) ([]byte, error) {
	body, err := bin.MarshalBorsh(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.AccountName(), err)
	}
	disc := discriminator.Account(r.AccountName())
	out := make([]byte, 0, discriminator.Size+len(body))
	out = append(out, disc[:]...)
	return append(out, body...), nil
}

// Decode parses data into r after checking the discriminator.
func Decode(data []byte, r Record) error {
	disc, ok := discriminator.FromBytes(data)
	if !ok {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": r.AccountName(), "len": len(data)})
	}
	if disc != discriminator.Account(r.AccountName()) {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": r.AccountName(), "discriminator": disc.String()})
	}
	if err := bin.UnmarshalBorsh(r, data[discriminator.Size:]); err != nil {
		return errors.DecodeFailed(r.AccountName(), err)
	}
	return nil
}

// Is reports whether data carries the discriminator of r's type.
func Is(data []byte, r Record) bool {
	disc, ok := discriminator.FromBytes(data)
	return ok && disc == discriminator.Account(r.AccountName())
}

// Account sizes, including the discriminator.
var (
	GlobalStateSize      = sizeOf(&GlobalState{})
	UserStateSize        = sizeOf(&UserState{})
	LiquidityPoolSize    = sizeOf(&LiquidityPool{})
	AdminAccessStateSize = sizeOf(&AdminAccessState{})
	DrawResultSize       = sizeOf(&DrawResult{})
)

func sizeOf(r Record) int {
	data, err := Encode(r)
	if err != nil {
		panic(err)
	}
	return len(data)
}
