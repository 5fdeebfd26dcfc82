package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/go-soflotto/internal/config"
	"github.com/lugondev/go-soflotto/internal/storage"
)

const accountColumns = `id, pubkey, lamports, data, owner, executable, slot, updated_at, created_at`

const upsertAccount = `
	INSERT INTO accounts (` + accountColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (pubkey) DO UPDATE SET
		lamports = $3, data = $4, owner = $5, executable = $6, slot = $7, updated_at = $8
`

type postgresAccountRepository struct {
	pool *pgxpool.Pool
}

func accountArgs(a *storage.AccountModel) []interface{} {
	return []interface{}{
		a.ID, a.Pubkey, a.Lamports, a.Data, a.Owner, a.Executable, a.Slot, a.UpdatedAt, a.CreatedAt,
	}
}

func (r *postgresAccountRepository) Save(ctx context.Context, account *storage.AccountModel) error {
	_, err := r.pool.Exec(ctx, upsertAccount, accountArgs(account)...)
	return err
}

func (r *postgresAccountRepository) SaveBatch(ctx context.Context, accounts []*storage.AccountModel) error {
	helper := storage.NewPostgresBatchHelper(r.pool)
	return helper.BatchInsert(ctx, upsertAccount, len(accounts), func(batch *pgx.Batch, i int) {
		batch.Queue(upsertAccount, accountArgs(accounts[i])...)
	})
}

func (r *postgresAccountRepository) FindByPubkey(ctx context.Context, pubkey string) (*storage.AccountModel, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE pubkey = $1`

	account, err := QueryOne(r.pool, ctx, query, scanAccount, pubkey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

func (r *postgresAccountRepository) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner = $1 ORDER BY pubkey LIMIT $2 OFFSET $3`
	return QueryMany(r.pool, ctx, query, scanAccountRows, owner, limit, offset)
}

func (r *postgresAccountRepository) FindAll(ctx context.Context, limit int, offset int) ([]*storage.AccountModel, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY pubkey LIMIT $1 OFFSET $2`
	return QueryMany(r.pool, ctx, query, scanAccountRows, limit, offset)
}

func (r *postgresAccountRepository) Delete(ctx context.Context, pubkey string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE pubkey = $1`, pubkey)
	return err
}

func scanAccount(row pgx.Row) (*storage.AccountModel, error) {
	var a storage.AccountModel
	err := row.Scan(&a.ID, &a.Pubkey, &a.Lamports, &a.Data, &a.Owner, &a.Executable, &a.Slot, &a.UpdatedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccountRows(rows pgx.Rows) (*storage.AccountModel, error) {
	return scanAccount(rows)
}

const instructionColumns = `id, signature, program_id, instruction, instruction_index, slot, block_time, success,
	error_code, error_message, signers, accounts, log_messages, writes, duration_us, created_at`

const insertInstruction = `
	INSERT INTO instructions (` + instructionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO NOTHING
`

type postgresInstructionRepository struct {
	pool *pgxpool.Pool
}

func instructionArgs(in *storage.InstructionModel) []interface{} {
	return []interface{}{
		in.ID, in.Signature, in.ProgramID, in.Instruction, in.Index, in.Slot, in.BlockTime, in.Success,
		in.ErrorCode, in.Error, in.Signers, in.Accounts, in.LogMessages, in.Writes, in.DurationUs, in.CreatedAt,
	}
}

func (r *postgresInstructionRepository) Save(ctx context.Context, instruction *storage.InstructionModel) error {
	_, err := r.pool.Exec(ctx, insertInstruction, instructionArgs(instruction)...)
	return err
}

func (r *postgresInstructionRepository) SaveBatch(ctx context.Context, instructions []*storage.InstructionModel) error {
	helper := storage.NewPostgresBatchHelper(r.pool)
	return helper.BatchInsert(ctx, insertInstruction, len(instructions), func(batch *pgx.Batch, i int) {
		batch.Queue(insertInstruction, instructionArgs(instructions[i])...)
	})
}

func (r *postgresInstructionRepository) FindByID(ctx context.Context, id string) (*storage.InstructionModel, error) {
	query := `SELECT ` + instructionColumns + ` FROM instructions WHERE id = $1`

	in, err := QueryOne(r.pool, ctx, query, scanInstruction, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return in, err
}

func (r *postgresInstructionRepository) FindBySignature(ctx context.Context, signature string) ([]*storage.InstructionModel, error) {
	query := `SELECT ` + instructionColumns + ` FROM instructions WHERE signature = $1 ORDER BY instruction_index ASC`
	return QueryMany(r.pool, ctx, query, scanInstructionRows, signature)
}

func (r *postgresInstructionRepository) FindByInstruction(ctx context.Context, name string, limit int, offset int) ([]*storage.InstructionModel, error) {
	query := `SELECT ` + instructionColumns + ` FROM instructions WHERE instruction = $1
		ORDER BY slot DESC, instruction_index ASC LIMIT $2 OFFSET $3`
	return QueryMany(r.pool, ctx, query, scanInstructionRows, name, limit, offset)
}

func (r *postgresInstructionRepository) FindRecent(ctx context.Context, limit int) ([]*storage.InstructionModel, error) {
	query := `SELECT ` + instructionColumns + ` FROM instructions ORDER BY slot DESC, instruction_index DESC LIMIT $1`
	return QueryMany(r.pool, ctx, query, scanInstructionRows, limit)
}

func scanInstruction(row pgx.Row) (*storage.InstructionModel, error) {
	var in storage.InstructionModel
	err := row.Scan(
		&in.ID, &in.Signature, &in.ProgramID, &in.Instruction, &in.Index, &in.Slot, &in.BlockTime, &in.Success,
		&in.ErrorCode, &in.Error, &in.Signers, &in.Accounts, &in.LogMessages, &in.Writes, &in.DurationUs, &in.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func scanInstructionRows(rows pgx.Rows) (*storage.InstructionModel, error) {
	return scanInstruction(rows)
}

const eventColumns = `id, receipt_id, signature, instruction, event_name, data, slot, created_at`

type postgresEventRepository struct {
	pool *pgxpool.Pool
}

func (r *postgresEventRepository) SaveBatch(ctx context.Context, events []*storage.EventModel) error {
	payloads := make([][]byte, len(events))
	for i, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		payloads[i] = data
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	helper := storage.NewPostgresBatchHelper(r.pool)
	return helper.BatchInsert(ctx, query, len(events), func(batch *pgx.Batch, i int) {
		e := events[i]
		batch.Queue(query, e.ID, e.ReceiptID, e.Signature, e.Instruction, e.EventName, payloads[i], e.Slot, e.CreatedAt)
	})
}

func (r *postgresEventRepository) FindByReceipt(ctx context.Context, receiptID string) ([]*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE receipt_id = $1 ORDER BY id`
	return QueryMany(r.pool, ctx, query, scanEvent, receiptID)
}

func (r *postgresEventRepository) FindByEventName(ctx context.Context, eventName string, limit int, offset int) ([]*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_name = $1 ORDER BY slot DESC LIMIT $2 OFFSET $3`
	return QueryMany(r.pool, ctx, query, scanEvent, eventName, limit, offset)
}

func (r *postgresEventRepository) FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE slot = $1 ORDER BY id LIMIT $2 OFFSET $3`
	return QueryMany(r.pool, ctx, query, scanEvent, slot, limit, offset)
}

func scanEvent(rows pgx.Rows) (*storage.EventModel, error) {
	var event storage.EventModel
	var dataJSON []byte

	err := rows.Scan(
		&event.ID, &event.ReceiptID, &event.Signature, &event.Instruction,
		&event.EventName, &dataJSON, &event.Slot, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &event.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	return &event, nil
}

const drawColumns = `id, round, receipt_id, winner, random_number, total_entries, payout, runner_ups,
	runner_up_payout, rewards_payout, carry_over, slot, settled_at`

type postgresDrawRepository struct {
	pool *pgxpool.Pool
}

// Save upserts by round. random_number is stored as text since it spans the
// full u64 range.
func (r *postgresDrawRepository) Save(ctx context.Context, d *storage.DrawModel) error {
	query := `
		INSERT INTO draws (` + drawColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (round) DO UPDATE SET
			receipt_id = $3, winner = $4, random_number = $5, total_entries = $6, payout = $7,
			runner_ups = $8, runner_up_payout = $9, rewards_payout = $10, carry_over = $11, slot = $12, settled_at = $13
	`
	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Round, d.ReceiptID, d.Winner, strconv.FormatUint(d.RandomNumber, 10), d.TotalEntries, d.Payout,
		d.RunnerUps, d.RunnerUpPayout, d.RewardsPayout, d.CarryOver, d.Slot, d.SettledAt,
	)
	return err
}

func (r *postgresDrawRepository) FindByRound(ctx context.Context, round uint64) (*storage.DrawModel, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE round = $1`

	d, err := QueryOne(r.pool, ctx, query, scanDraw, round)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *postgresDrawRepository) FindByWinner(ctx context.Context, winner string, limit int, offset int) ([]*storage.DrawModel, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE winner = $1 ORDER BY round DESC LIMIT $2 OFFSET $3`
	return QueryMany(r.pool, ctx, query, scanDrawRows, winner, limit, offset)
}

func (r *postgresDrawRepository) FindRecent(ctx context.Context, limit int) ([]*storage.DrawModel, error) {
	query := `SELECT ` + drawColumns + ` FROM draws ORDER BY round DESC LIMIT $1`
	return QueryMany(r.pool, ctx, query, scanDrawRows, limit)
}

func scanDraw(row pgx.Row) (*storage.DrawModel, error) {
	var d storage.DrawModel
	var random string
	err := row.Scan(
		&d.ID, &d.Round, &d.ReceiptID, &d.Winner, &random, &d.TotalEntries, &d.Payout, &d.RunnerUps,
		&d.RunnerUpPayout, &d.RewardsPayout, &d.CarryOver, &d.Slot, &d.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	if d.RandomNumber, err = strconv.ParseUint(random, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid random number for round %d: %w", d.Round, err)
	}
	return &d, nil
}

func scanDrawRows(rows pgx.Rows) (*storage.DrawModel, error) {
	return scanDraw(rows)
}

func init() {
	storage.RegisterPostgresFactory(func(ctx context.Context, cfg *config.PostgresConfig) (storage.Repository, error) {
		repo, err := NewPostgresRepository(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres repository: %w", err)
		}
		return repo, nil
	})
}
