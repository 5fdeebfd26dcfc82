package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lugondev/go-soflotto/internal/metrics"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/storage"
)

// ReceiptProcessor is a processor of committed or rolled back receipts.
type ReceiptProcessor = Processor[*receipt.Receipt]

// as matches an event emitted by value or decoded as a pointer.
func as[T any](e receipt.Event) (T, bool) {
	switch v := any(e).(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

// HasEvent reports whether r emitted an event called name.
func HasEvent(name string) func(*receipt.Receipt) bool {
	return func(r *receipt.Receipt) bool {
		_, ok := r.Event(name)
		return ok
	}
}

// Succeeded matches committed receipts.
func Succeeded(r *receipt.Receipt) bool {
	return r.Success
}

// MetricsProcessor turns receipts into engine metrics.
type MetricsProcessor struct{}

func NewMetricsProcessor() *MetricsProcessor {
	return &MetricsProcessor{}
}

func (p *MetricsProcessor) Process(ctx context.Context, r *receipt.Receipt, m *metrics.Collection) error {
	if m == nil {
		return nil
	}
	if err := m.RecordHistogram(ctx, metrics.MetricInstructionDurationMs, float64(r.Duration.Microseconds())/1000); err != nil {
		return err
	}
	if !r.Success {
		return m.IncrementCounter(ctx, metrics.MetricInstructionsFailed, 1)
	}
	if err := m.IncrementCounter(ctx, metrics.MetricInstructionsExecuted, 1); err != nil {
		return err
	}
	for _, e := range r.Events {
		if err := p.recordEvent(ctx, e, m); err != nil {
			return fmt.Errorf("record %s: %w", e.EventName(), err)
		}
	}
	return nil
}

func (p *MetricsProcessor) recordEvent(ctx context.Context, e receipt.Event, m *metrics.Collection) error {
	if ev, ok := as[receipt.BuyExecuted](e); ok {
		return p.recordTrade(ctx, m, ev.Tax, ev.Burn)
	}
	if ev, ok := as[receipt.SellExecuted](e); ok {
		return p.recordTrade(ctx, m, ev.Tax, ev.Burn)
	}
	if ev, ok := as[receipt.TokensBurned](e); ok {
		return m.IncrementCounter(ctx, metrics.MetricTokensBurned, ev.Amount)
	}
	if ev, ok := as[receipt.LpSynced](e); ok {
		return m.IncrementCounter(ctx, metrics.MetricLpFeesSynced, ev.Bank+ev.Locked)
	}
	if ev, ok := as[receipt.LotteryEntered](e); ok {
		if err := m.IncrementCounter(ctx, metrics.MetricLotteryEntries, 1); err != nil {
			return err
		}
		return m.UpdateGauge(ctx, metrics.MetricTotalEntries, float64(ev.TotalEntries))
	}
	if ev, ok := as[receipt.DrawSettled](e); ok {
		if err := m.IncrementCounter(ctx, metrics.MetricDrawsSettled, 1); err != nil {
			return err
		}
		if err := m.UpdateGauge(ctx, metrics.MetricTotalEntries, 0); err != nil {
			return err
		}
		return m.UpdateGauge(ctx, metrics.MetricJackpotAmount, float64(ev.CarryOver))
	}
	return nil
}

func (p *MetricsProcessor) recordTrade(ctx context.Context, m *metrics.Collection, tax, burn uint64) error {
	if err := m.IncrementCounter(ctx, metrics.MetricTaxCollected, tax); err != nil {
		return err
	}
	return m.IncrementCounter(ctx, metrics.MetricTokensBurned, burn)
}

// JournalProcessor writes receipts and their events to a repository.
type JournalProcessor struct {
	repo   storage.Repository
	logger *slog.Logger
}

func NewJournalProcessor(repo storage.Repository, logger *slog.Logger) *JournalProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalProcessor{repo: repo, logger: logger}
}

// Process journals a single receipt.
func (p *JournalProcessor) Process(ctx context.Context, r *receipt.Receipt, m *metrics.Collection) error {
	return p.ProcessBatch(ctx, []*receipt.Receipt{r}, m)
}

// ProcessBatch journals receipts with one write per repository.
func (p *JournalProcessor) ProcessBatch(ctx context.Context, receipts []*receipt.Receipt, m *metrics.Collection) error {
	if len(receipts) == 0 {
		return nil
	}
	instructions := make([]*storage.InstructionModel, 0, len(receipts))
	var events []*storage.EventModel
	for _, r := range receipts {
		instructions = append(instructions, storage.ReceiptToModel(r))
		evs, err := storage.EventsToModels(r)
		if err != nil {
			return err
		}
		events = append(events, evs...)
	}

	if err := p.repo.Instructions().SaveBatch(ctx, instructions); err != nil {
		p.logger.Error("failed to save instruction journal", "count", len(instructions), "error", err)
		return fmt.Errorf("failed to save instructions: %w", err)
	}
	if err := p.repo.Events().SaveBatch(ctx, events); err != nil {
		p.logger.Error("failed to save events", "count", len(events), "error", err)
		return fmt.Errorf("failed to save events: %w", err)
	}

	p.logger.Debug("receipts journaled", "count", len(instructions), "events", len(events))
	if m != nil {
		return m.IncrementCounter(ctx, metrics.MetricReceiptsPersisted, uint64(len(instructions)))
	}
	return nil
}

// NewBatchJournal buffers receipts and journals them size at a time. Call
// FlushBatch on shutdown.
func NewBatchJournal(repo storage.Repository, logger *slog.Logger, size int) *BatchProcessor[*receipt.Receipt] {
	j := NewJournalProcessor(repo, logger)
	return NewBatchProcessor[*receipt.Receipt](ProcessorFunc[[]*receipt.Receipt](j.ProcessBatch), size)
}

// DrawRecorder stores settled draws. Receipts without a DrawSettled event are
// ignored.
type DrawRecorder struct {
	repo storage.Repository
}

func NewDrawRecorder(repo storage.Repository) *DrawRecorder {
	return &DrawRecorder{repo: repo}
}

func (p *DrawRecorder) Process(ctx context.Context, r *receipt.Receipt, m *metrics.Collection) error {
	draw, ok := storage.DrawToModel(r)
	if !ok {
		return nil
	}
	if err := p.repo.Draws().Save(ctx, draw); err != nil {
		return fmt.Errorf("failed to save draw %d: %w", draw.Round, err)
	}
	return nil
}

// LogErrors wraps p so that its failures are logged and swallowed.
func LogErrors[T any](p Processor[T], logger *slog.Logger, name string) *ErrorHandlingProcessor[T] {
	return NewErrorHandlingProcessor(p, func(err error) error {
		logger.Warn("processor failed", "processor", name, "error", err)
		return nil
	})
}

// Journal builds the storage side of the pipeline: every receipt is
// journaled in batches and settled draws are recorded as they commit.
func Journal(repo storage.Repository, logger *slog.Logger, batchSize int) (*ChainedProcessor[*receipt.Receipt], *BatchProcessor[*receipt.Receipt]) {
	batch := NewBatchJournal(repo, logger, batchSize)
	draws := NewConditionalProcessor[*receipt.Receipt](NewDrawRecorder(repo), func(r *receipt.Receipt) bool {
		return Succeeded(r) && HasEvent("DrawSettled")(r)
	})
	return NewChainedProcessor[*receipt.Receipt](batch, draws), batch
}
