package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/roach88/minorm/internal/mapper"
	"github.com/roach88/minorm/internal/schema"
	"github.com/roach88/minorm/internal/store"
)

// Harness is the scenario execution engine.
// It runs steps against one open store with a deterministic key generator.
type Harness struct {
	store  *recorder
	table  *mapper.Table[schema.Record]
	desc   *schema.Descriptor[schema.Record]
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. The store
// stays open for the whole scenario, since an in-memory database lives only
// as long as its connection.
//
// Execution flow:
// 1. Build the record descriptor
// 2. Open a fresh in-memory store
// 3. Execute steps, checking expectations
// 4. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	desc, err := scenario.Descriptor()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}

	cfg := store.Config{
		Driver: scenario.Driver,
		DSN:    ":memory:",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if scenario.Driver == store.DriverDuckDB {
		cfg.DSN = ""
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	rec := &recorder{Store: st}
	opts := []mapper.Option{mapper.WithLogger(cfg.Logger)}
	if len(scenario.Keys) > 0 {
		opts = append(opts, mapper.WithKeyGenerator(&keyList{keys: scenario.Keys}))
	}

	h := &Harness{
		store:  rec,
		table:  mapper.NewTable(mapper.New(rec, opts...), desc),
		desc:   desc,
		logger: cfg.Logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}
	return result, nil
}

// executeStep runs one step, appends its trace event and records any
// expectation failure on the result.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	h.store.reset()

	var rows []schema.Record
	var err error
	switch step.Op {
	case OpEnsure:
		err = h.table.EnsureTable(ctx)
	case OpInsert:
		r := schema.Record(maps.Clone(step.Record))
		err = h.table.Insert(ctx, &r)
	case OpUpdate:
		r := schema.Record(maps.Clone(step.Record))
		err = h.table.Update(ctx, &r)
	case OpDelete:
		r := schema.Record(maps.Clone(step.Record))
		err = h.table.Delete(ctx, &r)
	case OpDrop:
		err = h.table.DropTable(ctx)
	case OpGetAll:
		var got []*schema.Record
		got, err = h.table.GetAll(ctx)
		if err == nil {
			rows = make([]schema.Record, len(got))
			for i, r := range got {
				rows[i] = *r
			}
		}
	}

	event := TraceEvent{
		Seq:        int64(index + 1),
		Op:         step.Op,
		Statements: h.store.statements(),
		Rows:       rows,
		Error:      schema.CodeOf(err),
	}
	if step.Op == OpGetAll && err == nil && event.Rows == nil {
		event.Rows = []schema.Record{}
	}
	result.Trace = append(result.Trace, event)

	if err != nil {
		h.logger.Debug("step failed", "seq", event.Seq, "op", step.Op, "error", err)
	}

	switch {
	case step.ExpectError != "" && err == nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got success", index, step.Op, step.ExpectError))
	case step.ExpectError != "" && schema.CodeOf(err) != step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %v", index, step.Op, step.ExpectError, err))
	case step.ExpectError == "" && err != nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", index, step.Op, err))
	case step.ExpectRows != nil:
		if msg := matchRows(h.desc, rows, step.ExpectRows); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", index, step.Op, msg))
		}
	}
}

// recorder is the store the scenario's mapper drives. It passes every call
// through and remembers the statement texts of the current step.
type recorder struct {
	*store.Store

	mu    sync.Mutex
	texts []string
}

func (r *recorder) Execute(ctx context.Context, text string) (*store.Cursor, error) {
	r.record(text)
	return r.Store.Execute(ctx, text)
}

func (r *recorder) Run(ctx context.Context, st store.Statement) error {
	r.record(st.Text)
	return r.Store.Run(ctx, st)
}

func (r *recorder) Scan(ctx context.Context, text string, fn func(columns []string, values []any) error) error {
	r.record(text)
	return r.Store.Scan(ctx, text, fn)
}

func (r *recorder) record(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = nil
}

func (r *recorder) statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// keyList hands out scenario keys in order. Unlike mapper.FixedGenerator it
// does not panic when exhausted: later inserts get an empty key, which the
// scenario then sees in its rows.
type keyList struct {
	keys []string
	idx  int
}

func (k *keyList) Generate() string {
	if k.idx >= len(k.keys) {
		return ""
	}
	key := k.keys[k.idx]
	k.idx++
	return key
}
