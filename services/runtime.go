package services

import (
	"assetmap/models"
	"context"
	"errors"
	"log/slog"
)

// ErrRuntimeStopped - 메인 레인이 이미 종료됨
var ErrRuntimeStopped = errors.New("runtime stopped")

// Runtime is the main lane. One goroutine owns the position store, the
// selection, the render engine and the hit tester; everything else reaches
// them through Do.
type Runtime struct {
	mailbox   *Mailbox
	store     *PositionStore
	selection *SelectionState
	engine    *RenderEngine
	hit       *HitTester
	lookup    DescriptorLookup
	logger    *slog.Logger
	metrics   *PipelineMetrics

	cmds chan func()
	done chan struct{}
}

// RuntimeDeps groups the main-lane components.
type RuntimeDeps struct {
	Mailbox   *Mailbox
	Store     *PositionStore
	Selection *SelectionState
	Engine    *RenderEngine
	HitTester *HitTester
	Lookup    DescriptorLookup
	Logger    *slog.Logger
	Metrics   *PipelineMetrics
}

func NewRuntime(deps RuntimeDeps) *Runtime {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		mailbox:   deps.Mailbox,
		store:     deps.Store,
		selection: deps.Selection,
		engine:    deps.Engine,
		hit:       deps.HitTester,
		lookup:    deps.Lookup,
		logger:    logger,
		metrics:   deps.Metrics,
		cmds:      make(chan func()),
		done:      make(chan struct{}),
	}
}

// Run processes mailbox records and commands until ctx is cancelled, then
// closes the mailbox and every store subscription.
func (r *Runtime) Run(ctx context.Context) {
	r.logger.Info("메인 레인 시작")
	defer func() {
		r.mailbox.Close()
		r.store.Close()
		close(r.done)
		r.logger.Info("메인 레인 종료", "counter", r.store.Counter(), "tracked", r.store.Len())
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.mailbox.Ready():
			r.ingestPending()
		case fn := <-r.cmds:
			fn()
		}
	}
}

func (r *Runtime) ingestPending() {
	for _, w := range r.mailbox.Drain() {
		rec, err := r.store.Ingest(w)
		if err != nil {
			r.metrics.dropped(DropReasonRecord)
			r.logger.Warn("잘못된 와이어 레코드 버림", "error", err)
			continue
		}
		r.metrics.ingested(r.store.Len())
		r.logger.Debug("위치 갱신", "object_id", rec.ObjectID, "counter", r.store.Counter())
	}
}

// Do runs fn on the main lane and waits for it to finish.
func (r *Runtime) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn()
	}

	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrRuntimeStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished
	return nil
}

// Done is closed once Run has returned.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

// The accessors below are only valid inside a Do callback.

func (r *Runtime) Store() *PositionStore { return r.store }

func (r *Runtime) Selection() *SelectionState { return r.selection }

func (r *Runtime) Engine() *RenderEngine { return r.engine }

func (r *Runtime) HitTester() *HitTester { return r.hit }

func (r *Runtime) Lookup() DescriptorLookup { return r.lookup }

// SelectionDetails returns the control-panel payload for the current
// selection. ok is false when nothing is selected.
func (r *Runtime) SelectionDetails() (models.SelectionData, bool) {
	id, ok := r.selection.Selected()
	if !ok {
		return models.SelectionData{}, false
	}
	return selectionDetails(r.store, r.lookup, id), true
}
