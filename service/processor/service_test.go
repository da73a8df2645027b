package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/action"
	aihandler "github.com/viant/procflow/service/action/ai"
	"github.com/viant/procflow/service/ai"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/approval/memory"
	"github.com/viant/procflow/service/dao"
	execdao "github.com/viant/procflow/service/dao/execution"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/service/executor"
)

// script runs automation steps with per step behaviour and records the
// order in which steps start and finish
type script struct {
	mux      sync.Mutex
	started  []string
	finished []string
	calls    map[string]int
	steps    map[string]func(ctx context.Context) (interface{}, error)
}

func newScript() *script {
	return &script{calls: map[string]int{}, steps: map[string]func(ctx context.Context) (interface{}, error){}}
}

func (s *script) Type() graph.StepType { return graph.StepTypeAutomation }

func (s *script) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	id := call.Step.ID
	s.mux.Lock()
	s.started = append(s.started, id)
	s.calls[id]++
	fn := s.steps[id]
	s.mux.Unlock()
	var output interface{} = id + "-done"
	var err error
	if fn != nil {
		output, err = fn(ctx)
	}
	s.mux.Lock()
	s.finished = append(s.finished, id)
	s.mux.Unlock()
	return output, err
}

func (s *script) Started() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]string(nil), s.started...)
}

func (s *script) Finished() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]string(nil), s.finished...)
}

func (s *script) Calls(id string) int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.calls[id]
}

type recorder struct {
	mux    sync.Mutex
	events []*event.Event
}

func (r *recorder) OnEvent(_ context.Context, e *event.Event) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Types() []event.Type {
	r.mux.Lock()
	defer r.mux.Unlock()
	var ret []event.Type
	for _, e := range r.events {
		ret = append(ret, e.Type)
	}
	return ret
}

type fixture struct {
	processor *Service
	script    *script
	approvals approval.Service
	events    *recorder
	store     execdao.Service
	notified  chan *execution.Context
}

func newFixture(t *testing.T, decider ai.Decider, approvals approval.Service) *fixture {
	t.Helper()
	if approvals == nil {
		approvals = memory.New(memory.WithLogger(logging.Discard()))
	}
	f := &fixture{
		script:    newScript(),
		approvals: approvals,
		events:    &recorder{},
		store:     execdao.NewMemory(),
		notified:  make(chan *execution.Context, 16),
	}
	bus := event.NewService(event.WithListeners(f.events), event.WithLogger(logging.Discard()))
	if decider == nil {
		decider = ai.NewStatic("approve", 1)
	}
	exec := executor.New(
		executor.WithHandlers(f.script, aihandler.New(decider, 0.7)),
		executor.WithApprovals(f.approvals),
		executor.WithPublisher(bus),
		executor.WithLogger(logging.Discard()),
		executor.WithConfig(executor.Config{RetryDelay: time.Millisecond}),
	)
	cfg := Config{Workers: 2, PollInterval: 5 * time.Millisecond, SLAInterval: 5 * time.Millisecond}
	var err error
	f.processor, err = New(
		WithExecutor(exec),
		WithApprovals(f.approvals),
		WithPublisher(bus),
		WithExecutionStore(f.store),
		WithLogger(logging.Discard()),
		WithConfig(cfg),
		WithNotifier(func(ctx context.Context, exec *execution.Context) { f.notified <- exec }),
	)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.processor.Start(ctx))
	t.Cleanup(func() {
		cancel()
		f.processor.Shutdown()
	})
	return f
}

func (f *fixture) run(t *testing.T, ctx context.Context, flow *model.Flow, input map[string]interface{}) *execution.Context {
	t.Helper()
	id, err := f.processor.Execute(ctx, flow, input)
	require.NoError(t, err)
	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exec, err := f.processor.Wait(waitCtx, id)
	require.NoError(t, err)
	return exec
}

func step(id string, deps ...string) *graph.Step {
	return graph.NewStep(id, graph.StepTypeAutomation).WithDependsOn(deps...)
}

func TestService_LinearChain(t *testing.T) {
	f := newFixture(t, nil, nil)
	flow := model.NewFlow("chain", "chain").WithSteps(step("c", "b"), step("a"), step("b", "a"))
	exec := f.run(t, context.Background(), flow, map[string]interface{}{"x": 1})

	assert.Equal(t, execution.StatusCompleted, exec.Status)
	assert.Equal(t, []string{"a", "b", "c"}, f.script.Started())
	assert.Equal(t, []string{"a", "b", "c"}, f.script.Finished())
	assert.Equal(t, "c-done", exec.Data["c"])
	assert.Equal(t, 1, exec.Data["x"])
	assert.NotNil(t, exec.EndedAt)

	select {
	case notified := <-f.notified:
		assert.Equal(t, exec.ID, notified.ID)
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}
	types := f.events.Types()
	assert.Equal(t, event.ExecutionStarted, types[0])
	assert.Equal(t, event.ExecutionCompleted, types[len(types)-1])

	stored, err := f.store.Load(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, stored.GetStatus())
}

func TestService_DiamondRunsMiddleLevelConcurrently(t *testing.T) {
	f := newFixture(t, nil, nil)
	var both sync.WaitGroup
	both.Add(2)
	arrive := func(ctx context.Context) (interface{}, error) {
		both.Done()
		done := make(chan struct{})
		go func() { both.Wait(); close(done) }()
		select {
		case <-done:
			return "ok", nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("sibling never started")
		}
	}
	f.script.steps["b"] = arrive
	f.script.steps["c"] = arrive
	flow := model.NewFlow("diamond", "diamond").WithSteps(step("a"), step("b", "a"), step("c", "a"), step("d", "b", "c"))
	exec := f.run(t, context.Background(), flow, nil)

	require.Equal(t, execution.StatusCompleted, exec.Status)
	started := f.script.Started()
	finished := f.script.Finished()
	assert.Equal(t, "a", started[0])
	assert.ElementsMatch(t, []string{"b", "c"}, started[1:3])
	assert.Equal(t, "d", started[3])
	assert.ElementsMatch(t, []string{"b", "c"}, finished[1:3])
	assert.Equal(t, "d", finished[3])
}

func TestService_AIConfidenceGating(t *testing.T) {
	testCases := []struct {
		description     string
		confidence      float64
		expectApprovals int
	}{
		{description: "low confidence requires approval", confidence: 0.5, expectApprovals: 1},
		{description: "high confidence skips approval", confidence: 0.9, expectApprovals: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			f := newFixture(t, ai.NewStatic("approve", tc.confidence), nil)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			defer approval.AutoApprove(ctx, f.approvals, 5*time.Millisecond)()

			flow := model.NewFlow("score", "score").WithSteps(graph.NewStep("score", graph.StepTypeAI), step("next", "score"))
			exec := f.run(t, ctx, flow, nil)
			assert.Equal(t, execution.StatusCompleted, exec.Status)
			assert.Len(t, exec.Interventions, tc.expectApprovals)
			require.Len(t, exec.Decisions, 1)
			assert.Equal(t, tc.confidence, exec.Decisions[0].Confidence)
			assert.Equal(t, 1, f.script.Calls("next"))
		})
	}
}

func TestService_ApprovalTimeoutFailsStep(t *testing.T) {
	approvals := memory.New(memory.WithLogger(logging.Discard()), memory.WithDefaultDeadline(20*time.Millisecond))
	f := newFixture(t, ai.NewStatic("approve", 0.1), approvals)
	flow := model.NewFlow("score", "score").WithSteps(graph.NewStep("score", graph.StepTypeAI), step("next", "score"))
	exec := f.run(t, context.Background(), flow, nil)

	assert.Equal(t, execution.StatusFailed, exec.Status)
	require.NotEmpty(t, exec.Errors)
	assert.Equal(t, "score", exec.Errors[0].StepID)
	assert.Equal(t, types.KindApprovalTimeout, exec.Errors[0].Kind)
	assert.Equal(t, 0, f.script.Calls("next"))
}

func TestService_FailureHandling(t *testing.T) {
	boom := errors.New("boom")
	testCases := []struct {
		description   string
		critical      bool
		fallback      bool
		expectStatus  execution.Status
		expectNext    int
		expectBackup  int
		expectItems   int
		expectErrKind string
	}{
		{description: "fallback recovers", fallback: true, expectStatus: execution.StatusCompleted, expectNext: 1, expectBackup: 1},
		{description: "critical escalates", critical: true, expectStatus: execution.StatusEscalated, expectItems: 1, expectErrKind: types.KindExecution},
		{description: "non critical fails", expectStatus: execution.StatusFailed, expectErrKind: types.KindExecution},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			f.script.steps["charge"] = func(ctx context.Context) (interface{}, error) { return nil, boom }
			charge := step("charge").WithRetries(1)
			charge.Critical = tc.critical
			steps := []*graph.Step{charge, step("next", "charge")}
			if tc.fallback {
				charge.WithFallback("backup")
				steps = append(steps, step("backup"))
			}
			flow := model.NewFlow("billing", "billing").WithSteps(steps...)
			exec := f.run(t, context.Background(), flow, nil)

			assert.Equal(t, tc.expectStatus, exec.Status)
			assert.Equal(t, 2, f.script.Calls("charge"))
			assert.Equal(t, tc.expectNext, f.script.Calls("next"))
			assert.Equal(t, tc.expectBackup, f.script.Calls("backup"))
			require.NotEmpty(t, exec.Errors)
			assert.Equal(t, "charge", exec.Errors[0].StepID)
			if tc.fallback {
				assert.Equal(t, "backup", exec.Errors[0].RecoveredBy)
				assert.Equal(t, execution.StepRecovered, exec.Steps["charge"].Status)
				assert.Equal(t, "backup-done", exec.Data["charge"])
			} else {
				assert.Equal(t, tc.expectErrKind, exec.Errors[0].Kind)
				assert.Equal(t, execution.StepFailed, exec.Steps["charge"].Status)
			}
			items, err := f.approvals.ListWorkItems(context.Background(), approval.WithExecutionID(exec.ID))
			require.NoError(t, err)
			assert.Len(t, items, tc.expectItems)
		})
	}
}

func TestService_RuleSkipSatisfiesDependents(t *testing.T) {
	testCases := []struct {
		description  string
		amount       int
		expectSkip   bool
		expectStatus execution.StepStatus
	}{
		{description: "rule matches", amount: 10, expectSkip: true, expectStatus: execution.StepSkipped},
		{description: "rule does not match", amount: 500, expectStatus: execution.StepCompleted},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			flow := model.NewFlow("onboard", "onboard").
				WithSteps(step("review"), step("activate", "review")).
				WithRule(&model.Rule{ID: "small", Steps: []string{"review"}, When: "amount < 100", Action: model.RuleActionSkip, Reason: "small amount"})
			exec := f.run(t, context.Background(), flow, map[string]interface{}{"amount": tc.amount})

			assert.Equal(t, execution.StatusCompleted, exec.Status)
			assert.Equal(t, 1, f.script.Calls("activate"))
			assert.Equal(t, tc.expectStatus, exec.Steps["review"].Status)
			if tc.expectSkip {
				assert.Equal(t, 0, f.script.Calls("review"))
				assert.Equal(t, "small amount", exec.Steps["review"].Reason)
				return
			}
			assert.Equal(t, 1, f.script.Calls("review"))
		})
	}
}

func TestService_CycleFailsExecution(t *testing.T) {
	f := newFixture(t, nil, nil)
	flow := model.NewFlow("cycle", "cycle").WithSteps(step("a", "b"), step("b", "a"))
	exec := f.run(t, context.Background(), flow, nil)
	assert.Equal(t, execution.StatusFailed, exec.Status)
	require.Len(t, exec.Errors, 1)
	assert.Equal(t, types.KindCyclic, exec.Errors[0].Kind)
	assert.Empty(t, f.script.Started())
}

func TestService_CancelStopsFurtherLevels(t *testing.T) {
	f := newFixture(t, nil, nil)
	release := make(chan struct{})
	entered := make(chan struct{})
	f.script.steps["a"] = func(ctx context.Context) (interface{}, error) {
		close(entered)
		<-release
		return "a", nil
	}
	flow := model.NewFlow("f", "f").WithSteps(step("a"), step("b", "a"))
	id, err := f.processor.Execute(context.Background(), flow, nil)
	require.NoError(t, err)
	<-entered
	require.NoError(t, f.processor.Cancel(context.Background(), id))
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exec, err := f.processor.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusFailed, exec.Status)
	assert.Equal(t, execution.StepCompleted, exec.Steps["a"].Status)
	assert.Equal(t, 0, f.script.Calls("b"))
	require.Len(t, exec.Errors, 1)
	assert.Equal(t, types.KindCancelled, exec.Errors[0].Kind)
	assert.ErrorIs(t, f.processor.Cancel(context.Background(), id), ErrNotActive)
}

func TestService_PauseResume(t *testing.T) {
	f := newFixture(t, nil, nil)
	release := make(chan struct{})
	entered := make(chan struct{})
	f.script.steps["a"] = func(ctx context.Context) (interface{}, error) {
		close(entered)
		<-release
		return "a", nil
	}
	flow := model.NewFlow("f", "f").WithSteps(step("a"), step("b", "a"))
	id, err := f.processor.Execute(context.Background(), flow, nil)
	require.NoError(t, err)
	<-entered
	require.NoError(t, f.processor.Pause(context.Background(), id))
	assert.Error(t, f.processor.Pause(context.Background(), id))
	close(release)

	time.Sleep(50 * time.Millisecond)
	snapshot, err := f.processor.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusPaused, snapshot.Status)
	assert.Equal(t, 0, f.script.Calls("b"))
	progress, ok := f.processor.Progress(id)
	require.True(t, ok)
	assert.Equal(t, 1, progress.CompletedSteps)
	assert.Equal(t, 2, progress.TotalSteps)

	require.NoError(t, f.processor.Resume(context.Background(), id))
	assert.Error(t, f.processor.Resume(context.Background(), id))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exec, err := f.processor.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, exec.Status)
	assert.Equal(t, 1, f.script.Calls("b"))
}

func TestService_SLAEscalation(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.script.steps["slow"] = func(ctx context.Context) (interface{}, error) {
		time.Sleep(100 * time.Millisecond)
		return "ok", nil
	}
	flow := model.NewFlow("sla", "sla flow").WithSteps(step("slow"))
	flow.SLA = &model.SLA{MaxDuration: "10ms", Escalation: []*model.EscalationRule{{After: "20ms", Assignee: "manager", Priority: "critical"}}}
	exec := f.run(t, context.Background(), flow, nil)

	assert.Equal(t, execution.StatusCompleted, exec.Status)
	items, err := f.approvals.ListWorkItems(context.Background(), approval.WithExecutionID(exec.ID))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "manager", items[0].Assignee)
	assert.Equal(t, approval.PriorityCritical, items[0].Priority)
	require.NotEmpty(t, exec.Interventions)
	assert.Equal(t, SLAActor, exec.Interventions[0].Actor)
	assert.Contains(t, f.events.Types(), event.SLABreached)
}

func TestService_QueriesAndErrors(t *testing.T) {
	f := newFixture(t, nil, nil)
	flow := model.NewFlow("q", "q").WithSteps(step("a"))
	exec := f.run(t, context.Background(), flow, nil)

	got, err := f.processor.Get(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, exec.ID, got.ID)

	_, err = f.processor.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrExecutionNotFound)

	list, err := f.processor.List(context.Background(), dao.NewParameter(execdao.ParamStatus, "completed"))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, ok := f.processor.Progress(exec.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, f.processor.Pause(context.Background(), exec.ID), ErrNotActive)

	_, err = f.processor.Execute(context.Background(), nil, nil)
	assert.Error(t, err)
	_, err = New()
	assert.Error(t, err)
}
