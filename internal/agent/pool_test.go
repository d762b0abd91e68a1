package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/discovery"
	"mosaic/internal/llm"
)

type fakeRunner struct {
	lastModel string
	calls     int
	err       error
}

func (f *fakeRunner) Generate(ctx context.Context, model, sessionID string, messages []llm.Message, emit func(Event)) (*llm.Completion, error) {
	f.calls++
	f.lastModel = model
	if f.err != nil {
		return nil, f.err
	}
	emit(Event{Type: EventToken, Data: "hi"})
	emit(Event{Type: EventDone})
	return &llm.Completion{Content: "hi", Model: model}, nil
}

type poolFixture struct {
	pool    *Pool
	runner  *fakeRunner
	created int
}

func newPoolFixture(lister discovery.Lister) *poolFixture {
	f := &poolFixture{runner: &fakeRunner{}}
	factory := func(modeID string) (Runner, error) {
		f.created++
		return f.runner, nil
	}
	f.pool = NewPool(factory, lister)
	return f
}

func staticLister() discovery.Lister {
	return discovery.Static{Models: []discovery.Model{
		{Name: "qwen2.5:7b"},
		{Name: "qwen2.5:14b"},
	}}
}

type downLister struct{}

func (downLister) ListModels(context.Context) ([]discovery.Model, error) {
	return nil, errors.New("connection refused")
}

func TestPoolLazyCreation(t *testing.T) {
	f := newPoolFixture(staticLister())

	assert.Empty(t, f.pool.Snapshot())
	assert.Zero(t, f.created)

	in, err := f.pool.GetOrCreate("chain")
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:7b", in.Model())
	assert.Equal(t, 1, f.created)

	// second lookup reuses the instance
	again, err := f.pool.GetOrCreate("chain")
	require.NoError(t, err)
	assert.Same(t, in, again)
	assert.Equal(t, 1, f.created)
}

func TestPoolUnknownMode(t *testing.T) {
	f := newPoolFixture(staticLister())
	_, err := f.pool.GetOrCreate("oracle")
	assert.ErrorIs(t, err, ErrUnknownMode)

	err = f.pool.Configure(context.Background(), "oracle", "qwen2.5:7b")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestPoolConfigure(t *testing.T) {
	f := newPoolFixture(staticLister())
	ctx := context.Background()

	require.NoError(t, f.pool.Configure(ctx, "agent", "qwen2.5:14b"))
	assert.Equal(t, map[string]string{"agent": "qwen2.5:14b"}, f.pool.Snapshot())

	// the model rebinds in place, the runner is kept
	assert.Equal(t, 1, f.created)

	// same model again is a no-op
	require.NoError(t, f.pool.Configure(ctx, "agent", "qwen2.5:14b"))
	assert.Equal(t, 1, f.created)
}

func TestPoolRecreate(t *testing.T) {
	f := newPoolFixture(staticLister())
	ctx := context.Background()

	require.NoError(t, f.pool.Configure(ctx, "agent", "qwen2.5:14b"))
	assert.Equal(t, 1, f.created)

	require.NoError(t, f.pool.Recreate("agent"))
	assert.Equal(t, 2, f.created)

	// the model binding survives the rebuild
	assert.Equal(t, "qwen2.5:14b", f.pool.Snapshot()["agent"])

	err := f.pool.Recreate("oracle")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestPoolConfigureRejectsUnknownModel(t *testing.T) {
	f := newPoolFixture(staticLister())

	err := f.pool.Configure(context.Background(), "agent", "gpt-oss:120b")
	require.ErrorIs(t, err, ErrUnknownModel)
	assert.Empty(t, f.pool.Snapshot())
}

func TestPoolConfigureAcceptsWhenDiscoveryDown(t *testing.T) {
	f := newPoolFixture(downLister{})

	err := f.pool.Configure(context.Background(), "agent", "gpt-oss:120b")
	require.NoError(t, err)
	assert.Equal(t, "gpt-oss:120b", f.pool.Snapshot()["agent"])
}

func TestPoolDispatch(t *testing.T) {
	f := newPoolFixture(staticLister())

	resp, err := f.pool.Dispatch(context.Background(), "chain", "", "s1",
		[]llm.Message{{Role: "user", Content: "hello"}}, func(Event) {})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	assert.Equal(t, "qwen2.5:7b", f.runner.lastModel)
}

func TestPoolDispatchRebindsModel(t *testing.T) {
	f := newPoolFixture(staticLister())

	_, err := f.pool.Dispatch(context.Background(), "chain", "qwen2.5:14b", "s1",
		[]llm.Message{{Role: "user", Content: "hello"}}, func(Event) {})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:14b", f.runner.lastModel)
	assert.Equal(t, "qwen2.5:14b", f.pool.Snapshot()["chain"])

	// a later dispatch without a model override keeps the binding
	_, err = f.pool.Dispatch(context.Background(), "chain", "", "s1",
		[]llm.Message{{Role: "user", Content: "again"}}, func(Event) {})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:14b", f.runner.lastModel)
}

func TestPoolDispatchRejectsUnknownModel(t *testing.T) {
	f := newPoolFixture(staticLister())

	_, err := f.pool.Dispatch(context.Background(), "chain", "gpt-oss:120b", "s1",
		[]llm.Message{{Role: "user", Content: "hello"}}, func(Event) {})
	require.ErrorIs(t, err, ErrUnknownModel)
	assert.Zero(t, f.runner.calls)
}
