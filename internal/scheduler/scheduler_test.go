package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeheap-analysis/pkg/config"
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

type stubFetcher struct {
	mu       sync.Mutex
	tasks    []*Task
	denyLock map[int64]bool
	statuses map[int64]model.AnalysisStatus
	infos    map[int64]string
}

func newStubFetcher(tasks ...*Task) *stubFetcher {
	return &stubFetcher{
		tasks:    tasks,
		denyLock: make(map[int64]bool),
		statuses: make(map[int64]model.AnalysisStatus),
		infos:    make(map[int64]string),
	}
}

func (f *stubFetcher) FetchPendingTasks(ctx context.Context, limit int) ([]*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks := f.tasks
	f.tasks = nil
	return tasks, nil
}

func (f *stubFetcher) LockTask(ctx context.Context, taskID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.denyLock[taskID], nil
}

func (f *stubFetcher) UpdateTaskStatus(ctx context.Context, taskID int64, status model.AnalysisStatus, info string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[taskID] = status
	f.infos[taskID] = info
	return nil
}

func (f *stubFetcher) statusOf(taskID int64) (model.AnalysisStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[taskID]
	return status, ok
}

type stubProcessor struct {
	mu        sync.Mutex
	processed []string
	err       error
	onProcess func()
}

func (p *stubProcessor) Process(ctx context.Context, task *Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, task.UUID)
	if p.onProcess != nil {
		p.onProcess()
	}
	return p.err
}

func (p *stubProcessor) processedUUIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func testSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  10 * time.Millisecond,
		WorkerCount:   2,
		TaskBatchSize: 10,
	}
}

func TestScheduler_ProcessesFetchedTasks(t *testing.T) {
	fetcher := newStubFetcher(
		&Task{ID: 1, UUID: "task-1", Format: model.DumpFormatHeapV2},
		&Task{ID: 2, UUID: "task-2", Format: model.DumpFormatHeapV2},
	)
	processor := &stubProcessor{}

	s := New(testSchedulerConfig(), fetcher, processor, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(processor.processedUUIDs()) == 2
	}, time.Second, 10*time.Millisecond)

	assert.ElementsMatch(t, []string{"task-1", "task-2"}, processor.processedUUIDs())

	_, statusRecorded := fetcher.statusOf(1)
	assert.False(t, statusRecorded)
}

func TestScheduler_SkipsUnlockedTask(t *testing.T) {
	fetcher := newStubFetcher(
		&Task{ID: 1, UUID: "task-1"},
		&Task{ID: 2, UUID: "task-2"},
	)
	fetcher.denyLock[1] = true
	processor := &stubProcessor{}

	s := New(testSchedulerConfig(), fetcher, processor, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(processor.processedUUIDs()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"task-2"}, processor.processedUUIDs())
}

func TestScheduler_MarksFailedTask(t *testing.T) {
	fetcher := newStubFetcher(&Task{ID: 7, UUID: "task-7"})
	processor := &stubProcessor{err: errors.New("corrupt dump")}

	s := New(testSchedulerConfig(), fetcher, processor, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		status, ok := fetcher.statusOf(7)
		return ok && status == model.AnalysisStatusFailed
	}, time.Second, 10*time.Millisecond)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Contains(t, fetcher.infos[7], "corrupt dump")
}

func TestScheduler_ReleasesClaimedTaskOnStop(t *testing.T) {
	fetcher := newStubFetcher(&Task{ID: 9, UUID: "task-9"})
	s := New(testSchedulerConfig(), fetcher, &stubProcessor{}, nil)

	// No worker slots were handed out and the stop channel is closed,
	// so the claimed task cannot be dispatched.
	close(s.stopCh)
	s.pollOnce(context.Background())

	status, ok := fetcher.statusOf(9)
	require.True(t, ok)
	assert.Equal(t, model.AnalysisStatusPending, status)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Contains(t, fetcher.infos[9], "released")
}

func TestScheduler_TaskTimingUsesClock(t *testing.T) {
	var buf bytes.Buffer
	clock := utils.NewMockClock(time.Unix(0, 0))

	fetcher := newStubFetcher()
	processor := &stubProcessor{
		err:       errors.New("boom"),
		onProcess: func() { clock.Advance(90 * time.Second) },
	}

	s := New(testSchedulerConfig(), fetcher, processor, utils.NewDefaultLogger(utils.LevelInfo, &buf))
	s.clock = clock

	s.wg.Add(1)
	s.processTask(context.Background(), &Task{ID: 3, UUID: "task-3"})

	assert.Contains(t, buf.String(), "failed after 1m30s")
}

func TestScheduler_StatsConcurrentWithStop(t *testing.T) {
	s := New(testSchedulerConfig(), newStubFetcher(), &stubProcessor{}, nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.Stats()
		}
	}()

	s.Stop()
	<-done
	assert.False(t, s.Stats().Running)
}

func TestScheduler_Stats(t *testing.T) {
	s := New(testSchedulerConfig(), newStubFetcher(), &stubProcessor{}, nil)

	stats := s.Stats()
	assert.False(t, stats.Running)
	assert.Equal(t, 2, stats.TotalWorkers)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Stats().Running)
	s.Stop()
	assert.False(t, s.Stats().Running)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.SchedulerConfig{
		PollInterval:  5,
		WorkerCount:   3,
		TaskBatchSize: 20,
	}

	sc := FromConfig(cfg)
	assert.Equal(t, 5*time.Second, sc.PollInterval)
	assert.Equal(t, 3, sc.WorkerCount)
	assert.Equal(t, 20, sc.TaskBatchSize)
}
