package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judgenot0/judge-checker/config"
	"github.com/judgenot0/judge-checker/handlers"
	"github.com/judgenot0/judge-checker/structs"
)

type fakeAcknowledger struct {
	mu    sync.Mutex
	acked []uint64
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error { return nil }

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return nil }

type fakePublisher struct {
	replies []*handlers.VerdictPayload
	err     error
	onReply func()
}

func (p *fakePublisher) Reply(d amqp.Delivery, payload *handlers.VerdictPayload) error {
	if p.onReply != nil {
		p.onReply()
	}
	p.replies = append(p.replies, payload)
	return p.err
}

func newTestScheduler(t *testing.T, publisher Publisher, workers int) *Scheduler {
	t.Helper()
	handler := handlers.NewHandler(&config.Config{BlockSize: 16, EngineKey: "secret"})
	s := NewScheduler(handler, publisher)
	require.NoError(t, s.With(workers))
	return s
}

func testRequest(t *testing.T, answer, output string) structs.CheckRequest {
	t.Helper()
	dir := t.TempDir()
	answerPath := filepath.Join(dir, "answer.txt")
	outputPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(answerPath, []byte(answer), 0o644))
	require.NoError(t, os.WriteFile(outputPath, []byte(output), 0o644))
	return structs.CheckRequest{ID: "1", CheckerType: "line", AnswerPath: answerPath, OutputPath: outputPath}
}

func TestWith(t *testing.T) {
	s := NewScheduler(handlers.NewHandler(&config.Config{}), nil)
	assert.Error(t, s.With(0))

	require.NoError(t, s.With(3))
	assert.Equal(t, 3, s.WorkerCount)
	assert.Len(t, s.WorkChannel, 3)
}

func TestWorkRepliesAndAcks(t *testing.T) {
	publisher := &fakePublisher{}
	s := newTestScheduler(t, publisher, 1)
	ack := &fakeAcknowledger{}

	w := <-s.WorkChannel
	d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, ReplyTo: "verdicts", CorrelationId: "1"}
	s.Work(w, testRequest(t, "3\n", "3"), d)

	assert.Equal(t, []uint64{7}, ack.acked)
	assert.Len(t, s.WorkChannel, 1)

	require.Len(t, publisher.replies, 1)
	reply := publisher.replies[0]
	assert.Equal(t, structs.VerdictAccepted, reply.Data.Verdict)
	assert.Equal(t, "1", reply.Data.ID)
	assert.True(t, handlers.VerifyToken(reply, "secret"))
}

func TestWorkWithoutReplyTo(t *testing.T) {
	publisher := &fakePublisher{}
	s := newTestScheduler(t, publisher, 1)
	ack := &fakeAcknowledger{}

	s.Work(<-s.WorkChannel, testRequest(t, "1\n", "2\n"), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1})

	assert.Empty(t, publisher.replies)
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Len(t, s.WorkChannel, 1)
}

func TestWorkPublishFailureStillAcks(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("channel closed")}
	s := newTestScheduler(t, publisher, 1)
	ack := &fakeAcknowledger{}

	s.Work(<-s.WorkChannel, testRequest(t, "1\n", "1\n"), amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, ReplyTo: "q"})

	assert.Len(t, publisher.replies, 1)
	assert.Equal(t, []uint64{2}, ack.acked)
	assert.Len(t, s.WorkChannel, 1)
}

func TestRunConcurrent(t *testing.T) {
	s := newTestScheduler(t, nil, 2)
	req := testRequest(t, "a\nb\n", "a \nb\n\n")

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := req
			verdict, err := s.Run(context.Background(), &r)
			assert.NoError(t, err)
			results[i] = verdict.Result
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		assert.Equal(t, structs.VerdictAccepted, result)
	}
	assert.Len(t, s.WorkChannel, 2)
}

func TestWorkFreesWorkerBeforeReply(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	s := newTestScheduler(t, publisher, 1)
	idle := -1
	publisher.onReply = func() { idle = len(s.WorkChannel) }

	s.Work(<-s.WorkChannel, testRequest(t, "1\n", "1\n"), amqp.Delivery{Acknowledger: &fakeAcknowledger{}, ReplyTo: "q"})

	assert.Equal(t, 1, idle)
}

func TestRunGivesUpWhenContextDone(t *testing.T) {
	s := newTestScheduler(t, nil, 1)
	req := testRequest(t, "1\n", "1\n")

	w := <-s.WorkChannel
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	verdict, err := s.Run(ctx, &req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, structs.VerdictInternalError, verdict.Result)
	assert.Equal(t, "line", verdict.Checker)
	assert.Empty(t, s.WorkChannel)

	s.WorkChannel <- w
	verdict, err = s.Run(context.Background(), &req)
	require.NoError(t, err)
	assert.Equal(t, structs.VerdictAccepted, verdict.Result)
}
