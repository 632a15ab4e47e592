package scheduler

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/judgenot0/judge-checker/handlers"
	"github.com/judgenot0/judge-checker/structs"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends a verdict back to whoever asked for the check.
type Publisher interface {
	Reply(d amqp.Delivery, payload *handlers.VerdictPayload) error
}

type Scheduler struct {
	WorkChannel chan structs.Worker
	WorkerCount int
	Handler     *handlers.Handler
	publisher   Publisher
}

func NewScheduler(handler *handlers.Handler, publisher Publisher) *Scheduler {
	return &Scheduler{
		Handler:   handler,
		publisher: publisher,
	}
}

func (mngr *Scheduler) With(workerCount int) error {
	if workerCount < 1 {
		return errors.Errorf("worker count must be positive, got %d", workerCount)
	}
	mngr.WorkChannel = make(chan structs.Worker, workerCount)
	mngr.WorkerCount = workerCount

	for i := 0; i < workerCount; i++ {
		mngr.WorkChannel <- structs.Worker{Id: i}
		log.Debug().Int("worker", i).Msg("worker added to pool")
	}
	log.Info().Int("workers", workerCount).Msg("worker pool ready")
	return nil
}

// Work checks req on w and gives w back to the pool as soon as the check is
// done. The verdict is then published when the delivery asks for it and the
// delivery is acked.
func (mngr *Scheduler) Work(w structs.Worker, req structs.CheckRequest, d amqp.Delivery) {
	defer func() {
		if err := d.Ack(false); err != nil {
			log.Error().Err(err).Str("id", req.ID).Msg("failed to ack delivery")
		}
	}()

	verdict := mngr.checkOn(w, &req)
	log.Info().Int("worker", w.Id).Str("id", req.ID).Str("checker", verdict.Checker).Str("verdict", verdict.Result).Dur("took", verdict.Duration).Msg("check done")

	if d.ReplyTo == "" || mngr.publisher == nil {
		return
	}

	var secret string
	if mngr.Handler.Config != nil {
		secret = mngr.Handler.Config.EngineKey
	}
	payload, err := handlers.GenerateToken(&verdict, secret)
	if err != nil {
		log.Error().Err(err).Str("id", req.ID).Msg("failed to sign verdict")
		return
	}
	if err := mngr.publisher.Reply(d, payload); err != nil {
		log.Error().Err(err).Str("id", req.ID).Str("reply_to", d.ReplyTo).Msg("failed to publish verdict")
	}
}

func (mngr *Scheduler) checkOn(w structs.Worker, req *structs.CheckRequest) structs.Verdict {
	defer func() {
		mngr.WorkChannel <- w
	}()
	return mngr.Handler.Check(req)
}

// Run checks req synchronously on a borrowed worker. It gives up with an ie
// verdict when ctx is done before a worker frees up.
func (mngr *Scheduler) Run(ctx context.Context, req *structs.CheckRequest) (structs.Verdict, error) {
	select {
	case w := <-mngr.WorkChannel:
		return mngr.checkOn(w, req), nil
	case <-ctx.Done():
		return structs.Verdict{
			Request: req,
			Checker: req.CheckerType,
			Result:  structs.VerdictInternalError,
		}, errors.Wrap(ctx.Err(), "no free worker")
	}
}
