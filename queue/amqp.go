package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/judgenot0/judge-checker/config"
	"github.com/judgenot0/judge-checker/handlers"
	"github.com/judgenot0/judge-checker/scheduler"
	"github.com/judgenot0/judge-checker/structs"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	initialBackoff        = time.Second
	maxBackoff            = 30 * time.Second
	defaultPublishTimeout = 30 * time.Second
)

type Queue struct {
	// mu guards conn, ch and reconnecting.
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
	// reconnecting is closed when the reconnect in flight finishes.
	reconnecting chan struct{}

	msgs           <-chan amqp.Delivery
	queueName      string
	rabbitmqURL    string
	workerCount    int
	publishTimeout time.Duration
}

func NewQueue() *Queue {
	return &Queue{publishTimeout: defaultPublishTimeout}
}

func (q *Queue) InitQueue(config *config.Config) error {
	q.queueName = config.QueueName
	q.rabbitmqURL = config.RabbitMQURL
	q.workerCount = config.WorkerCount

	conn, ch, err := q.dial()
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.conn, q.ch = conn, ch
	q.mu.Unlock()
	return nil
}

func (q *Queue) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(q.rabbitmqURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrap(err, "failed to open channel")
	}

	err = ch.Qos(q.workerCount, 0, false)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, errors.Wrap(err, "failed to set QoS")
	}

	args := amqp.Table{
		"x-queue-type": "quorum",
	}
	_, err = ch.QueueDeclare(q.queueName, true, false, false, false, args)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, errors.Wrapf(err, "failed to declare queue %q", q.queueName)
	}

	return conn, ch, nil
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (q *Queue) healthyLocked() bool {
	return q.ch != nil && !q.ch.IsClosed() && q.conn != nil && !q.conn.IsClosed()
}

// detach drops the current connection if its channel is still ch (nil drops
// whatever is there) and closes it outside the lock.
func (q *Queue) detach(ch *amqp.Channel) {
	q.mu.Lock()
	if ch != nil && q.ch != ch {
		q.mu.Unlock()
		return
	}
	oldConn, oldCh := q.conn, q.ch
	q.conn, q.ch = nil, nil
	q.mu.Unlock()

	if oldCh != nil {
		oldCh.Close()
	}
	if oldConn != nil {
		oldConn.Close()
	}
}

// channel returns an open channel. Only one caller reconnects at a time; the
// others wait for it and pick up its channel, giving up when their own ctx is
// done.
func (q *Queue) channel(ctx context.Context) (*amqp.Channel, error) {
	for {
		q.mu.Lock()
		if q.healthyLocked() {
			ch := q.ch
			q.mu.Unlock()
			return ch, nil
		}
		if wait := q.reconnecting; wait != nil {
			q.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-wait:
			}
			continue
		}
		done := make(chan struct{})
		q.reconnecting = done
		q.mu.Unlock()

		err := q.reconnect(ctx)

		q.mu.Lock()
		q.reconnecting = nil
		q.mu.Unlock()
		close(done)

		if err != nil {
			return nil, err
		}
	}
}

// reconnect retries until a connection is up or ctx is done. Callers go
// through channel so that only one reconnect runs.
func (q *Queue) reconnect(ctx context.Context) error {
	log.Warn().Msg("Attempting to reconnect to RabbitMQ...")
	q.detach(nil)

	backoff := initialBackoff
	for {
		conn, ch, err := q.dial()
		if err == nil {
			q.mu.Lock()
			q.conn, q.ch = conn, ch
			q.mu.Unlock()
			log.Info().Msg("Successfully reconnected to RabbitMQ")
			return nil
		}

		log.Warn().Err(err).Dur("retry_in", backoff).Msg("Reconnection failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

func (q *Queue) publish(routingKey string, msg amqp.Publishing) error {
	timeout := q.publishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ch, err := q.channel(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to publish")
	}

	err = ch.PublishWithContext(ctx, "", routingKey, false, false, msg)
	if err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("Failed to publish message, attempting reconnect")
		q.detach(ch)
		if ch, err = q.channel(ctx); err != nil {
			return errors.Wrap(err, "failed to publish")
		}
		err = ch.PublishWithContext(ctx, "", routingKey, false, false, msg)
	}
	return errors.Wrap(err, "failed to publish")
}

// QueueMessage publishes a JSON encoded check request onto the check queue.
func (q *Queue) QueueMessage(request []byte) error {
	return q.publish(q.queueName, amqp.Publishing{
		ContentType: "application/json",
		Body:        request,
	})
}

// Reply publishes payload to the delivery's reply queue.
func (q *Queue) Reply(d amqp.Delivery, payload *handlers.VerdictPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal verdict")
	}
	return q.publish(d.ReplyTo, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: d.CorrelationId,
		Body:          body,
	})
}

func decodeRequest(d amqp.Delivery) (structs.CheckRequest, error) {
	var req structs.CheckRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		return req, errors.Wrap(err, "invalid message body")
	}
	if req.AnswerPath == "" || req.OutputPath == "" {
		return req, errors.New("invalid message body: answer_path and output_path are required")
	}
	if req.ID == "" {
		req.ID = d.CorrelationId
	}
	if req.ID == "" {
		req.ID = d.MessageId
	}
	return req, nil
}

func (q *Queue) StartConsume(ctx context.Context, scheduler *scheduler.Scheduler) error {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping consumer")
			return nil
		default:
		}

		ch, err := q.channel(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		q.msgs, err = ch.Consume(q.queueName, "", false, false, false, false, nil)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to start consuming, attempting reconnect")
			q.detach(ch)
			continue
		}

		log.Info().Str("queue", q.queueName).Msg("Started consuming messages from queue")

		if q.consume(ctx, scheduler) {
			return nil
		}

		log.Warn().Msg("Message channel closed, attempting to reconnect...")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}

// consume dispatches deliveries to free workers until the channel closes.
// It reports whether ctx was cancelled.
func (q *Queue) consume(ctx context.Context, scheduler *scheduler.Scheduler) bool {
	for {
		var d amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping consumer loop")
			return true
		case d, ok = <-q.msgs:
			if !ok {
				return false
			}
		}

		req, err := decodeRequest(d)
		if err != nil {
			log.Error().Err(err).Bytes("body", d.Body).Msg("Dropping message")
			d.Nack(false, false)
			continue
		}

		select {
		case <-ctx.Done():
			d.Nack(false, true)
			return true
		case worker := <-scheduler.WorkChannel:
			go func(delivery amqp.Delivery, w structs.Worker, req structs.CheckRequest) {
				defer func() {
					// Work acks and releases the worker on its own way out.
					if r := recover(); r != nil {
						log.Error().Interface("panic", r).Str("id", req.ID).Msg("Panic in scheduler.Work")
					}
				}()
				scheduler.Work(w, req, delivery)
			}(d, worker, req)
		case <-time.After(5 * time.Minute):
			log.Warn().Msg("No workers available for 5 minutes, message will be redelivered")
			d.Nack(false, true)
		}
	}
}

func (q *Queue) Close() error {
	q.mu.Lock()
	conn, ch := q.conn, q.ch
	q.conn, q.ch = nil, nil
	q.mu.Unlock()

	var errs []error
	if ch != nil {
		if err := ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
