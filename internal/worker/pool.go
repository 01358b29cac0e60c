package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueEventos = "jobs:eventos"

// Tipos de evento publicados despues de cada commit.
const (
	EventoPedidoCreado    = "pedido.creado"
	EventoPedidoEstado    = "pedido.estado_cambiado"
	EventoTarifaPublicada = "tarifa.publicada"
)

// Job is the envelope stored in the Redis list.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Enqueued time.Time       `json:"enqueued"`
}

// Dispatcher enqueues events into a Redis list.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEvento pushes a domain event. It is called only after the
// transaction that produced the event has committed.
func (d *Dispatcher) EnqueueEvento(ctx context.Context, tipo string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{ID: uuid.NewString(), Type: tipo, Payload: data, Enqueued: time.Now().UTC()}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, QueueEventos, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the event queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, w *EventoWorker) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, w)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, w *EventoWorker) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueEventos).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, w, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, w *EventoWorker, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	log.Debug().Str("type", job.Type).Str("job_id", job.ID).Msg("processing job")
	w.Process(ctx, queue, job)
}
