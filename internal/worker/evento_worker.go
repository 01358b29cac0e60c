package worker

// evento_worker.go
// Delivers committed domain events to the automation webhook and, for new
// orders, to the sales inbox by email. Delivery is best-effort: the
// transaction that produced the event has already committed.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"topneum/internal/dto"
	"topneum/internal/infra"
	"topneum/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxEntregas = 3

// Notificador sends a plain-text message to the sales inbox.
type Notificador interface {
	Notificar(subject, body string) error
}

type EventoWorker struct {
	webhook *infra.WebhookClient
	cb      *infra.CircuitBreaker
	mailer  Notificador // nil when SMTP is not configured
	rdb     *redis.Client
}

func NewEventoWorker(webhook *infra.WebhookClient, cb *infra.CircuitBreaker, mailer Notificador, rdb *redis.Client) *EventoWorker {
	return &EventoWorker{webhook: webhook, cb: cb, mailer: mailer, rdb: rdb}
}

// Process handles a single event:
//  1. POST it to the webhook through the circuit breaker, with backoff
//  2. On final failure, move it to the DLQ
//  3. For pedido.creado, email the sales inbox
func (w *EventoWorker) Process(ctx context.Context, queue string, job Job) {
	l := log.With().Str("job_id", job.ID).Str("tipo", job.Type).Logger()

	if w.webhook.Enabled() {
		ev := infra.Evento{ID: job.ID, Tipo: job.Type, Ocurrido: job.Enqueued, Payload: job.Payload}
		attempts := 0
		err := withRetry(ctx, maxEntregas, func(attempt int) error {
			attempts = attempt + 1
			return w.cb.Execute(func() error { return w.webhook.Enviar(ctx, ev) })
		})
		if err != nil {
			l.Error().Err(err).Int("attempts", attempts).Msg("evento_worker: webhook delivery failed")
			metrics.EventosEntregados.WithLabelValues(job.Type, "dlq").Inc()
			SendToDLQ(ctx, w.rdb, queue, job, err.Error(), attempts)
		} else {
			metrics.EventosEntregados.WithLabelValues(job.Type, "ok").Inc()
			l.Info().Msg("evento_worker: webhook delivered")
		}
	}

	if job.Type == EventoPedidoCreado && w.mailer != nil {
		var p dto.PedidoResponse
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			l.Error().Err(err).Msg("evento_worker: invalid pedido payload")
			return
		}
		subject, body := mensajePedido(p)
		if err := w.mailer.Notificar(subject, body); err != nil {
			l.Error().Err(err).Int("numero", p.Numero).Msg("evento_worker: failed to email sales inbox")
			return
		}
		l.Info().Int("numero", p.Numero).Msg("evento_worker: sales inbox notified")
	}
}

func mensajePedido(p dto.PedidoResponse) (string, string) {
	subject := fmt.Sprintf("Nuevo pedido #%d - %s", p.Numero, p.ClienteNombre)

	var b strings.Builder
	fmt.Fprintf(&b, "Pedido #%d\n", p.Numero)
	fmt.Fprintf(&b, "Cliente: %s (%s)\n", p.ClienteNombre, p.ClienteTelefono)
	fmt.Fprintf(&b, "Entrega: %s", p.ModoEntrega)
	if p.Direccion != "" {
		fmt.Fprintf(&b, " - %s", p.Direccion)
	}
	b.WriteString("\n\n")
	for _, it := range p.Items {
		ref := it.Codigo
		if ref == "" {
			ref = it.ProductoID
		}
		fmt.Fprintf(&b, "%d x %s @ %s = %s\n", it.Cantidad, ref, it.PrecioUnitario.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", p.Total.StringFixed(2))
	if p.Notas != "" {
		fmt.Fprintf(&b, "Notas: %s\n", p.Notas)
	}
	return subject, b.String()
}
