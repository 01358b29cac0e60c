//go:build integration

package worker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"topneum/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rdC) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	return rdb
}

func TestIntegration_EventoEncoladoLlegaAlWebhook(t *testing.T) {
	rdb := setupRedis(t)

	recibido := make(chan infra.Evento, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var ev infra.Evento
		_ = json.Unmarshal(body, &ev)
		recibido <- ev
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewEventoWorker(infra.NewWebhookClient(srv.URL, "s3cret"), infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil, rdb)
	StartWorkerPool(ctx, rdb, 1, w)

	require.NoError(t, NewDispatcher(rdb).EnqueueEvento(ctx, EventoTarifaPublicada, map[string]string{"id": "t1"}))

	select {
	case ev := <-recibido:
		assert.Equal(t, EventoTarifaPublicada, ev.Tipo)
		assert.JSONEq(t, `{"id":"t1"}`, string(ev.Payload))
	case <-time.After(15 * time.Second):
		t.Fatal("webhook not called")
	}
}

func TestIntegration_EntregaFallidaVaALaDLQ(t *testing.T) {
	rdb := setupRedis(t)
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = time.Second })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx := context.Background()
	w := NewEventoWorker(infra.NewWebhookClient(srv.URL, ""), infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil, rdb)
	w.Process(ctx, QueueEventos, Job{ID: "job-9", Type: EventoPedidoEstado, Payload: json.RawMessage(`{}`), Enqueued: time.Now()})

	n, err := DLQLength(ctx, rdb, QueueEventos)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
