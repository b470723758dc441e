package support

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginTracePrefix = "login:trace:"
	traceTTL         = 24 * time.Hour
)

// ErrTraceNotFound indica trace inexistente ou já expirado.
var ErrTraceNotFound = errors.New("trace não encontrado")

// Commander é o subconjunto do cliente redis usado pela retenção de traces.
type Commander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// TraceStore retém traces de login no redis para consulta do suporte.
type TraceStore struct {
	redis Commander
}

// NewTraceStore cria o store sobre um cliente redis.
func NewTraceStore(client Commander) *TraceStore {
	return &TraceStore{redis: client}
}

// Save grava o trace como JSON com TTL. Retenção é melhor esforço: o
// chamador decide se a falha interrompe algo (no login, nunca interrompe).
func (s *TraceStore) Save(ctx context.Context, traceID string, trace any) error {
	payload, err := json.Marshal(trace)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, loginTracePrefix+traceID, payload, traceTTL).Err()
}

// Get devolve o trace bruto armazenado para o id informado.
func (s *TraceStore) Get(ctx context.Context, traceID string) (json.RawMessage, error) {
	raw, err := s.redis.Get(ctx, loginTracePrefix+traceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTraceNotFound
		}
		return nil, err
	}
	return json.RawMessage(raw), nil
}
