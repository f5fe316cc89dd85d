// Package queue implementa a fila de tarefas em segundo plano sobre listas do Redis
// (LPUSH para enfileirar, BRPOP para consumir) e o worker que as executa.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Task é a unidade de trabalho transportada pela fila.
type Task struct {
	ID         string    `json:"id"`
	Workflow   string    `json:"workflow"`
	RunLogID   string    `json:"runLogId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// FailedTask é uma tarefa que terminou com erro, guardada para inspeção.
type FailedTask struct {
	Task     Task      `json:"task"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failedAt"`
}

// Broker é o transporte da fila.
type Broker interface {
	Push(ctx context.Context, task Task) error
	// Pop espera até timeout por uma tarefa. ok=false indica que nada chegou.
	Pop(ctx context.Context, timeout time.Duration) (task Task, ok bool, err error)
	PushFailed(ctx context.Context, failed FailedTask) error
}

// NewTask cria uma tarefa para o workflow. Um taskID vazio gera um UUID.
func NewTask(taskID, workflow, runLogID string) Task {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	return Task{
		ID:         taskID,
		Workflow:   workflow,
		RunLogID:   runLogID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// maxFailed limita o tamanho da lista de tarefas com falha.
const maxFailed = 1000

// RedisBroker guarda as tarefas na lista <name> e as falhas em <name>:failed.
type RedisBroker struct {
	rdb  *redis.Client
	name string
}

// NewRedisBroker cria um broker sobre um cliente Redis já conectado.
func NewRedisBroker(rdb *redis.Client, name string) *RedisBroker {
	return &RedisBroker{rdb: rdb, name: name}
}

// Push enfileira a tarefa.
func (b *RedisBroker) Push(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("queue: falha ao serializar tarefa: %w", err)
	}
	if err := b.rdb.LPush(ctx, b.name, payload).Err(); err != nil {
		return fmt.Errorf("queue: falha ao enfileirar tarefa %s: %w", task.ID, err)
	}
	return nil
}

// Pop bloqueia até timeout esperando uma tarefa.
func (b *RedisBroker) Pop(ctx context.Context, timeout time.Duration) (Task, bool, error) {
	res, err := b.rdb.BRPop(ctx, timeout, b.name).Result()
	if errors.Is(err, redis.Nil) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, err
	}

	// BRPOP devolve [chave, valor]
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return Task{}, false, fmt.Errorf("queue: tarefa ilegível: %w", err)
	}
	return task, true, nil
}

// PushFailed registra a falha mantendo apenas as últimas maxFailed entradas.
func (b *RedisBroker) PushFailed(ctx context.Context, failed FailedTask) error {
	payload, err := json.Marshal(failed)
	if err != nil {
		return err
	}
	key := b.name + ":failed"
	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, maxFailed-1)
		return nil
	})
	return err
}
