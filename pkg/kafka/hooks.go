package kafka

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ConsumerHook runs around each handler invocation. An error from BeforeHandle
// skips the handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, m kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, m kafka.Message, err error)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, m kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, m)
}

func (h HookFuncs) AfterHandle(ctx context.Context, m kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, m, err)
	}
}

// HookChain applies hooks in order before handling and in reverse after.
// A panicking hook is turned into an error.
type HookChain struct {
	hooks []ConsumerHook
}

func NewHookChain(hooks ...ConsumerHook) *HookChain {
	out := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return &HookChain{hooks: out}
}

func (c *HookChain) BeforeHandle(ctx context.Context, m kafka.Message) (_ context.Context, err error) {
	for _, h := range c.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("kafka hook panic: %v", r)
				}
			}()
			ctx, err = h.BeforeHandle(ctx, m)
		}()
		if err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, m kafka.Message, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		func() {
			defer func() { _ = recover() }()
			c.hooks[i].AfterHandle(ctx, m, err)
		}()
	}
}

type ctxKey struct{}

// WithTraceID stores a correlation id in ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// TraceIDFrom returns the correlation id stored in ctx, if any.
func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// ExtractTraceID reads the trace header from m.
func ExtractTraceID(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == TraceHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// TraceHook propagates the message trace id into the handler context, minting one when absent.
// Reports published from the handler inherit it.
func TraceHook() ConsumerHook {
	return HookFuncs{Before: func(ctx context.Context, m kafka.Message) (context.Context, error) {
		id := ExtractTraceID(m)
		if id == "" {
			id = uuid.NewString()
		}
		return WithTraceID(ctx, id), nil
	}}
}
