package notify

import (
	"context"
	"sync"
	"time"

	"hackportal/internal/metrics"

	"go.uber.org/zap"
)

// Background - отправка "по возможности": ошибка только логируется и никогда не доходит до вызывающего
type Background struct {
	dispatcher Dispatcher
	logger     *zap.SugaredLogger
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewBackground(logger *zap.SugaredLogger, dispatcher Dispatcher, timeout time.Duration) *Background {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Background{
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    timeout,
	}
}

func (b *Background) Go(kind string, msg Message) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		err := b.dispatcher.Send(ctx, msg)
		metrics.ObserveNotification(kind, err)
		if err != nil {
			b.logger.Warnw("best-effort notification failed", "kind", kind, "to", msg.To, "err", err)
			return
		}
		b.logger.Debugw("notification sent", "kind", kind, "to", msg.To)
	}()
}

// Wait - дождаться всех отправок, вызывается при остановке сервера
func (b *Background) Wait() {
	b.wg.Wait()
}
