package saga

import (
	"context"

	"go.uber.org/zap"
)

type step struct {
	name string
	undo func(ctx context.Context) error
}

// Stack - список компенсаций: каждый успешный шаг кладет сюда свой откат,
// при ошибке дальше по цепочке откаты выполняются в обратном порядке
type Stack struct {
	logger *zap.SugaredLogger
	steps  []step
}

func New(logger *zap.SugaredLogger) *Stack {
	return &Stack{logger: logger}
}

func (s *Stack) Push(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, step{name: name, undo: undo})
}

func (s *Stack) Len() int {
	return len(s.steps)
}

// Rollback не останавливается на ошибке отката: лучше удалить как можно больше, остальное видно в логах
func (s *Stack) Rollback(ctx context.Context) int {
	failed := 0
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		if err := st.undo(ctx); err != nil {
			failed++
			s.logger.Errorw("compensation failed", "step", st.name, "err", err)
			continue
		}
		s.logger.Debugw("compensated", "step", st.name)
	}
	s.steps = nil
	return failed
}

// Forget - все шаги прошли, откатывать больше нечего
func (s *Stack) Forget() {
	s.steps = nil
}
