package problem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StatementsRepoPg struct {
	logger *zap.SugaredLogger
	db     *gorm.DB
}

func NewStatementsRepoPg(logger *zap.SugaredLogger, db *gorm.DB) *StatementsRepoPg {
	return &StatementsRepoPg{
		logger: logger,
		db:     db,
	}
}

// BulkInsert - всю пачку проверяем до записи, чтобы битая строка не оставила половину загрузки
func (repo *StatementsRepoPg) BulkInsert(ctx context.Context, rows []*Statement) (int, error) {
	repo.logger.Debugw("BulkInsert()", "rows", len(rows))

	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for i, st := range rows {
		st.Title = strings.TrimSpace(st.Title)
		if st.Title == "" {
			return 0, fmt.Errorf("row %d: title is empty: %w", i+1, ErrInvalidStatement)
		}
		if !st.Category.Valid() {
			return 0, fmt.Errorf("row %d: category %q: %w", i+1, st.Category, ErrInvalidCategory)
		}
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		st.CreatedAt = now
	}

	if err := repo.db.WithContext(ctx).CreateInBatches(rows, InsertBatch).Error; err != nil {
		repo.logger.Errorw("failed to insert statements", "rows", len(rows), "err", err)
		return 0, err
	}

	repo.logger.Infow("problem statements loaded", "rows", len(rows))
	return len(rows), nil
}

func (repo *StatementsRepoPg) List(ctx context.Context, category Category) ([]*Statement, error) {
	repo.logger.Debugw("List()", "category", category)

	query := repo.db.WithContext(ctx).Model(&Statement{})
	if category != "" {
		if !category.Valid() {
			return nil, ErrInvalidCategory
		}
		query = query.Where("category = ?", category)
	}

	var out []*Statement
	if err := query.Order("statement_id ASC").Find(&out).Error; err != nil {
		repo.logger.Errorw("failed to list statements", "err", err)
		return nil, err
	}
	return out, nil
}
