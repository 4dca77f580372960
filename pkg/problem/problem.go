package problem

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCategory  = errors.New("INVALID_STATEMENT_CATEGORY")
	ErrInvalidStatement = errors.New("INVALID_STATEMENT")
)

// InsertBatch - как и для профилей, не больше 400 строк в одном INSERT
const InsertBatch = 400

type Category string

const (
	CategorySoftware Category = "Software"
	CategoryHardware Category = "Hardware"
	CategoryBoth     Category = "Hardware & Software"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySoftware, CategoryHardware, CategoryBoth:
		return true
	}
	return false
}

// Statement - строка из загружаемой таблицы, после вставки не меняется
type Statement struct {
	ID           string    `gorm:"primaryKey;type:varchar(64);column:id" json:"id"`
	StatementID  string    `gorm:"type:varchar(64);index;column:statement_id" json:"statement_id"`
	Title        string    `gorm:"type:varchar(512);not null;column:title" json:"title"`
	Category     Category  `gorm:"type:varchar(32);index;not null;column:category" json:"category"`
	Theme        string    `gorm:"type:varchar(255);column:theme" json:"theme"`
	DatasetLink  string    `gorm:"type:text;column:dataset_link" json:"dataset_link"`
	Description  string    `gorm:"type:text;column:description" json:"description"`
	Department   string    `gorm:"type:varchar(255);column:department" json:"department"`
	Organization string    `gorm:"type:varchar(255);column:organization" json:"organization"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Statement) TableName() string {
	return "problem_statements"
}

type StatementsRepo interface {
	BulkInsert(ctx context.Context, rows []*Statement) (int, error)
	List(ctx context.Context, category Category) ([]*Statement, error)
}
