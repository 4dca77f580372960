package pgerr

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation - внутри транзакций gorm не всегда оборачивает ошибку драйвера,
// поэтому дополнительно смотрим на код SQLSTATE
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "SQLSTATE 23505")
}
