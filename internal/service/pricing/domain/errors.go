package domain

import "errors"

// 定价领域的错误分类，适配器用 github.com/pkg/errors 包装，调用方用 errors.Is 判断。
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateDecision = errors.New("duplicate pricing decision key")
	ErrDecisionConflict  = errors.New("pricing decision conflict")
	ErrOracleUnavailable = errors.New("confidence oracle unavailable")
	ErrPriceOutOfBounds  = errors.New("price outside product bounds")
)
