package service

import "errors"

// 服务层哨兵错误，handler 通过 errors.Is 映射到响应码与文案。
var (
	// 通用
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")

	// 认证
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")
	ErrUserDisabled       = errors.New("user disabled")

	// 用户
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	// 积分流水
	ErrPointsChangeZero          = errors.New("points change must not be zero")
	ErrInsufficientBalance       = errors.New("insufficient points balance")
	ErrNegativeBalanceNotAllowed = errors.New("negative balance not allowed")
	ErrPointsLogCreateFailed     = errors.New("points log create failed")
	ErrBalanceMismatch           = errors.New("cached balance does not match ledger")

	// 兑换卡
	ErrCardNotFound        = errors.New("exchange card not found")
	ErrCardRedeemed        = errors.New("exchange card already redeemed")
	ErrCardPointsLocked    = errors.New("points value locked after redemption")
	ErrCardQuantityInvalid = errors.New("card quantity out of range")
	ErrCardPointsInvalid   = errors.New("card points value invalid")
	ErrCardNumberExhausted = errors.New("card number generation exhausted")
	ErrCardCreateFailed    = errors.New("card create failed")
	ErrCardUpdateFailed    = errors.New("card update failed")
	ErrCardFetchFailed     = errors.New("card fetch failed")

	// 配置类
	ErrNameRequired      = errors.New("name required")
	ErrNameExists        = errors.New("name already exists")
	ErrApiKeyNotFound    = errors.New("api key not found")
	ErrAppConfigNotFound = errors.New("app config not found")
	ErrParentInvalid     = errors.New("parent category invalid")
	ErrVariableNotFound  = errors.New("variable not found")
)
