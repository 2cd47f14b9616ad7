package repository

import "time"

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page         int
	PageSize     int
	Keyword      string
	Role         string
	Status       string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	LastActiveTo *time.Time
	MaxPoints    *int64
}

// PointsLogListFilter 查询积分流水列表的过滤条件
type PointsLogListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	ChangeType  string
	Direction   string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string // created_at / change_type
	SortDesc    bool
}

// ExchangeCardListFilter 查询兑换卡列表的过滤条件
type ExchangeCardListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	BatchID     uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ApiKeyListFilter 查询 API 密钥列表的过滤条件
type ApiKeyListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Enabled  *bool
}

// AppConfigListFilter 查询功能配置列表的过滤条件
type AppConfigListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Type     string
	ParentID *uint
	Enabled  *bool
}

// VariableListFilter 查询公共变量列表的过滤条件
type VariableListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Enabled  *bool
}
