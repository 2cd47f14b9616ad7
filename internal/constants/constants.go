package constants

// 用户角色常量
const (
	UserRoleNormal = "normal"
	UserRolePaid   = "paid"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 兑换卡状态常量
const (
	ExchangeCardStatusAvailable = "available"
	ExchangeCardStatusRedeemed  = "redeemed"
)

// 积分变动类型常量
const (
	PointsChangeTypeCardRedeem   = "card_redeem"
	PointsChangeTypeFeatureUsage = "feature_usage"
	PointsChangeTypeRefund       = "refund"
	PointsChangeTypeAdminAdjust  = "admin_adjust"
	PointsChangeTypeRegisterGift = "register_gift"
)

// 积分变动方向常量
const (
	PointsDirectionIn  = "in"
	PointsDirectionOut = "out"
)

// 积分流水排序字段常量
const (
	PointsLogSortCreatedAt  = "created_at"
	PointsLogSortChangeType = "change_type"
)

// 功能配置类型常量
const (
	AppConfigTypeCategory = "category"
	AppConfigTypeFunction = "function"
)

// 设置键常量
const (
	SettingKeySiteConfig    = "site_config"
	SettingKeyDisplayConfig = "display_config"
	SettingKeyPointsConfig  = "points_config"
)

// 设置字段常量
const (
	SettingFieldPageSize           = "page_size"
	SettingFieldTableBorder        = "table_border"
	SettingFieldPointsFormat       = "points_format"
	SettingFieldRegisterGiftPoints = "register_gift_points"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskPointsLogPurge      = "retention:points_log_purge"
	TaskInactiveUserCleanup = "retention:inactive_user_cleanup"
	TaskExchangeCardCleanup = "retention:exchange_card_cleanup"
	TaskRedemptionReconcile = "ledger:redemption_reconcile"
)
