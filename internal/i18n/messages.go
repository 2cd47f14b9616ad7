package i18n

// messages 内置文案表
var messages = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":            "请求参数错误",
		"error.unauthorized":           "未登录或登录已过期",
		"error.forbidden":              "没有操作权限",
		"error.not_found":              "资源不存在",
		"error.internal":               "服务器内部错误",
		"error.save_failed":            "保存失败",
		"error.delete_failed":          "删除失败",
		"error.query_failed":           "查询失败",
		"error.too_many_requests":      "请求过于频繁，请稍后再试",
		"error.rate_limit_unavailable": "限流服务不可用",
		"error.rate_limited":           "请求过于频繁，请 %d 秒后重试",
		"error.login_too_many":         "登录尝试过于频繁，请 %d 秒后重试",

		"error.jwt_secret_missing":       "JWT 密钥未配置",
		"error.token_invalid":            "登录凭证无效",
		"error.token_revoked":            "登录凭证已失效，请重新登录",
		"error.auth_header_missing":      "缺少认证信息",
		"error.auth_header_invalid":      "认证信息格式错误",
		"error.invalid_credentials":      "账号或密码错误",
		"error.password_old_invalid":     "原密码不正确",
		"error.password_weak":            "密码强度不足",
		"error.password_min_length":      "密码长度不能少于 %d 位",
		"error.password_require_upper":   "密码必须包含大写字母",
		"error.password_require_lower":   "密码必须包含小写字母",
		"error.password_require_number":  "密码必须包含数字",
		"error.password_require_special": "密码必须包含特殊字符",

		"error.user_not_found": "用户不存在",
		"error.email_invalid":  "邮箱格式不正确",
		"error.email_exists":   "邮箱已被注册",
		"error.user_exists":    "该邮箱已注册",
		"error.user_disabled":  "账号已被禁用",

		"error.card_invalid":          "兑换码无效",
		"error.card_already_redeemed": "兑换码已被使用",
		"error.card_points_locked":    "已兑换的卡不允许修改面值",
		"error.card_quantity_invalid": "生成数量必须在 1 到 100 之间",
		"error.card_points_invalid":   "卡面值必须大于 0",
		"error.card_number_exhausted": "卡号生成失败，请稍后重试",

		"error.points_change_zero":   "积分变动不能为 0",
		"error.insufficient_balance": "积分余额不足",
		"error.negative_not_allowed": "不允许将余额调整为负数",

		"error.name_required":        "名称不能为空",
		"error.name_exists":          "名称已存在",
		"error.api_key_not_found":    "API 密钥不存在",
		"error.app_config_not_found": "功能配置不存在",
		"error.parent_invalid":       "父级分类无效",
		"error.variable_not_found":   "变量不存在",

		"error.admin_id_invalid":      "管理员身份无效",
		"error.admin_id_type_invalid": "管理员身份类型错误",
		"error.user_id_invalid":       "用户身份无效",
		"error.user_id_type_invalid":  "用户身份类型错误",
		"error.login_failed":          "登录失败",
		"error.register_failed":       "注册失败",

		"error.card_not_found":     "兑换卡不存在",
		"error.card_create_failed": "兑换卡生成失败",
		"error.card_fetch_failed":  "兑换卡查询失败",
		"error.card_update_failed": "兑换卡更新失败",
		"error.card_delete_failed": "兑换卡删除失败",
		"error.card_redeem_failed": "兑换失败",

		"error.points_log_fetch_failed": "积分流水查询失败",
		"error.points_adjust_failed":    "积分调整失败",
		"error.balance_mismatch":        "积分余额校验不一致",

		"error.user_fetch_failed":  "用户查询失败",
		"error.user_update_failed": "用户更新失败",
		"error.user_delete_failed": "用户删除失败",
		"error.role_invalid":       "用户角色无效",

		"error.dashboard_fetch_failed": "统计数据获取失败",
		"error.settings_fetch_failed":  "设置获取失败",
		"error.settings_save_failed":   "设置保存失败",
		"error.cleanup_failed":         "清理任务执行失败",
		"error.queue_unavailable":      "队列服务不可用",

		"error.authz_failed":        "权限操作失败",
		"error.admin_exists":        "管理员账号已存在",
		"error.admin_not_found":     "管理员不存在",
		"error.admin_create_failed": "管理员创建失败",
		"error.admin_update_failed": "管理员更新失败",
		"error.admin_delete_failed": "管理员删除失败",

		"error.admin_username_invalid":      "管理员账号不合法",
		"error.admin_delete_self_forbidden": "不能删除当前登录的管理员",
		"error.admin_delete_protected":      "该管理员受保护，不能删除",
		"error.admin_delete_last_forbidden": "至少保留一个管理员",

		"error.category_has_children": "分类下还有功能，无法删除",

		"message.ok": "操作成功",
	},
	LocaleEnUS: {
		"error.bad_request":            "invalid request parameters",
		"error.unauthorized":           "not signed in or session expired",
		"error.forbidden":              "permission denied",
		"error.not_found":              "resource not found",
		"error.internal":               "internal server error",
		"error.save_failed":            "failed to save",
		"error.delete_failed":          "failed to delete",
		"error.query_failed":           "failed to query",
		"error.too_many_requests":      "too many requests, please retry later",
		"error.rate_limit_unavailable": "rate limiter unavailable",
		"error.rate_limited":           "too many requests, retry in %d seconds",
		"error.login_too_many":         "too many login attempts, retry in %d seconds",

		"error.jwt_secret_missing":       "JWT secret is not configured",
		"error.token_invalid":            "invalid credentials",
		"error.token_revoked":            "credentials revoked, please sign in again",
		"error.auth_header_missing":      "missing authorization header",
		"error.auth_header_invalid":      "malformed authorization header",
		"error.invalid_credentials":      "incorrect account or password",
		"error.password_old_invalid":     "old password is incorrect",
		"error.password_weak":            "password is too weak",
		"error.password_min_length":      "password must be at least %d characters",
		"error.password_require_upper":   "password must contain an uppercase letter",
		"error.password_require_lower":   "password must contain a lowercase letter",
		"error.password_require_number":  "password must contain a digit",
		"error.password_require_special": "password must contain a special character",

		"error.user_not_found": "user not found",
		"error.email_invalid":  "invalid email address",
		"error.email_exists":   "email already registered",
		"error.user_exists":    "email already registered",
		"error.user_disabled":  "account disabled",

		"error.card_invalid":          "invalid redemption code",
		"error.card_already_redeemed": "redemption code already used",
		"error.card_points_locked":    "points value of a redeemed card cannot be changed",
		"error.card_quantity_invalid": "quantity must be between 1 and 100",
		"error.card_points_invalid":   "points value must be greater than 0",
		"error.card_number_exhausted": "card number generation failed, please retry",

		"error.points_change_zero":   "points change must not be 0",
		"error.insufficient_balance": "insufficient points balance",
		"error.negative_not_allowed": "negative balance is not allowed",

		"error.name_required":        "name is required",
		"error.name_exists":          "name already exists",
		"error.api_key_not_found":    "api key not found",
		"error.app_config_not_found": "app config not found",
		"error.parent_invalid":       "invalid parent category",
		"error.variable_not_found":   "variable not found",

		"error.admin_id_invalid":      "invalid admin identity",
		"error.admin_id_type_invalid": "invalid admin identity type",
		"error.user_id_invalid":       "invalid user identity",
		"error.user_id_type_invalid":  "invalid user identity type",
		"error.login_failed":          "login failed",
		"error.register_failed":       "registration failed",

		"error.card_not_found":     "exchange card not found",
		"error.card_create_failed": "failed to generate exchange cards",
		"error.card_fetch_failed":  "failed to fetch exchange cards",
		"error.card_update_failed": "failed to update exchange card",
		"error.card_delete_failed": "failed to delete exchange card",
		"error.card_redeem_failed": "redemption failed",

		"error.points_log_fetch_failed": "failed to fetch points logs",
		"error.points_adjust_failed":    "failed to adjust points",
		"error.balance_mismatch":        "points balance verification mismatch",

		"error.user_fetch_failed":  "failed to fetch users",
		"error.user_update_failed": "failed to update user",
		"error.user_delete_failed": "failed to delete user",
		"error.role_invalid":       "invalid user role",

		"error.dashboard_fetch_failed": "failed to fetch dashboard data",
		"error.settings_fetch_failed":  "failed to fetch settings",
		"error.settings_save_failed":   "failed to save settings",
		"error.cleanup_failed":         "cleanup task failed",
		"error.queue_unavailable":      "queue service unavailable",

		"error.authz_failed":        "authorization operation failed",
		"error.admin_exists":        "admin account already exists",
		"error.admin_not_found":     "admin not found",
		"error.admin_create_failed": "failed to create admin",
		"error.admin_update_failed": "failed to update admin",
		"error.admin_delete_failed": "failed to delete admin",

		"error.admin_username_invalid":      "invalid admin username",
		"error.admin_delete_self_forbidden": "cannot delete the currently logged-in admin",
		"error.admin_delete_protected":      "this admin is protected and cannot be deleted",
		"error.admin_delete_last_forbidden": "at least one admin must remain",

		"error.category_has_children": "category still has functions and cannot be deleted",

		"message.ok": "ok",
	},
}
