package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/jifen-next/internal/models"

	"gorm.io/gorm"
)

// PointsLogRepository 积分流水数据访问接口
// 流水只追加：没有单条更新或删除方法，清理只支持按时间整批删除。
type PointsLogRepository interface {
	Create(log *models.PointsLog) error
	GetByReference(reference string) (*models.PointsLog, error)
	GetFirstByUserID(userID uint) (*models.PointsLog, error)
	GetLastByUserID(userID uint) (*models.PointsLog, error)
	List(filter PointsLogListFilter) ([]models.PointsLog, int64, error)
	SumByUserID(userID uint) (int64, error)
	SumByDirection(direction string) (int64, error)
	SumByChangeType(changeType string) (int64, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormPointsLogRepository
}

// GormPointsLogRepository GORM 积分流水仓储实现
type GormPointsLogRepository struct {
	db *gorm.DB
}

// NewPointsLogRepository 创建积分流水仓储
func NewPointsLogRepository(db *gorm.DB) *GormPointsLogRepository {
	return &GormPointsLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPointsLogRepository) WithTx(tx *gorm.DB) *GormPointsLogRepository {
	if tx == nil {
		return r
	}
	return &GormPointsLogRepository{db: tx}
}

// Create 追加一条流水
func (r *GormPointsLogRepository) Create(log *models.PointsLog) error {
	return r.db.Create(log).Error
}

// GetByReference 按幂等引用获取流水
func (r *GormPointsLogRepository) GetByReference(reference string) (*models.PointsLog, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var log models.PointsLog
	if err := r.db.Where("reference = ?", reference).First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

// GetFirstByUserID 获取用户保留下来的最早一条流水
func (r *GormPointsLogRepository) GetFirstByUserID(userID uint) (*models.PointsLog, error) {
	if userID == 0 {
		return nil, nil
	}
	var log models.PointsLog
	if err := r.db.Where("user_id = ?", userID).
		Order("id asc").
		First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

// GetLastByUserID 获取用户最近一条流水
func (r *GormPointsLogRepository) GetLastByUserID(userID uint) (*models.PointsLog, error) {
	if userID == 0 {
		return nil, nil
	}
	var log models.PointsLog
	if err := r.db.Where("user_id = ?", userID).
		Order("id desc").
		First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

// List 分页查询流水
func (r *GormPointsLogRepository) List(filter PointsLogListFilter) ([]models.PointsLog, int64, error) {
	query := r.db.Model(&models.PointsLog{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ChangeType != "" {
		query = query.Where("change_type = ?", filter.ChangeType)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		operator := likeOperator(r.db)
		query = query.Where("(reason "+operator+" ? OR task_id "+operator+" ?)", like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	// 排序统一用 id 兜底，保证分页顺序稳定
	direction := "asc"
	if filter.SortDesc {
		direction = "desc"
	}
	switch filter.SortBy {
	case "change_type":
		query = query.Order("change_type " + direction).Order("id " + direction)
	default:
		query = query.Order("created_at " + direction).Order("id " + direction)
	}

	var logs []models.PointsLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// SumByUserID 折算用户全部流水得到余额（校验用）
func (r *GormPointsLogRepository) SumByUserID(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.PointsLog{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(CASE WHEN direction = 'in' THEN amount ELSE -amount END), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumByDirection 按方向汇总流水总量
func (r *GormPointsLogRepository) SumByDirection(direction string) (int64, error) {
	var total int64
	if err := r.db.Model(&models.PointsLog{}).
		Where("direction = ?", direction).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumByChangeType 按变动类型汇总流水总量
func (r *GormPointsLogRepository) SumByChangeType(changeType string) (int64, error) {
	var total int64
	if err := r.db.Model(&models.PointsLog{}).
		Where("change_type = ?", changeType).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// DeleteOlderThan 删除早于截止时间的流水，返回删除行数
func (r *GormPointsLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.PointsLog{})
	return result.RowsAffected, result.Error
}
