package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/inbox_premium_server/internal/model"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// CreateIfNotExists 幂等写入，返回是否新建以及库中的记录
func (r *WebhookEventRepository) CreateIfNotExists(event *model.BillingWebhookEvent) (bool, *model.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}
	if tx.RowsAffected > 0 {
		return true, event, nil
	}

	var existing model.BillingWebhookEvent
	err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&existing).Error
	if err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

func (r *WebhookEventRepository) GetByID(id int64) (*model.BillingWebhookEvent, error) {
	var event model.BillingWebhookEvent
	err := r.db.Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// MarkProcessed 标记处理完成，errMsg 非空表示失败
func (r *WebhookEventRepository) MarkProcessed(id int64, errMsg string) error {
	fields := map[string]interface{}{
		"processing_error": errMsg,
	}
	if errMsg == "" {
		fields["processed_at"] = time.Now()
	}
	return r.db.Model(&model.BillingWebhookEvent{}).Where("id = ?", id).Updates(fields).Error
}

// MarkAbandoned 记录错误并置处理时间，不再参与重试
func (r *WebhookEventRepository) MarkAbandoned(id int64, errMsg string) error {
	return r.db.Model(&model.BillingWebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processing_error": errMsg,
		"processed_at":     time.Now(),
	}).Error
}

// ListFailed 未处理成功且创建早于 before 的事件
func (r *WebhookEventRepository) ListFailed(before time.Time, limit int) ([]model.BillingWebhookEvent, error) {
	var events []model.BillingWebhookEvent
	err := r.db.Where("processed_at IS NULL AND signature_valid = ? AND created_at < ?", true, before).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// ListProcessedBefore 处理完成且早于 before 的事件
func (r *WebhookEventRepository) ListProcessedBefore(before time.Time, limit int) ([]model.BillingWebhookEvent, error) {
	var events []model.BillingWebhookEvent
	err := r.db.Where("processed_at IS NOT NULL AND processed_at < ?", before).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountProcessedBefore 统计可归档的事件数
func (r *WebhookEventRepository) CountProcessedBefore(before time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.BillingWebhookEvent{}).
		Where("processed_at IS NOT NULL AND processed_at < ?", before).
		Count(&count).Error
	return count, err
}

// DeleteByIDs 批量删除
func (r *WebhookEventRepository) DeleteByIDs(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Where("id IN ?", ids).Delete(&model.BillingWebhookEvent{})
	return res.RowsAffected, res.Error
}
