package model

import "time"

// SettingApprovalRequiredPromotional gates promotional submissions behind
// human review when set to "true" (or unset).
const SettingApprovalRequiredPromotional = "approval_required_promotional"

type Setting struct {
	Key       string    `gorm:"primaryKey;column:setting_key;type:varchar(64)"`
	Value     string    `gorm:"column:setting_value;type:varchar(255)"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}
