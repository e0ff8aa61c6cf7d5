package models

import "gorm.io/gorm"

const (
	SettingAllowNegativeStock = "allow_negative_stock"
	SettingLowStockAlertMail  = "low_stock_alert_mail"
)

type ShopSetting struct {
	gorm.Model
	Key       string `json:"key" gorm:"uniqueIndex;not null"`
	Value     string `json:"value"`
	UpdatedBy int
}

// SettingBool reads a boolean setting; absent keys default to false.
func SettingBool(db *gorm.DB, key string) bool {
	var s ShopSetting
	if err := db.Where("key = ?", key).Take(&s).Error; err != nil {
		return false
	}
	return s.Value == "true" || s.Value == "1" || s.Value == "Y"
}
