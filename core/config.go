package core

import (
	"fmt"
	"strings"
)

type StorageFeeConfig struct {
	FreeDays      int   `koanf:"free_days" mapstructure:"free_days"`
	DailyFeeCents int64 `koanf:"daily_fee_cents" mapstructure:"daily_fee_cents"`
}

type ScheduleConfig struct {
	TrackingCron   string `koanf:"tracking_cron" mapstructure:"tracking_cron"`
	StorageFeeCron string `koanf:"storage_fee_cron" mapstructure:"storage_fee_cron"`
}

type WebhookConfig struct {
	ReplayWindowSeconds int `koanf:"replay_window_seconds" mapstructure:"replay_window_seconds"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	StorageFee  StorageFeeConfig `koanf:"storage_fee" mapstructure:"storage_fee"`
	Schedules   ScheduleConfig   `koanf:"schedules" mapstructure:"schedules"`
	Webhook     WebhookConfig    `koanf:"webhook" mapstructure:"webhook"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "reship",
		StorageFee: StorageFeeConfig{
			FreeDays:      7,
			DailyFeeCents: 500,
		},
		Schedules: ScheduleConfig{
			TrackingCron:   "0 */6 * * *",
			StorageFeeCron: "0 0 * * *",
		},
		Webhook: WebhookConfig{
			ReplayWindowSeconds: 300,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.StorageFee.FreeDays < 0 {
		return fmt.Errorf("core: storage_fee.free_days must be >= 0")
	}
	if c.StorageFee.DailyFeeCents < 0 {
		return fmt.Errorf("core: storage_fee.daily_fee_cents must be >= 0")
	}
	if strings.TrimSpace(c.Schedules.TrackingCron) == "" {
		return fmt.Errorf("core: schedules.tracking_cron is required")
	}
	if strings.TrimSpace(c.Schedules.StorageFeeCron) == "" {
		return fmt.Errorf("core: schedules.storage_fee_cron is required")
	}
	if c.Webhook.ReplayWindowSeconds <= 0 {
		return fmt.Errorf("core: webhook.replay_window_seconds must be > 0")
	}
	return nil
}
