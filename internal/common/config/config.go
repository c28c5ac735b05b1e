package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken string  `env:"BOT_TOKEN,required"`
		AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`
		// TTL проверки init data, секунды
		InitDataTTL int `env:"INIT_DATA_TTL" envDefault:"86400"`
	}

	Giveaway struct {
		// Сколько дней хранить завершенные розыгрыши
		RetentionDays int `env:"GIVEAWAY_RETENTION_DAYS" envDefault:"15"`
		// Многоуровневые напоминания включены по умолчанию
		RemindersEnabled bool `env:"GIVEAWAY_REMINDERS_ENABLED" envDefault:"true"`
	}

	Delivery struct {
		DelayMinMs    int `env:"DELIVERY_DELAY_MIN_MS" envDefault:"1000"`
		DelayMaxMs    int `env:"DELIVERY_DELAY_MAX_MS" envDefault:"3000"`
		PauseEvery    int `env:"DELIVERY_PAUSE_EVERY" envDefault:"50"`
		PauseMinMs    int `env:"DELIVERY_PAUSE_MIN_MS" envDefault:"10000"`
		PauseMaxMs    int `env:"DELIVERY_PAUSE_MAX_MS" envDefault:"20000"`
		MaxRetries    int `env:"DELIVERY_MAX_RETRIES" envDefault:"3"`
		ProgressEvery int `env:"DELIVERY_PROGRESS_EVERY" envDefault:"10"`
	}
}

func Load() *Config {
	// .env не обязателен: в production переменные заданы напрямую
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}

// IsAdmin reports whether the user is on the admin allowlist.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
