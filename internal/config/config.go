package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Floor struct {
		MaxDurationSec int
		CooldownMs     int
		QueueLimit     int
	}
	Auth struct {
		TokenSecret   string
		TokenExpMin   int
		TokenSkewSecs int
	}
	Speech struct {
		Endpoint    string
		APIKey      string
		CharsPerSec float64
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("floor.max_duration_sec", 30)
	v.SetDefault("floor.cooldown_ms", 2000)
	v.SetDefault("floor.queue_limit", 32)

	v.SetDefault("auth.token_exp_min", 720)
	v.SetDefault("auth.token_skew_secs", 60)

	v.SetDefault("speech.chars_per_sec", 20)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("floor.max_duration_sec", "FLOOR_MAX_DURATION_SEC")
	v.BindEnv("floor.cooldown_ms", "FLOOR_COOLDOWN_MS")
	v.BindEnv("floor.queue_limit", "FLOOR_QUEUE_LIMIT")

	v.BindEnv("auth.token_secret", "AUTH_TOKEN_SECRET")
	v.BindEnv("auth.token_exp_min", "AUTH_TOKEN_EXP_MIN")
	v.BindEnv("auth.token_skew_secs", "AUTH_TOKEN_SKEW_SECS")

	v.BindEnv("speech.endpoint", "SPEECH_ENDPOINT")
	v.BindEnv("speech.api_key", "SPEECH_API_KEY")
	v.BindEnv("speech.chars_per_sec", "SPEECH_CHARS_PER_SEC")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Floor.MaxDurationSec = v.GetInt("floor.max_duration_sec")
	c.Floor.CooldownMs = v.GetInt("floor.cooldown_ms")
	c.Floor.QueueLimit = v.GetInt("floor.queue_limit")

	c.Auth.TokenSecret = v.GetString("auth.token_secret")
	c.Auth.TokenExpMin = v.GetInt("auth.token_exp_min")
	c.Auth.TokenSkewSecs = v.GetInt("auth.token_skew_secs")

	c.Speech.Endpoint = v.GetString("speech.endpoint")
	c.Speech.APIKey = v.GetString("speech.api_key")
	c.Speech.CharsPerSec = v.GetFloat64("speech.chars_per_sec")

	log.Printf("config loaded: port=%s floor_max=%ds cooldown=%dms", c.Server.Port, c.Floor.MaxDurationSec, c.Floor.CooldownMs)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
