package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
// Os componentes recebem a configuração na construção; nada é lido ad hoc.
type Config struct {
	Port            int
	DBDSN           string
	RedisURL        string
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig

	// Credenciais e endpoints do broker de identidade (GDX).
	GDXAuthURL         string
	DeprocAPIURL       string
	NotificationAPIURL string
	ConsumerKey        string
	ConsumerSecret     string
	AgentID            string

	// Base do redirect devolvido após login ou registro concluído.
	RedirectBaseURL string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.GDXAuthURL = strings.TrimSpace(getEnv("GDX_AUTH_URL", ""))
	if cfg.GDXAuthURL == "" {
		return nil, errors.New("GDX_AUTH_URL obrigatório")
	}

	cfg.DeprocAPIURL = strings.TrimSpace(getEnv("DEPROC_API_URL", ""))
	if cfg.DeprocAPIURL == "" {
		return nil, errors.New("DEPROC_API_URL obrigatório")
	}

	// Sem endpoint de notificação o proxy de push fica desabilitado.
	cfg.NotificationAPIURL = strings.TrimSpace(getEnv("NOTIFICATION_API_URL", ""))

	cfg.ConsumerKey = strings.TrimSpace(getEnv("CONSUMER_KEY", ""))
	if cfg.ConsumerKey == "" {
		return nil, errors.New("CONSUMER_KEY obrigatório")
	}

	cfg.ConsumerSecret = strings.TrimSpace(getEnv("CONSUMER_SECRET", ""))
	if cfg.ConsumerSecret == "" {
		return nil, errors.New("CONSUMER_SECRET obrigatório")
	}

	cfg.AgentID = strings.TrimSpace(getEnv("AGENT_ID", ""))
	if cfg.AgentID == "" {
		return nil, errors.New("AGENT_ID obrigatório")
	}

	cfg.RedirectBaseURL = strings.TrimSpace(getEnv("REDIRECT_BASE_URL", ""))
	if cfg.RedirectBaseURL == "" {
		return nil, errors.New("REDIRECT_BASE_URL obrigatório")
	}

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
