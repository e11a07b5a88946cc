package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config es la configuración completa del backtester.
type Config struct {
	Backtest domain.Params `yaml:"backtest" validate:"-"` // se valida en el engine, tras los flags
	Data     DataConfig    `yaml:"data"`
	Engine   EngineConfig  `yaml:"engine"`
	Storage  StorageConfig `yaml:"storage"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Log      LogConfig     `yaml:"log"`
}

// DataConfig ubica los CSV de historia.
type DataConfig struct {
	Dir    string `yaml:"dir" default:"data"`
	Prices string `yaml:"prices" default:"{symbol}_hist.csv"` // {symbol} → símbolo en minúsculas
	Yields string `yaml:"yields" default:"cmt_rates.csv"`
}

// EngineConfig controla el paralelismo del cálculo de features y predicciones.
type EngineConfig struct {
	Workers int `yaml:"workers" validate:"gte=0"` // 0 = GOMAXPROCS
}

// StorageConfig controla dónde se archivan los runs.
type StorageConfig struct {
	DSN string `yaml:"dsn" default:"backtests.db"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla la exportación de métricas del run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // vacío = no se escriben
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Orden de precedencia: env > YAML > defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	// starting_cash admite 0: su default se siembra antes del YAML.
	cfg := Config{Backtest: domain.Params{StartingCash: domain.DefaultStartingCash}}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		// sin archivo: defaults + env + flags
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: defaults: %w", err)
	}
	applyEnvOverrides(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// DefaultPath es la ruta que usa el CLI si no se pasa --config.
const DefaultPath = "config/config.yaml"

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("BACKTEST_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BACKTEST_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
}
