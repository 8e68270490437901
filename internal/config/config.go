package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/psegatto/algotrade/internal/domain"
)

// Config holds all runtime configuration for the trading simulator.
type Config struct {
	Port     int
	LogLevel string

	Symbol       string
	InitialPrice int64 // cents
	TickInterval time.Duration

	Lookback     int
	ThresholdBps int64
	OrderQty     int64

	MaxPosition int64

	ThrottlePermits  int
	ThrottleInterval time.Duration

	StageBuffer int
	RunDuration time.Duration // 0 means run until interrupted

	VWAPWindow      time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from a .env file (if present) and the
// environment, applies defaults, and validates values. It returns an
// error for any invalid value.
func Load() (*Config, error) {
	_ = godotenv.Load() // loads .env from current directory, env vars win

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	symbol := getStr("SYMBOL", "BTC/USD")
	if symbol == "" {
		return nil, fmt.Errorf("SYMBOL must not be empty")
	}

	initialDollars, err := getFloat("INITIAL_PRICE", 60000.00)
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_PRICE: %w", err)
	}
	initialPrice, err := domain.DollarsToCents(initialDollars)
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_PRICE: %w", err)
	}
	if initialPrice <= 0 {
		return nil, fmt.Errorf("INITIAL_PRICE must be positive")
	}

	tickInterval, err := getDuration("TICK_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}
	if tickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive")
	}

	lookback, err := getInt("LOOKBACK", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid LOOKBACK: %w", err)
	}
	if lookback < 1 {
		return nil, fmt.Errorf("LOOKBACK must be at least 1")
	}

	thresholdBps, err := getInt64("THRESHOLD_BPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid THRESHOLD_BPS: %w", err)
	}
	if thresholdBps < 0 {
		return nil, fmt.Errorf("THRESHOLD_BPS must not be negative")
	}

	orderQty, err := getInt64("ORDER_QTY", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_QTY: %w", err)
	}
	if orderQty < 1 {
		return nil, fmt.Errorf("ORDER_QTY must be at least 1")
	}

	maxPosition, err := getInt64("MAX_POSITION", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_POSITION: %w", err)
	}
	if maxPosition < 0 {
		return nil, fmt.Errorf("MAX_POSITION must not be negative")
	}

	throttlePermits, err := getInt("THROTTLE_PERMITS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid THROTTLE_PERMITS: %w", err)
	}
	if throttlePermits < 1 {
		return nil, fmt.Errorf("THROTTLE_PERMITS must be at least 1")
	}

	throttleInterval, err := getDuration("THROTTLE_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid THROTTLE_INTERVAL: %w", err)
	}
	if throttleInterval <= 0 {
		return nil, fmt.Errorf("THROTTLE_INTERVAL must be positive")
	}

	stageBuffer, err := getInt("STAGE_BUFFER", 64)
	if err != nil {
		return nil, fmt.Errorf("invalid STAGE_BUFFER: %w", err)
	}
	if stageBuffer < 0 {
		return nil, fmt.Errorf("STAGE_BUFFER must not be negative")
	}

	runDuration, err := getDuration("RUN_DURATION", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_DURATION: %w", err)
	}

	vwapWindow, err := getDuration("VWAP_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid VWAP_WINDOW: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:             port,
		LogLevel:         logLevel,
		Symbol:           symbol,
		InitialPrice:     initialPrice,
		TickInterval:     tickInterval,
		Lookback:         lookback,
		ThresholdBps:     thresholdBps,
		OrderQty:         orderQty,
		MaxPosition:      maxPosition,
		ThrottlePermits:  throttlePermits,
		ThrottleInterval: throttleInterval,
		StageBuffer:      stageBuffer,
		RunDuration:      runDuration,
		VWAPWindow:       vwapWindow,
		ReadTimeout:      readTimeout,
		WriteTimeout:     writeTimeout,
		IdleTimeout:      idleTimeout,
		ShutdownTimeout:  shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
