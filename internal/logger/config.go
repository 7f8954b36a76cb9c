// internal/logger/config.go
package logger

type Config struct {
	Level string
	// LogFile receives JSON lines rotated by lumberjack. Empty disables it.
	LogFile    string
	MaxSize    int  // мегабайты
	MaxAge     int  // дни
	MaxBackups int  // количество файлов
	Compress   bool // сжимать ротированные файлы
	// Pretty switches the console to the colored compact encoder.
	Pretty bool
	// Quiet drops the console core, e.g. while a TUI owns the terminal.
	Quiet bool
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		MaxSize:    100, // 100 MB
		MaxAge:     7,   // 7 дней
		MaxBackups: 3,   // 3 файла
		Compress:   true,
		Pretty:     true,
	}
}
