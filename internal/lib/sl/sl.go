// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/magabrotheeeer/tracker-saas/internal/config"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// SetupLogger создает логгер по окружению: текстовый для local, JSON для dev и prod.
// Если задан путь файла, логи дублируются в файл с ротацией.
func SetupLogger(env string, file config.LogFile) *slog.Logger {
	return slog.New(newHandler(env, output(os.Stdout, file)))
}

func newHandler(env string, w io.Writer) slog.Handler {
	switch env {
	case envProd:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case envDev:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envLocal:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
}

func output(stdout io.Writer, file config.LogFile) io.Writer {
	if file.Path == "" {
		return stdout
	}
	return io.MultiWriter(stdout, &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
	})
}
