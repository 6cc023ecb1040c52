package logger

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Dir is the directory, relative to the working directory, that receives
// the rotated log files.
var Dir = "logs"

func Init(file string) {
	log.Logger = zerolog.New(NewWriter(file)).With().Timestamp().Caller().Logger()
}

func NewWriter(file string) io.Writer {
	return io.MultiWriter(
		NewConsoleWriter(),
		NewLumberjack(file),
	)
}

// NewComponentLogger returns a logger that writes to the console and to
// its own rotated file, e.g. autarco_collector.log.
func NewComponentLogger(file string) zerolog.Logger {
	return zerolog.New(NewWriter(file)).With().Timestamp().Caller().Logger()
}

func NewConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
}

func NewLumberjack(file string) io.Writer {
	abs, err := filepath.Abs(".")
	if err != nil {
		panic(err)
	}

	return &lumberjack.Logger{
		Filename:   path.Join(abs, Dir, file),
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}
}
