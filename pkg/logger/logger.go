package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

var (
	DebugLog *log.Logger
	InfoLog  *log.Logger
	ErrorLog *log.Logger
	WarnLog  *log.Logger
	logFile  *os.File
	level    = INFO
)

const (
	INFO = iota
	DEBUG
)

// ParseLevel maps LOG_LEVEL values to a level; anything but "debug" is INFO.
func ParseLevel(s string) int {
	if strings.EqualFold(strings.TrimSpace(s), "debug") {
		return DEBUG
	}
	return INFO
}

// InitLogger initializes the logger with a file output and console output
func InitLogger(filename string, lvl int) error {
	var err error
	logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	SetOutput(io.MultiWriter(os.Stderr, logFile), lvl)
	return nil
}

// SetOutput sends every level to w.
func SetOutput(w io.Writer, lvl int) {
	level = lvl
	DebugLog = log.New(w, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	InfoLog = log.New(w, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog = log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLog = log.New(w, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
}

func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Init logs to stderr so the run transcript on stdout stays clean.
func Init() {
	SetOutput(os.Stderr, level)
}

// DebugEnabled reports whether Debugf output is written.
func DebugEnabled() bool {
	return level >= DEBUG
}

func Debugf(format string, v ...interface{}) {
	if !DebugEnabled() {
		return
	}
	if DebugLog == nil {
		Init()
	}
	DebugLog.Output(2, sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	if InfoLog == nil {
		Init()
	}
	InfoLog.Output(2, sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	if ErrorLog == nil {
		Init()
	}
	ErrorLog.Output(2, sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	if WarnLog == nil {
		Init()
	}
	WarnLog.Output(2, sprintf(format, v...))
}

func sprintf(format string, v ...interface{}) string {
	if len(v) == 0 {
		return format
	}
	return fmt.Sprintf(format, v...)
}
