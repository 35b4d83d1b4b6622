/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/bunplus/utils"
)

// DefaultLoggerName is the utils logger behind GetLogger.
const DefaultLoggerName = "DATABASE"

// badKey holds a trailing value passed without a key.
const badKey = "!BADKEY"

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	}
	return "DEBUG"
}

// Logger is the structured logger used across the module. Fields are
// alternating keys and values.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// FieldLogger is a Logger that can attach fields to every later entry.
type FieldLogger interface {
	Logger
	With(fields ...interface{}) Logger
}

// WithFields returns logger carrying fields when it supports them, else logger.
func WithFields(logger Logger, fields ...interface{}) Logger {
	if fl, ok := logger.(FieldLogger); ok {
		return fl.With(fields...)
	}
	return logger
}

// InitLogger installs log as the package logger unless one is already set.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

func GetLogger() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger(DefaultLoggerName)
	}
	return globalLogger
}

// DefaultLogger writes through a named utils logger as logrus fields.
type DefaultLogger struct {
	name  string
	entry *logrus.Entry
}

// NewLogger returns a DefaultLogger over the utils logger registered as name.
func NewLogger(name string) *DefaultLogger {
	return &DefaultLogger{name: name, entry: logrus.NewEntry(utils.NewLogger(name))}
}

// With returns a child logger that adds fields to every entry.
func (l *DefaultLogger) With(fields ...interface{}) Logger {
	return &DefaultLogger{name: l.name, entry: l.entry.WithFields(toFields(fields))}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

// SetLevel changes the level of the named logger, children included.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	utils.SetLoggerLevel(l.name, strings.ToLower(level.String()))
}

func toFields(fields []interface{}) logrus.Fields {
	out := make(logrus.Fields, (len(fields)+1)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out[fmt.Sprint(fields[i])] = fields[i+1]
	}
	if len(fields)%2 == 1 {
		out[badKey] = fields[len(fields)-1]
	}
	return out
}
