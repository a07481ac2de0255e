/*
 * Copyright 2018 The OpenWallet Authors
 * This file is part of the OpenWallet library.
 *
 * The OpenWallet library is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * The OpenWallet library is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Lesser General Public License for more details.
 */

package exception

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/astaxie/beego/config"
	"github.com/astaxie/beego/logs"
	"github.com/pkg/errors"
)

const (
	DiagnosticsStdout  = "stdout"
	DiagnosticsStderr  = "stderr"
	DiagnosticsDiscard = "discard"
)

var levelNames = map[string]int{
	"emergency": logs.LevelEmergency,
	"alert":     logs.LevelAlert,
	"critical":  logs.LevelCritical,
	"error":     logs.LevelError,
	"warn":      logs.LevelWarning,
	"warning":   logs.LevelWarning,
	"notice":    logs.LevelNotice,
	"info":      logs.LevelInformational,
	"debug":     logs.LevelDebug,
}

//Config 日志与诊断输出配置
type Config struct {
	LogLevel    int    // beego log level, 0..7
	LogAdapter  string // console or file
	LogFile     string // file adapter target
	LogFuncCall bool   // record caller file:line in log lines
	Diagnostics string // stdout, stderr, discard or a file path
}

// NewConfig returns the defaults: warnings to the console, diagnostics to stdout.
func NewConfig() *Config {
	return &Config{
		LogLevel:    logs.LevelWarning,
		LogAdapter:  logs.AdapterConsole,
		Diagnostics: DiagnosticsStdout,
	}
}

// LoadConfig reads the [log] and [diagnostics] sections of an INI file.
func LoadConfig(fileName string) (*Config, error) {
	c, err := config.NewConfig("ini", fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", fileName)
	}
	return ParseConfig(c)
}

// ParseConfig builds a Config from an already loaded configer.
func ParseConfig(c config.Configer) (*Config, error) {
	conf := NewConfig()

	level, err := parseLevel(c.DefaultString("log::level", ""), conf.LogLevel)
	if err != nil {
		return nil, err
	}
	conf.LogLevel = level
	conf.LogAdapter = c.DefaultString("log::adapter", conf.LogAdapter)
	conf.LogFile = c.DefaultString("log::file", conf.LogFile)
	conf.LogFuncCall = c.DefaultBool("log::funccall", conf.LogFuncCall)
	conf.Diagnostics = c.DefaultString("diagnostics::output", conf.Diagnostics)

	switch conf.LogAdapter {
	case logs.AdapterConsole:
	case logs.AdapterFile:
		if conf.LogFile == "" {
			return nil, errors.New("log::file is required by the file adapter")
		}
	default:
		return nil, errors.Errorf("unsupported log adapter %q", conf.LogAdapter)
	}
	return conf, nil
}

func parseLevel(s string, def int) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	if l, ok := levelNames[s]; ok {
		return l, nil
	}
	l, err := strconv.Atoi(s)
	if err != nil || l < logs.LevelEmergency || l > logs.LevelDebug {
		return 0, errors.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// Configure installs the logger and diagnostics writer described by conf.
// The returned closer releases the diagnostics file, if one was opened.
func Configure(conf *Config) (io.Closer, error) {
	if conf == nil {
		conf = NewConfig()
	}

	l := logs.NewLogger()
	switch conf.LogAdapter {
	case logs.AdapterFile:
		setting, _ := json.Marshal(map[string]interface{}{"filename": conf.LogFile})
		if err := l.SetLogger(logs.AdapterFile, string(setting)); err != nil {
			return nil, errors.Wrapf(err, "open log file %s", conf.LogFile)
		}
	default:
		if err := l.SetLogger(logs.AdapterConsole); err != nil {
			return nil, errors.Wrap(err, "open console log")
		}
	}
	l.SetLevel(conf.LogLevel)
	l.EnableFuncCallDepth(conf.LogFuncCall)

	out, closer, err := openDiagnostics(conf.Diagnostics)
	if err != nil {
		return nil, err
	}

	SetLogger(l)
	SetDiagnostics(out)
	l.Info("exception system configured: log=%s level=%d diagnostics=%s",
		conf.LogAdapter, conf.LogLevel, conf.Diagnostics)
	return closer, nil
}

func openDiagnostics(target string) (io.Writer, io.Closer, error) {
	var nop nopCloser
	switch target {
	case "", DiagnosticsStdout:
		return os.Stdout, nop, nil
	case DiagnosticsStderr:
		return os.Stderr, nop, nil
	case DiagnosticsDiscard:
		return io.Discard, nop, nil
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open diagnostics %s", target)
	}
	return f, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
