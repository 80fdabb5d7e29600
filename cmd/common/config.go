// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	HttpUrl string `toml:"http_url"`
	WsUrl   string `toml:"ws_url"`
	History bool   `toml:"history"`
	Address string `toml:"address"`
	Network string `toml:"network"`
	Timeout string `toml:"timeout"`
	Debug   bool   `toml:"debug"`
}

// ApplyConfigFile loads a TOML config file. Keys present in the file
// override the defaults but not options set on the command line
func (f *GlobalFlags) ApplyConfigFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}
	explicit := map[string]bool{}
	f.Flagset.Visit(func(fl *flag.Flag) {
		explicit[fl.Name] = true
	})
	use := func(key string, flagName string) bool {
		return meta.IsDefined(key) && !explicit[flagName]
	}
	if use("http_url", "http-url") {
		f.HttpUrl = strings.TrimSpace(raw.HttpUrl)
	}
	if use("ws_url", "ws-url") {
		f.WsUrl = strings.TrimSpace(raw.WsUrl)
	}
	if use("history", "history") {
		f.History = raw.History
	}
	if use("address", "address") {
		f.Address = strings.TrimSpace(raw.Address)
	}
	if use("network", "network") {
		f.Network = strings.TrimSpace(raw.Network)
	}
	if use("timeout", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		f.Timeout = d
	}
	if use("debug", "debug") {
		f.Debug = raw.Debug
	}
	return nil
}
