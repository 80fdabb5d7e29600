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
	"log/slog"
	"os"

	hydra "github.com/blinklabs-io/gohydra"
)

func NewLogger(f *GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	if f.Debug {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}

func NewProvider(f *GlobalFlags, logger *slog.Logger) (*hydra.Provider, error) {
	return hydra.NewProvider(
		hydra.WithHttpUrl(f.HttpUrl),
		hydra.WithWsUrl(f.WsUrl),
		hydra.WithHistory(f.History),
		hydra.WithAddress(f.Address),
		hydra.WithNetwork(f.NetworkInfo()),
		hydra.WithSubmitTimeout(f.Timeout),
		hydra.WithLogger(logger),
	)
}
