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
	"os"
	"time"

	ouroboros "github.com/blinklabs-io/gouroboros"
)

const DefaultHttpUrl = "http://127.0.0.1:4001"

type GlobalFlags struct {
	Flagset    *flag.FlagSet
	ConfigFile string
	HttpUrl    string
	WsUrl      string
	History    bool
	Address    string
	Network    string
	Timeout    time.Duration
	Debug      bool
}

func NewGlobalFlags() *GlobalFlags {
	f := &GlobalFlags{
		Flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.Flagset.StringVar(
		&f.ConfigFile,
		"config",
		"",
		"path to a TOML config file. options given on the command line take precedence",
	)
	f.Flagset.StringVar(
		&f.HttpUrl,
		"http-url",
		DefaultHttpUrl,
		"base HTTP URL of the Hydra node",
	)
	f.Flagset.StringVar(
		&f.WsUrl,
		"ws-url",
		"",
		"WebSocket URL of the Hydra node (defaults to one derived from -http-url)",
	)
	f.Flagset.BoolVar(
		&f.History,
		"history",
		false,
		"ask the node to replay past events on connect",
	)
	f.Flagset.StringVar(
		&f.Address,
		"address",
		"",
		"only receive transaction events involving this address",
	)
	f.Flagset.StringVar(
		&f.Network,
		"network",
		"preview",
		"specifies network that the head is running on",
	)
	f.Flagset.DurationVar(
		&f.Timeout,
		"timeout",
		60*time.Second,
		"how long to wait for the node to respond",
	)
	f.Flagset.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	return f
}

// ParseArgs parses the command line and applies the config file, if any
func (f *GlobalFlags) ParseArgs(args []string) error {
	if err := f.Flagset.Parse(args); err != nil {
		return fmt.Errorf("failed to parse command args: %w", err)
	}
	if f.ConfigFile != "" {
		if err := f.ApplyConfigFile(f.ConfigFile); err != nil {
			return err
		}
	}
	if _, ok := ouroboros.NetworkByName(f.Network); !ok {
		return fmt.Errorf("invalid network specified: %s", f.Network)
	}
	return nil
}

func (f *GlobalFlags) Parse() {
	if err := f.ParseArgs(os.Args[1:]); err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
}

// NetworkInfo returns the network selected with -network. The name is
// checked by ParseArgs, so an unknown name yields the zero Network
func (f *GlobalFlags) NetworkInfo() ouroboros.Network {
	network, _ := ouroboros.NetworkByName(f.Network)
	return network
}
