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

package main

import (
	"fmt"

	"github.com/blinklabs-io/gohydra/cmd/common"
	"github.com/blinklabs-io/gohydra/protocol"
)

func runWatch(f *common.GlobalFlags) {
	ctx, cancel := signalContext()
	defer cancel()
	p := createProvider(f)
	p.OnMessage(func(msg protocol.Message) error {
		fmt.Printf("%s\n", msg.Raw())
		return nil
	})
	p.OnStatusChange(func(status protocol.HeadStatus) error {
		fmt.Printf("status: %s\n", status)
		if status == protocol.StatusDisconnected {
			cancel()
		}
		return nil
	})
	connectProvider(ctx, p)
	go func() {
		for {
			select {
			case err := <-p.ErrorChan():
				fmt.Printf("ERROR(async): %s\n", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	<-ctx.Done()
	if err := p.Disconnect(); err != nil {
		fmt.Printf("ERROR: %s\n", err)
	}
}
