// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/nakale/tuyende/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
