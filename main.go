// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/henchman-tools/henchman/cmd/henchman"

func main() {
	cmd.Execute()
}
