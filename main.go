// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/coriander-cfd/coriander/cmd/coriander"

func main() {
	cmd.Execute()
}
