// This program performs administrative tasks against the maintenance chain.
package main

import "github.com/aeroledger/aeroledger/app/tooling/admin/cmd"

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {
	cmd.Execute(build)
}
