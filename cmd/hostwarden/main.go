// hostwarden lets allow-listed chat operators control this desktop host.
package main

import "github.com/ppiankov/hostwarden/internal/cli"

func main() {
	cli.Execute()
}
