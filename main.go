// serifu composes lines of dialogue and reveals the model's reply.
package main

import "github.com/linanwx/serifu/cmd"

func main() {
	cmd.Execute()
}
