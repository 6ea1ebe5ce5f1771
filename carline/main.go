// Command carline simulates the assembly lines of a vehicle plant.
package main

import "github.com/sarchlab/carline/carline/cmd"

func main() {
	cmd.Execute()
}
