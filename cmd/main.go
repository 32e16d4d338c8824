// Command placement runs the EduConnect placement service: the REST API for
// teacher/school matching, applications, interview selections and payments,
// plus its maintenance tasks.
package main

import (
	"context"
	"os"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
