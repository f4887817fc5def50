package main

import (
	"os"

	"kbase/internal/app"
)

func main() {
	os.Exit(app.Run())
}
