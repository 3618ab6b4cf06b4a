// cmd/kite/main.go
package main

import (
	"kite/internal/app"
	"kite/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
