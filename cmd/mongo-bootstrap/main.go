// Package main is the entry point for mongo-bootstrap.
package main

import (
	_ "go.uber.org/automaxprocs"

	app "github.com/kart-io/mongo-bootstrap/internal/mongobootstrap"
)

func main() {
	app.NewApp().Run()
}
