package main

import (
	"fmt"
	"os"
)

// Version se completa con -ldflags en el build.
var Version = "dev"

// @title Health Inventory API
// @version 1.0
// @description Catálogo de vacunas: esquemas de dosis, validación de duplicados y flujo de envío.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := getRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
