// Command slipstream trabaja con links de factura sin levantar el servidor: codifica,
// decodifica, reconcilia una URL de redirección y arma links de pago.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
