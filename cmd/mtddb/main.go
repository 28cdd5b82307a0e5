// mtddb is an operator CLI for the shared-table layer.
//
// # Commands
//
//	mtddb plan     Show which physical table each virtual schema maps to
//	mtddb check    Verify the configured physical tables exist in DynamoDB
//
// # Quick Start
//
// Create mtddb.yaml describing the physical table set:
//
//	physicalTables:
//	  - name: mt_shared_s_s
//	    keys:
//	      partitionKey: {name: hk, kind: S}
//	      sortKey: {name: rk, kind: S}
//
// Then dry-run a virtual schema against it:
//
//	mtddb plan schemas/orders.yaml
//
// Or verify the table set against the live account:
//
//	mtddb check --region us-east-1
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	// Remove the subcommand from args so flag parsing works
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	var err error
	switch cmd {
	case "plan":
		err = runPlan()
	case "check":
		err = runCheck()
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Printf("mtddb version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "mtddb: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "mtddb %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mtddb - shared-table operator tools

Usage:
  mtddb <command> [flags]

Commands:
  plan    Show which physical table each virtual schema maps to
  check   Verify the configured physical tables exist in DynamoDB

Examples:
  # Dry-run a virtual schema against the configured table set:
  mtddb plan schemas/orders.yaml

  # Verify the physical tables in the live account:
  mtddb check --region us-east-1

Configuration:
  Create mtddb.yaml with the physical table set:

    physicalTables:
      - name: mt_shared_s_s
        keys:
          partitionKey: {name: hk, kind: S}
          sortKey: {name: rk, kind: S}

Run 'mtddb <command> --help' for more information on a command.`)
}
