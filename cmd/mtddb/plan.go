package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sharedtable/mtdynamo/mapping"
	"github.com/sharedtable/mtdynamo/table"
	"gopkg.in/yaml.v3"
)

// virtualSchemaFile is the on-disk shape of a plan input: one or more
// virtual table definitions.
type virtualSchemaFile struct {
	Tables []table.TableDefinition `yaml:"tables"`
}

// runPlan maps each virtual schema in the given files onto the configured
// physical table set and prints the assignment, without touching AWS.
func runPlan() error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: mtddb plan <schema.yaml> [<schema.yaml>...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("at least one schema file is required")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	ctf, err := mapping.NewSignatureTableFactory(cfg.PhysicalTables...)
	if err != nil {
		return err
	}
	factory := mapping.NewTableMappingFactory(ctf)

	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var schema virtualSchemaFile
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for _, def := range schema.Tables {
			tm, err := factory.TableMapping(def)
			if err != nil {
				fmt.Printf("%-30s UNMAPPABLE: %v\n", def.Name, err)
				continue
			}
			fmt.Printf("%-30s -> %s\n", def.Name, tm.PhysicalTable().Name)
			for _, si := range def.SecondaryIndexes {
				fmt.Printf("  index %-22s hash=%s(%s)\n", si.Name, si.KeyDefinitions.PartitionKey.Name, si.KeyDefinitions.PartitionKey.Kind)
			}
		}
	}
	return nil
}
