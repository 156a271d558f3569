package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dhamidi/saic/java/artifact"
)

func newStubsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stubs",
		Short: "Manage external class stubs",
	}

	cmd.AddCommand(newStubsCompileCmd())
	cmd.AddCommand(newStubsListCmd())

	return cmd
}

func newStubsCompileCmd() *cobra.Command {
	var withPlatform bool

	cmd := &cobra.Command{
		Use:   "compile <cache> <stubs>...",
		Short: "Compile class stubs into a binary cache",
		Long: `Compile class stubs into a msgpack artifact cache. Inputs are YAML
stub files, compiled .class files or .jar archives.

The cache loads faster than its inputs and can be named in saic.toml as
"cache".

Examples:
  saic stubs compile lib.cache stubs/*.yaml
  saic stubs compile lib.cache third_party/guava.jar
  saic stubs compile --platform jdk.cache`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := artifact.NewIndex()
			if withPlatform {
				if err := index.LoadPlatform(); err != nil {
					return err
				}
			}
			for _, path := range args[1:] {
				if err := index.LoadFile(path); err != nil {
					return err
				}
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := index.WriteCache(f); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("Wrote %d classes to %s\n", index.Len(), args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&withPlatform, "platform", false, "include the embedded platform stubs")

	return cmd
}

func newStubsListCmd() *cobra.Command {
	var pkg string

	cmd := &cobra.Command{
		Use:   "list [cache]",
		Short: "List the classes available to compilations",
		Long: `List the external classes a compilation can see: the embedded
platform stubs plus the configured stubs and cache, or only the classes of
the given cache file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var index *artifact.Index
			if len(args) == 1 {
				index = artifact.NewIndex()
				if err := index.ReadCacheFile(args[0]); err != nil {
					return err
				}
			} else {
				cfg, err := loadConfig(cmd, ".")
				if err != nil {
					return err
				}
				if index, err = loadIndex(cfg); err != nil {
					return err
				}
			}

			var names []string
			if pkg != "" {
				for _, simple := range index.PackageClasses(pkg) {
					names = append(names, pkg+"."+simple)
				}
			} else {
				names = index.Names()
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pkg, "package", "p", "", "only list classes of this package")

	return cmd
}
