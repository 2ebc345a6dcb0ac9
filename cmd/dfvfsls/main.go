// Command dfvfsls lists the contents of a single OS path through the
// uniform VFS surface, mainly as a smoke test and usage example for the
// PathSpec/Resolver stack.
package main

import (
	"fmt"
	"os"

	units "github.com/docker/go-units"
	flag "github.com/spf13/pflag"

	"github.com/schism/dfvfs"
)

func main() {
	var long bool
	var retain bool
	flag.BoolVarP(&long, "long", "l", false, "show size and type alongside each entry")
	flag.BoolVar(&retain, "retain", false, "keep opened file systems cached for the lifetime of the process")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dfvfsls [-l] [--retain] <path>")
		os.Exit(2)
	}
	root := flag.Arg(0)

	ctx := dfvfs.NewResolverContext()
	ctx.Retain = retain
	defer ctx.Empty()

	spec, err := dfvfs.New(dfvfs.OS, nil, map[string]interface{}{"location": root})
	if err != nil {
		fmt.Fprintln(os.Stderr, "dfvfsls:", err)
		os.Exit(1)
	}

	fs, err := dfvfs.ResolveFileSystem(ctx, spec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dfvfsls:", err)
		os.Exit(1)
	}
	defer ctx.ReleaseFileSystem(spec)

	entry, err := fs.GetFileEntryByPathSpec(spec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dfvfsls:", err)
		os.Exit(1)
	}
	if entry == nil {
		fmt.Fprintln(os.Stderr, "dfvfsls: not found:", root)
		os.Exit(1)
	}

	children, err := entry.SubFileEntries()
	if err != nil {
		fmt.Fprintln(os.Stderr, "dfvfsls:", err)
		os.Exit(1)
	}

	for _, child := range children {
		if !long {
			fmt.Println(child.Name())
			continue
		}
		stat, err := child.GetStat()
		if err != nil {
			fmt.Fprintf(os.Stderr, "dfvfsls: %s: %v\n", child.Name(), err)
			continue
		}
		size := int64(0)
		if stat.Size != nil {
			size = *stat.Size
		}
		kind := "?"
		if stat.Type != nil {
			kind = entryTypeLabel(*stat.Type)
		}
		fmt.Printf("%-6s %10s  %s\n", kind, units.HumanSizeWithPrecision(float64(size), 1), child.Name())
	}
}

func entryTypeLabel(t dfvfs.EntryType) string {
	switch t {
	case dfvfs.TypeDirectory:
		return "dir"
	case dfvfs.TypeFile:
		return "file"
	case dfvfs.TypeLink:
		return "link"
	case dfvfs.TypeDevice:
		return "dev"
	case dfvfs.TypeSocket:
		return "sock"
	case dfvfs.TypePipe:
		return "pipe"
	case dfvfs.TypeWhiteout:
		return "wh"
	default:
		return "?"
	}
}
