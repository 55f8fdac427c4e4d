// Command mkinitfs packs a host directory into a filesystem image the
// kernel can load at boot with -initfs, and can list the contents of an
// existing image.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ironveil/nexis/vfs"
)

func main() {
	var (
		srcDir   = flag.String("src", "", "Source directory to pack.")
		outPath  = flag.String("out", "initfs.img", "Output image path.")
		listPath = flag.String("list", "", "List the contents of an image and exit.")
	)
	flag.Parse()

	if *listPath != "" {
		if err := list(*listPath); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if *srcDir == "" {
		fmt.Fprintln(os.Stderr, "error: -src is required")
		os.Exit(2)
	}
	if err := pack(*srcDir, *outPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func pack(srcDir, outPath string) error {
	srcDir = filepath.Clean(srcDir)
	st, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("stat src %q: %w", srcDir, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("src %q is not a directory", srcDir)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("read src %q: %w", srcDir, err)
	}

	// The target filesystem is flat; anything nested cannot be
	// represented.
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			return fmt.Errorf("%s: directories are not supported", e.Name())
		}
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) > vfs.MaxFiles {
		return fmt.Errorf("%d files exceed the %d-slot limit", len(names), vfs.MaxFiles)
	}

	fs := vfs.New()
	var total int
	for _, name := range names {
		if len(name) > vfs.MaxNameLen {
			return fmt.Errorf("%s: name longer than %d bytes", name, vfs.MaxNameLen)
		}
		data, err := os.ReadFile(filepath.Join(srcDir, name))
		if err != nil {
			return err
		}
		if len(data) > vfs.MaxFileSize {
			return fmt.Errorf("%s: %d bytes exceed the %d-byte file limit", name, len(data), vfs.MaxFileSize)
		}
		if err := fs.Write(name, data); err != nil {
			return fmt.Errorf("pack %s: %w", name, err)
		}
		fmt.Printf("%6d  %s\n", len(data), name)
		total += len(data)
	}

	img := fs.PackImage()
	if err := os.WriteFile(outPath, img, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", outPath, err)
	}
	fmt.Printf("packed %d file(s), %d bytes -> %s\n", len(names), total, outPath)
	return nil
}

func list(path string) error {
	img, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fs := vfs.New()
	if err := fs.LoadImage(img); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	var total uint32
	for _, fi := range fs.List() {
		fmt.Printf("%6d  %s\n", fi.Size, fi.Name)
		total += fi.Size
	}
	fmt.Printf("%d file(s), %d bytes\n", fs.Len(), total)
	return nil
}
