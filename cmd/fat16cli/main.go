// Command fat16cli inspects a raw FAT16 disk image from outside the kernel:
// listing directories and printing file contents, against the same Probe,
// Open, and ListDirectory surface a kernel VFS would call.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/block"
	"github.com/kestrelkernel/kfat/fat16"
)

const defaultSectorSize = 512

func main() {
	app := &cli.App{
		Usage: "Inspect FAT16 disk images",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List a directory's entries",
				ArgsUsage: "IMAGE_FILE [PATH]",
				Action:    listDirectory,
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents to stdout",
				ArgsUsage: "IMAGE_FILE PATH",
				Action:    catFile,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err)
	}
}

func mountImage(imagePath string) (*kfs.Disk, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}

	totalSectors, err := block.DetermineSectorCount(file, defaultSectorSize)
	if err != nil {
		return nil, err
	}
	device := block.NewSeekerDevice(file, defaultSectorSize, totalSectors, 0)

	disk := &kfs.Disk{ID: imagePath, SectorSize: defaultSectorSize}
	fat16.BindDevice(disk, device)

	if err := fat16.Probe(disk); err != nil {
		return nil, fmt.Errorf("probing %s: %w", imagePath, err)
	}
	return disk, nil
}

// splitPath turns a "/"-separated command-line path into the canonical
// NAME[.EXT] component slice the driver expects; this tokenization is the
// external collaborator's job the driver itself never performs.
func splitPath(raw string) []string {
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "/")
}

func listDirectory(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("usage: ls IMAGE_FILE [PATH]")
	}

	disk, err := mountImage(c.Args().Get(0))
	if err != nil {
		return err
	}

	entries, err := fat16.ListDirectory(disk, splitPath(c.Args().Get(1)))
	if err != nil {
		return err
	}

	for _, entry := range entries {
		kind := "-"
		if entry.IsDirectory() {
			kind = "d"
		}
		fmt.Printf("%s %8d  %s\n", kind, entry.Size, entry.Name)
	}
	return nil
}

func catFile(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: cat IMAGE_FILE PATH")
	}

	disk, err := mountImage(c.Args().Get(0))
	if err != nil {
		return err
	}

	handle, err := fat16.Open(disk, splitPath(c.Args().Get(1)), kfs.ModeRead)
	if err != nil {
		return err
	}

	buf := make([]byte, 4096)
	var offset int64
	for {
		n, readErr := handle.ReadAt(buf, offset)
		if n > 0 {
			if _, writeErr := os.Stdout.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			offset += int64(n)
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
	}
}
