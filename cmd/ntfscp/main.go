// Command ntfscp is the CLI front-end (C12) over the ntfslive core:
// info, list, copy, and extract-hive against a live, mounted NTFS
// volume, grounded on the teacher's urfave/cli-based cmd/main.go.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"

	"github.com/ntfslive/ntfslive"
	"github.com/ntfslive/ntfslive/accessor"
	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/localdest"
	"github.com/ntfslive/ntfslive/sectordevice"
)

func main() {
	app := &cli.App{
		Name:  "ntfscp",
		Usage: "read files, directories, and NTFS metadata off a live, mounted volume",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "volume", Aliases: []string{"v"}, Required: true, Usage: "raw volume device path, e.g. \\\\.\\C: or a loopback image file"},
			&cli.StringFlag{Name: "drive", Value: "C:", Usage: "drive identifier used for link resolution"},
			&cli.StringFlag{Name: "volume-guid", Usage: "volume GUID, for \\??\\Volume{...} reparse targets"},
			&cli.IntFlag{Name: "buffer-size", Value: 4 * 1024 * 1024, Usage: "copy/scan chunk size in bytes"},
			&cli.IntFlag{Name: "max-link-depth", Value: 10},
			&cli.BoolFlag{Name: "follow-relative-links", Value: true},
			&cli.BoolFlag{Name: "follow-absolute-links", Value: false},
			&cli.BoolFlag{Name: "verbose"},
		},
		Commands: []*cli.Command{
			infoCommand,
			listCommand,
			copyCommand,
			extractHiveCommand,
		},
		After: func(c *cli.Context) error {
			if !c.Bool("verbose") {
				return nil
			}
			offset0, offset8 := linkresolver.ProbeStats()
			fmt.Fprintf(os.Stderr, "reparse header probe: offset0=%d offset8=%d\n", offset0, offset8)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ntfscp: %s", err.Error())
	}
}

func openAccessor(c *cli.Context) (*accessor.Accessor, error) {
	device, err := sectordevice.Open(c.String("volume"))
	if err != nil {
		return nil, err
	}

	opts := ntfslive.Options{
		BufferSize:          c.Int("buffer-size"),
		MaxLinkDepth:        c.Int("max-link-depth"),
		FollowRelativeLinks: c.Bool("follow-relative-links"),
		FollowAbsoluteLinks: c.Bool("follow-absolute-links"),
	}

	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return accessor.Open(device, c.String("drive"), c.String("volume-guid"), opts, logger)
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "print metadata for a file or directory path",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "resolve-links", Value: true},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("PATH is required", 1)
		}

		acc, err := openAccessor(c)
		if err != nil {
			return err
		}
		defer acc.Dispose()

		resolve := c.Bool("resolve-links")
		if acc.FileExists(path) {
			record, err := acc.FileInfo(path, resolve)
			if err != nil {
				return err
			}
			printFileRecord(record)
			return nil
		}
		if acc.DirExists(path) {
			record, err := acc.DirInfo(path, resolve)
			if err != nil {
				return err
			}
			printDirRecord(record)
			return nil
		}
		return cli.Exit(fmt.Sprintf("%s: no such file or directory", path), 1)
	},
}

var listCommand = &cli.Command{
	Name:      "list",
	Usage:     "list files or directories under a path",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "pattern", Value: "*"},
		&cli.BoolFlag{Name: "recurse"},
		&cli.BoolFlag{Name: "dirs", Usage: "list directories instead of files"},
		&cli.BoolFlag{Name: "resolve-links", Value: true},
		&cli.StringFlag{Name: "format", Value: "text", Usage: "text or csv"},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("PATH is required", 1)
		}

		acc, err := openAccessor(c)
		if err != nil {
			return err
		}
		defer acc.Dispose()

		if c.Bool("dirs") {
			records, err := acc.ListDirs(path, c.String("pattern"), c.Bool("recurse"), c.Bool("resolve-links"))
			if err != nil {
				return err
			}
			return printDirRecords(records, c.String("format"))
		}

		records, err := acc.ListFiles(path, c.String("pattern"), c.Bool("recurse"), c.Bool("resolve-links"))
		if err != nil {
			return err
		}
		return printFileRecords(records, c.String("format"))
	},
}

var copyCommand = &cli.Command{
	Name:      "copy",
	Usage:     "copy a file (and all its alternate data streams) out of the live volume",
	ArgsUsage: "SOURCE DEST",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "overwrite"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return cli.Exit("SOURCE and DEST are required", 1)
		}
		source, dest := c.Args().Get(0), c.Args().Get(1)

		acc, err := openAccessor(c)
		if err != nil {
			return err
		}
		defer acc.Dispose()

		if err := localdest.EnsureParent(dest); err != nil {
			return err
		}
		if err := acc.CopyFile(source, dest, c.Bool("overwrite"), localdest.New()); err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", source, dest)
		return nil
	},
}

var extractHiveCommand = &cli.Command{
	Name:  "extract-hive",
	Usage: "copy one or all well-known registry hives / forensic artifacts to a destination directory",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "well-known artifact name (SAM, SECURITY, SOFTWARE, SYSTEM, DEFAULT, MFT, LogFile, UsnJournal); empty means all"},
		&cli.StringFlag{Name: "dest-dir", Required: true},
		&cli.BoolFlag{Name: "overwrite"},
	},
	Action: func(c *cli.Context) error {
		acc, err := openAccessor(c)
		if err != nil {
			return err
		}
		defer acc.Dispose()

		name := c.String("name")
		destDir := c.String("dest-dir")
		dest := localdest.New()

		for _, artifact := range ntfslive.WellKnownArtifacts() {
			if name != "" && !strings.EqualFold(name, artifact.Name) {
				continue
			}
			target := destDir + string(os.PathSeparator) + artifact.Name
			if err := localdest.EnsureParent(target); err != nil {
				return err
			}
			if err := acc.CopyFile(artifact.Path, target, c.Bool("overwrite"), dest); err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s (%s): %s\n", artifact.Name, artifact.Path, err)
				continue
			}
			fmt.Printf("%s: %s -> %s\n", artifact.Name, artifact.Path, target)
		}
		return nil
	},
}

// fileRecordRow/dirRecordRow are the CSV projections of
// ntfslive.FileRecord/DirectoryRecord, the same row-struct pattern the
// teacher's disks.DiskGeometry uses with gocsv.
type fileRecordRow struct {
	FullPath   string `csv:"full_path"`
	Size       int64  `csv:"size"`
	Attributes uint32 `csv:"attributes"`
	AdsNames   string `csv:"ads_names"`
	LinkTarget string `csv:"link_target"`
}

type dirRecordRow struct {
	FullPath   string `csv:"full_path"`
	Attributes uint32 `csv:"attributes"`
	LinkTarget string `csv:"link_target"`
}

func printFileRecords(records []ntfslive.FileRecord, format string) error {
	if format == "csv" {
		rows := make([]fileRecordRow, len(records))
		for i, r := range records {
			rows[i] = fileRecordRow{
				FullPath:   r.FullPath,
				Size:       r.Size,
				Attributes: uint32(r.Attributes),
				AdsNames:   strings.Join(r.AdsNames, ";"),
				LinkTarget: r.LinkTarget,
			}
		}
		out, err := gocsv.MarshalString(&rows)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	for _, r := range records {
		printFileRecord(r)
	}
	return nil
}

func printDirRecords(records []ntfslive.DirectoryRecord, format string) error {
	if format == "csv" {
		rows := make([]dirRecordRow, len(records))
		for i, r := range records {
			rows[i] = dirRecordRow{FullPath: r.FullPath, Attributes: uint32(r.Attributes), LinkTarget: r.LinkTarget}
		}
		out, err := gocsv.MarshalString(&rows)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	for _, r := range records {
		printDirRecord(r)
	}
	return nil
}

func printFileRecord(r ntfslive.FileRecord) {
	fmt.Printf("%s\tsize=%d\tsparse=%v\treparse=%v\tads=%s\n",
		r.FullPath, r.Size, r.IsSparse(), r.IsReparsePoint(), strings.Join(r.AdsNames, ","))
}

func printDirRecord(r ntfslive.DirectoryRecord) {
	fmt.Printf("%s\treparse=%v\n", r.FullPath, r.IsReparsePoint())
}
