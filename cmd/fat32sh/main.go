// Command fat32sh is a small interactive shell over a FAT32 volume image.
// Its commands map one to one onto the volume operations: ls, cat FILE,
// touch FILE, echo TEXT > FILE, rm FILE.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	fat32 "github.com/LiterallyKirby/Galactica"
)

type options struct {
	Filepath string `short:"f" long:"filepath" description:"File-path of the FAT32 volume image" required:"true"`
	Drive    uint16 `short:"d" long:"drive" description:"Drive number passed to the block device" default:"0"`
	Verbose  bool   `short:"v" long:"verbose" description:"Enable debug logging"`
}

func main() {
	opts := new(options)
	if _, err := flags.Parse(opts); err != nil {
		os.Exit(1)
	}
	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	img, err := os.OpenFile(opts.Filepath, os.O_RDWR, 0)
	if err != nil {
		logrus.WithError(err).Fatal("could not open volume image")
	}
	defer img.Close()

	vol, err := fat32.Mount(fat32.NewFileDisk(img), opts.Drive)
	if err != nil {
		logrus.WithError(err).Fatal("could not mount volume")
	}

	if label := vol.Label(); label != "" {
		fmt.Printf("mounted %q (%s)\n", label, opts.Filepath)
	} else {
		fmt.Printf("mounted %s\n", opts.Filepath)
	}

	repl(vol)
}

func repl(vol *fat32.Volume) {
	sc := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); sc.Scan(); fmt.Print("> ") {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		cmd, rest := splitWord(line)
		var err error
		switch cmd {
		case "ls":
			err = cmdList(vol)
		case "cat":
			err = cmdCat(vol, rest)
		case "touch":
			err = vol.CreateFile(rest)
		case "echo":
			err = cmdEcho(vol, rest)
		case "rm":
			err = vol.DeleteFile(rest)
		case "info":
			cmdInfo(vol)
		case "help":
			fmt.Println("commands: ls | cat FILE | touch FILE | echo TEXT > FILE | rm FILE | info | exit")
		case "exit", "quit":
			return
		default:
			err = fmt.Errorf("unknown command %q (try help)", cmd)
		}
		if err != nil {
			fmt.Println("error:", err)
		}
	}
}

func splitWord(s string) (string, string) {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func cmdList(vol *fat32.Volume) error {
	entries, err := vol.ListFiles(0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%-12s  %s\n", e.Name(), humanize.Bytes(uint64(e.FileSize)))
	}
	fmt.Printf("%d file(s)\n", len(entries))
	return nil
}

func cmdCat(vol *fat32.Volume, name string) error {
	entry, err := vol.Stat(name)
	if err != nil {
		return err
	}

	buf := make([]byte, entry.FileSize)
	n, err := vol.ReadFile(name, buf)
	if err != nil {
		return err
	}
	os.Stdout.Write(buf[:n])
	fmt.Println()
	return nil
}

// cmdEcho handles `echo TEXT > FILE`. Like the underlying write, it
// requires the file to exist; touch it first.
func cmdEcho(vol *fat32.Volume, rest string) error {
	i := strings.LastIndexByte(rest, '>')
	if i < 0 {
		return fmt.Errorf("usage: echo TEXT > FILE")
	}
	text := strings.TrimSpace(rest[:i])
	name := strings.TrimSpace(rest[i+1:])
	if name == "" {
		return fmt.Errorf("usage: echo TEXT > FILE")
	}

	_, err := vol.WriteFile(name, []byte(text))
	return err
}

func cmdInfo(vol *fat32.Volume) {
	info := vol.Info()
	fmt.Printf("label:               %s\n", vol.Label())
	fmt.Printf("bytes per sector:    %d\n", info.BytesPerSector)
	fmt.Printf("sectors per cluster: %d\n", info.SectorsPerCluster)
	fmt.Printf("reserved sectors:    %d\n", info.ReservedSectors)
	fmt.Printf("FAT copies:          %d x %d sectors\n", info.NumFATs, info.FATSize32)
	fmt.Printf("root cluster:        %d\n", info.RootCluster)
	fmt.Printf("first data sector:   %d\n", info.FirstDataSector)
	fmt.Printf("total size:          %s\n", humanize.Bytes(uint64(info.TotalSectors)*uint64(info.BytesPerSector)))
}
