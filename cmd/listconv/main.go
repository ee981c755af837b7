package main

import (
	"fmt"
	"os"

	"despawner/internal/modules/denylist"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "listconv",
		Usage: "convert and check denylist files",
	}
	app.Commands = []*cli.Command{
		&cli.Command{
			Name:  "convert",
			Usage: "convert a whitespace separated registry into the CSV denylist format",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "in", Value: "thelist.txt", Usage: "registry text file"},
				&cli.StringFlag{Name: "out", Value: "thelist.csv", Usage: "CSV file to write"},
				&cli.BoolFlag{Name: "header", Value: true, Usage: "write an id,note header row"},
			},
			Action: runConvert,
		},
		&cli.Command{
			Name:      "check",
			Usage:     "count the valid identifiers in a CSV denylist",
			ArgsUsage: "<file>",
			Action:    runCheck,
		},
	}
	app.RunAndExitOnError()
}

func runConvert(cctx *cli.Context) error {
	in, err := os.Open(cctx.String("in"))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(cctx.String("out"))
	if err != nil {
		return err
	}

	n, err := denylist.ConvertRegistry(in, out, cctx.Bool("header"))
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d records to %s\n", n, cctx.String("out"))
	return nil
}

func runCheck(cctx *cli.Context) error {
	path := cctx.Args().First()
	if path == "" {
		return fmt.Errorf("need to provide a denylist file as an argument")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ids, err := denylist.Parse(f)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d valid identifiers\n", path, len(ids))
	return nil
}
