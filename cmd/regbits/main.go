package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prxssh/regbits/internal/regmap"
	"github.com/prxssh/regbits/pkg/bitlayout"
	"github.com/prxssh/regbits/pkg/bitstream"
	"github.com/prxssh/regbits/pkg/logging"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "regbits",
		Usage: "inspect and convert format-addressed register bitfields",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log normalization decisions at debug level",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored log output",
			},
		},
		Before: func(c *cli.Context) error {
			setupLogger(c.Bool("verbose"), c.Bool("no-color"))
			return nil
		},
		Commands: []*cli.Command{
			renderCommand(),
			bitsCommand(),
			decodeCommand(),
			inspectCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("regbits failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(verbose, noColor bool) {
	opts := logging.DefaultOptions()
	opts.UseColor = !noColor
	if verbose {
		opts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, &opts)))
}

func layoutFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "format",
			Aliases:  []string{"f"},
			Usage:    "field widths, one digit 1-5 per field",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "value",
			Aliases: []string{"V"},
			Usage:   "symbol string, one symbol 0-9A-V per field",
		},
	}
}

func reversalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "reverse-bits",
			Usage: "emit/consume each field LSB first",
		},
		&cli.BoolFlag{
			Name:  "reverse-fields",
			Usage: "emit/consume fields right to left",
		},
	}
}

func newLayout(c *cli.Context) (*bitlayout.Layout, error) {
	return bitlayout.New(
		c.String("format"),
		c.String("value"),
		bitlayout.WithLogger(slog.Default()),
	)
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "print the value as bits grouped by field",
		Flags: layoutFlags(),
		Action: func(c *cli.Context) error {
			l, err := newLayout(c)
			if err != nil {
				return err
			}

			fmt.Println(l.String())
			return nil
		},
	}
}

func bitsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bits",
		Usage: "print the value as a flat bit sequence",
		Flags: append(layoutFlags(), append(reversalFlags(),
			&cli.BoolFlag{
				Name:  "hex",
				Usage: "also print the sequence packed into bytes",
			})...),
		Action: func(c *cli.Context) error {
			l, err := newLayout(c)
			if err != nil {
				return err
			}

			seq := l.Bits(c.Bool("reverse-bits"), c.Bool("reverse-fields"))
			fmt.Println(bitlayout.FormatBits(seq, '0'))

			if c.Bool("hex") {
				fmt.Printf("% x\n", bitstream.FromBools(seq).Bytes())
			}
			return nil
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "rebuild a value from a flat bit sequence",
		ArgsUsage: "BITSTRING",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "format",
				Aliases:  []string{"f"},
				Usage:    "field widths, one digit 1-5 per field",
				Required: true,
			},
		}, reversalFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("decode takes exactly one bitstring argument")
			}

			seq, err := parseBitstring(c.Args().First())
			if err != nil {
				return err
			}

			l, err := bitlayout.New(
				c.String("format"), "",
				bitlayout.WithLogger(slog.Default()),
			)
			if err != nil {
				return err
			}
			if err := l.SetBits(
				seq, c.Bool("reverse-bits"), c.Bool("reverse-fields"),
			); err != nil {
				return err
			}

			fmt.Println(l.Value())
			return nil
		},
	}
}

func parseBitstring(s string) ([]bool, error) {
	out := make([]bool, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			out = append(out, false)
		case '1':
			out = append(out, true)
		case ' ', '_':
			// grouping separators, as in "011 0001"
		default:
			return nil, fmt.Errorf(
				"bitstring: invalid character %q at position %d", s[i], i,
			)
		}
	}
	return out, nil
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "load register map files and print their registers",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("inspect takes at least one register map file")
			}

			paths := c.Args().Slice()
			maps := make([]*regmap.Map, len(paths))

			var g errgroup.Group
			for i, path := range paths {
				i, path := i, path
				g.Go(func() error {
					m, err := regmap.Load(path)
					if err != nil {
						return err
					}
					maps[i] = m
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, m := range maps {
				printMap(paths[i], m)
			}
			return nil
		},
	}
}

func printMap(path string, m *regmap.Map) {
	name := m.Name
	if name == "" {
		name = path
	}
	fmt.Printf("%s (%s)\n", name, path)

	for _, reg := range m.Registers() {
		l := reg.Layout()
		fmt.Printf(
			"  %-16s format=%s  value=%s  bits=%s\n",
			reg.Name, reg.Format(), reg.Value(), l.String(),
		)
		for i, f := range reg.Fields() {
			v, err := l.Get(i)
			if err != nil {
				continue
			}
			fmt.Printf("    %-14s width=%d  value=%d\n", f.Name, f.Width, v)
		}
	}
}
