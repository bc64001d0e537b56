package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/justshow/x11"
	"github.com/justshow/x11/randr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func lsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List server resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return errors.Errorf("invalid arguments: %q", args)
		},
	}
	cmd.AddCommand(
		lsSubCmd("fonts", "List fonts like xlsfonts -l", lsFonts),
		lsSubCmd("extensions", "List extensions with their opcodes", lsExtensions),
		lsSubCmd("monitors", "List RandR monitors", lsMonitors),
	)
	return cmd
}

func lsSubCmd(use, short string, run func(c *x11.Conn, out, errOut io.Writer) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			display, err := cmd.Flags().GetString("display")
			if err != nil {
				return err
			}
			c, err := open(display)
			if err != nil {
				return err
			}
			defer c.Close()
			return run(c, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// lsFonts is equivalent to running xlsfonts -l.
func lsFonts(c *x11.Conn, out, errOut io.Writer) error {
	rep, err := c.ListFontsWithInfo(0xffff, "*").Reply()
	if err != nil {
		return errors.Wrap(err, "listing fonts")
	}
	fonts := rep.Fonts
	sort.Slice(fonts, func(i, j int) bool { return fonts[i].Name < fonts[j].Name })

	fmt.Fprintln(out, "DIR  MIN  MAX EXIST DFLT PROP ASC DESC NAME")
	for _, f := range fonts {
		if f.DrawDirection == x11.FontDrawRightToLeft {
			fmt.Fprint(out, "<-- ")
		} else {
			fmt.Fprint(out, "--> ")
		}
		if f.MinByte1 == 0 && f.MaxByte1 == 0 {
			fmt.Fprintf(out, " %3d  %3d ", f.MinCharOrByte2, f.MaxCharOrByte2)
		} else {
			fmt.Fprintf(out, "*%3d *%3d ", f.MinCharOrByte2, f.MaxCharOrByte2)
		}
		exist := "some"
		if f.AllCharsExist {
			exist = "all"
		}
		fmt.Fprintf(out, "%5s %4d %4d %3d %4d %s\n", exist, f.DefaultChar,
			len(f.Properties), f.FontAscent, f.FontDescent, f.Name)
	}
	return nil
}

func lsExtensions(c *x11.Conn, out, errOut io.Writer) error {
	rep, err := c.ListExtensions().Reply()
	if err != nil {
		return errors.Wrap(err, "listing extensions")
	}
	for _, name := range rep.Names {
		info, err := c.Extension(name.Name)
		if err != nil {
			return errors.Wrapf(err, "querying %s", name.Name)
		}
		if info == nil {
			fmt.Fprintf(errOut, "xinfo: warning: listed extension %s is not present\n", name.Name)
			continue
		}
		fmt.Fprintf(out, "%s => major opcode: %d, first event: %d, first error: %d\n",
			name.Name, info.MajorOpcode, info.FirstEvent, info.FirstError)
	}
	return nil
}

func lsMonitors(c *x11.Conn, out, errOut io.Writer) error {
	if err := randr.Init(c); err != nil {
		return err
	}
	rep, err := randr.GetMonitors(c, c.Screens()[0].Root, false).Reply()
	if err != nil {
		return errors.Wrap(err, "listing monitors")
	}
	for _, m := range rep.Monitors {
		name, err := c.AtomName(m.Name)
		if err != nil {
			return errors.Wrapf(err, "naming monitor %d", m.Name)
		}
		fmt.Fprintf(out, "%s %dx%d+%d+%d (...) %dmmx%dmm\n", name,
			m.Width, m.Height, m.X, m.Y, m.WidthInMillimeters, m.HeightInMillimeters)
	}
	for _, perr := range c.Errors() {
		fmt.Fprintf(errOut, "xinfo: warning: %v\n", perr)
	}
	return nil
}
