// Command glslcheck parses a vertex and fragment shader pair, merges their
// channels and prints the resulting network or every diagnostic found.
//
//	glslcheck [-watch] [-config glshade.toml] shader.vert shader.frag
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/muesli/termenv"

	"github.com/soypat/glshade/glbind"
	"github.com/soypat/glshade/glparse"
	"github.com/soypat/glshade/glshadeaux"
)

func main() {
	var (
		watch      bool
		configPath string
	)
	flag.BoolVar(&watch, "watch", false, "re-check each time a shader file changes")
	flag.StringVar(&configPath, "config", "", "TOML configuration file, only log_level is used")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] vertex fragment\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	cfg := glshadeaux.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = glshadeaux.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))
	vertex, fragment := flag.Arg(0), flag.Arg(1)
	stderr := termenv.NewOutput(os.Stderr)

	err := run(os.Stdout, vertex, fragment)
	if !watch {
		if err != nil {
			report(stderr, err)
			os.Exit(1)
		}
		return
	}
	if err != nil {
		report(stderr, err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	slog.Info("watching", slog.String("vertex", vertex), slog.String("fragment", fragment))
	err = glshadeaux.Watch(ctx, nil, func(path string) {
		slog.Info("changed", slog.String("path", path))
		err := run(os.Stdout, vertex, fragment)
		if err != nil {
			report(stderr, err)
		}
	}, vertex, fragment)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run checks the shader pair and writes the channel network to w.
func run(w io.Writer, vertexPath, fragmentPath string) error {
	vprog, err := parseFile(vertexPath)
	if err != nil {
		return err
	}
	fprog, err := parseFile(fragmentPath)
	if err != nil {
		return err
	}
	v, err := glbind.NewValidator(vprog, fprog)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tDIRECTION\tTYPE\tLINKED")
	for _, c := range v.Channels() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", c.Name, c.Dir, c.Var.TypeString(), c.Linked)
	}
	fmt.Fprintf(tw, "output: %s\n", v.Outputs()[0].Name)
	return tw.Flush()
}

// report writes err to out, highlighting the caret lines that point into
// shader source when out is a color terminal.
func report(out *termenv.Output, err error) {
	for i, line := range strings.Split(err.Error(), "\n") {
		style := out.String(line)
		switch {
		case i == 0:
			style = style.Bold()
		case strings.TrimSpace(line) != "" && strings.Trim(line, " \t^~") == "":
			style = style.Foreground(out.Color("1")).Bold()
		}
		fmt.Fprintln(out, style.String())
	}
}

func parseFile(path string) (*glparse.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := glparse.Parse(string(src))
	var list glparse.ErrorList
	if errors.As(err, &list) {
		return nil, fmt.Errorf("%s: %d errors\n%s", path, len(list), list.FormatWithContext(string(src)))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("parsed", slog.String("path", path), slog.Int("declarations", len(prog.Decls)))
	return prog, nil
}
