// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Mdrender converts Markdown to HTML, a table of contents, or normalized Markdown.
//
// Usage:
//
//	mdrender [flags] [file...]
//
// Mdrender reads the named files, or else standard input, as Markdown documents
// and prints the rendered output to standard output.
// Input may be UTF-8 or UTF-16 with a byte order mark.
//
// Options can also be read from a TOML or YAML file given with -config.
// Flags given on the command line take precedence over the file.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/format"
)

type options struct {
	Extensions []string `toml:"extensions" yaml:"extensions"`
	Renderer   string   `toml:"renderer" yaml:"renderer"`
	MaxNesting int      `toml:"max_nesting" yaml:"max_nesting"`
	XHTML      bool     `toml:"xhtml" yaml:"xhtml"`
	SafeLink   bool     `toml:"safe_link" yaml:"safe_link"`
	SkipHTML   bool     `toml:"skip_html" yaml:"skip_html"`
	Escape     bool     `toml:"escape" yaml:"escape"`
	HardWrap   bool     `toml:"hard_wrap" yaml:"hard_wrap"`
	TOC        bool     `toml:"toc" yaml:"toc"`
}

func defaultOptions() options {
	return options{
		Renderer:   "html",
		MaxNesting: markdown.DefaultMaxNesting,
	}
}

// errUsage is returned for command-line errors
// that the flag package has already reported.
var errUsage = errors.New("usage error")

func main() {
	log.SetPrefix("mdrender: ")
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			log.Print(err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fset := flag.NewFlagSet("mdrender", flag.ContinueOnError)
	fset.SetOutput(stderr)
	configPath := fset.String("config", "", "read options from a TOML or YAML `file`")
	extList := fset.String("ext", "", "comma-separated `list` of extensions to enable")
	flagOpts := defaultOptions()
	fset.StringVar(&flagOpts.Renderer, "renderer", flagOpts.Renderer, "output `format`: html, toc, or markdown")
	fset.IntVar(&flagOpts.MaxNesting, "nesting", flagOpts.MaxNesting, "maximum nesting `depth` of blocks and spans")
	fset.BoolVar(&flagOpts.XHTML, "xhtml", false, "write XHTML void elements")
	fset.BoolVar(&flagOpts.SafeLink, "safelink", false, "only render links with safe schemes")
	fset.BoolVar(&flagOpts.SkipHTML, "skip-html", false, "drop raw HTML")
	fset.BoolVar(&flagOpts.Escape, "escape", false, "escape raw HTML")
	fset.BoolVar(&flagOpts.HardWrap, "hard-wrap", false, "render line endings in paragraphs as line breaks")
	fset.BoolVar(&flagOpts.TOC, "toc", false, "add anchors to headers")
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	opts := defaultOptions()
	if *configPath != "" {
		if err := loadConfig(&opts, *configPath); err != nil {
			return err
		}
	}
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ext":
			opts.Extensions = strings.Split(*extList, ",")
		case "renderer":
			opts.Renderer = flagOpts.Renderer
		case "nesting":
			opts.MaxNesting = flagOpts.MaxNesting
		case "xhtml":
			opts.XHTML = flagOpts.XHTML
		case "safelink":
			opts.SafeLink = flagOpts.SafeLink
		case "skip-html":
			opts.SkipHTML = flagOpts.SkipHTML
		case "escape":
			opts.Escape = flagOpts.Escape
		case "hard-wrap":
			opts.HardWrap = flagOpts.HardWrap
		case "toc":
			opts.TOC = flagOpts.TOC
		}
	})
	ext, err := markdown.ParseExtensions(opts.Extensions)
	if err != nil {
		return err
	}
	if opts.MaxNesting <= 0 {
		return fmt.Errorf("nesting depth must be positive (got %d)", opts.MaxNesting)
	}

	files := fset.Args()
	if len(files) == 0 {
		if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			fmt.Fprintln(stderr, "mdrender: reading from terminal; end input with Ctrl-D")
		}
		source, err := readSource(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		return render(stdout, source, ext, &opts)
	}
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		source, err := readSource(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if err := render(stdout, source, ext, &opts); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig reads options from a TOML or YAML file,
// chosen by the file's extension.
func loadConfig(opts *options, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, opts); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(data, opts); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("load config %s: unknown format %q", path, ext)
	}
	return nil
}

// readSource reads a whole document,
// converting UTF-16 input with a byte order mark to UTF-8.
func readSource(r io.Reader) ([]byte, error) {
	return io.ReadAll(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
}

func render(w io.Writer, source []byte, ext markdown.Extensions, opts *options) error {
	var p *markdown.Parser
	switch opts.Renderer {
	case "html":
		var flags markdown.HTMLFlags
		if opts.XHTML {
			flags |= markdown.HTMLUseXHTML
		}
		if opts.SafeLink {
			flags |= markdown.HTMLSafeLink
		}
		if opts.SkipHTML {
			flags |= markdown.HTMLSkipHTML
		}
		if opts.Escape {
			flags |= markdown.HTMLEscape
		}
		if opts.HardWrap {
			flags |= markdown.HTMLHardWrap
		}
		if opts.TOC {
			flags |= markdown.HTMLTOC
		}
		p = markdown.New(ext, opts.MaxNesting, markdown.HTMLCallbacks(flags), &markdown.HTMLOptions{Flags: flags})
	case "toc":
		p = markdown.New(ext, opts.MaxNesting, markdown.TOCCallbacks(), new(markdown.HTMLOptions))
	case "markdown":
		p = markdown.New(ext, opts.MaxNesting, format.Callbacks(ext), nil)
	default:
		return fmt.Errorf("unknown renderer %q", opts.Renderer)
	}
	buf := new(bytes.Buffer)
	p.Render(buf, source)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
