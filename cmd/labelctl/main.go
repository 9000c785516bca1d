package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thereceipt/label-engine/internal/barcodeid"
	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/internal/config"
	"github.com/thereceipt/label-engine/internal/export"
	"github.com/thereceipt/label-engine/internal/layout"
	"github.com/thereceipt/label-engine/internal/logging"
	"github.com/thereceipt/label-engine/internal/notify"
	"github.com/thereceipt/label-engine/internal/printer"
	"github.com/thereceipt/label-engine/internal/raster"
	"github.com/thereceipt/label-engine/internal/registry"
	"github.com/thereceipt/label-engine/pkg/printopts"
)

var errUsage = errors.New("usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	a := &app{
		cfg:    cfg,
		codec:  barcodeid.NewRandom(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	if err := a.run(context.Background(), os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	codec  *barcodeid.Codec
	dial   printer.Dialer
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"grid":     {"grid [-options file.json] [-o labels.pdf]", (*app).grid},
	"labels":   {"labels [-kind barcode|label] [-copies n] [-o labels.html] [id...]", (*app).labels},
	"archive":  {"archive [-kind barcode|barcode-info|price-label] [-batch n] [-dir .] [id...]", (*app).archive},
	"image":    {"image [-kind ...] [-dir .] <id>", (*app).image},
	"print":    {"print -printer <id> [-kind barcode|label] [-copies n] [id...]", (*app).print},
	"generate": {"generate [-n count] [category]", (*app).generate},
	"convert":  {"convert <legacy-code>...", (*app).convert},
	"migrate":  {"migrate", (*app).migrate},
	"printers": {"printers", (*app).printers},
	"ports":    {"ports", (*app).ports},
}

func (a *app) run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("labelctl", flag.ContinueOnError)
	global.SetOutput(a.stderr)
	global.StringVar(&a.cfg.CatalogPath, "catalog", a.cfg.CatalogPath, "product catalogue (.json or .db)")
	global.StringVar(&a.cfg.RegistryPath, "printers", a.cfg.RegistryPath, "printer registry file")
	global.Usage = a.usage
	if err := global.Parse(args); err != nil {
		return errUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		a.usage()
		return errUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", rest[0])
	}
	return cmd.run(a, ctx, rest[1:])
}

func (a *app) usage() {
	fmt.Fprintln(a.stderr, "Label Engine CLI\n\nUsage:\n  labelctl [-catalog path] [-printers path] <command>\n\nCommands:")
	for _, name := range []string{"grid", "labels", "archive", "image", "print", "generate", "convert", "migrate", "printers", "ports"} {
		fmt.Fprintf(a.stderr, "  %s\n", commands[name].usage)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) pipeline() *export.Pipeline {
	logger := logging.NewWithWriter(a.stderr, a.cfg.LogFormat)
	return export.New(raster.NewGG(a.cfg.PixelsPerMM), notify.NewConsole(a.stderr), logger, a.cfg.Export())
}

// load returns the catalogue, narrowed to ids when any are given.
func (a *app) load(ctx context.Context, ids []string) ([]catalog.Product, error) {
	store, err := catalog.Open(a.cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	products, err := store.Products(ctx)
	if err != nil {
		return nil, err
	}
	return layout.Subset(products, ids), nil
}

func (a *app) grid(ctx context.Context, args []string) error {
	fs := a.flags("grid")
	optsPath := fs.String("options", "", "print options JSON file")
	out := fs.String("o", "labels.pdf", "output file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	opts := printopts.Default()
	if *optsPath != "" {
		parsed, err := printopts.ParseFile(*optsPath)
		if err != nil {
			return err
		}
		opts = *parsed
	}

	products, err := a.load(ctx, nil)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := a.pipeline().GridPDF(products, opts, f)
	if err != nil {
		os.Remove(*out)
		return err
	}
	fmt.Fprintf(a.stdout, "%s: %d products on %d page(s)\n", *out, report.Products, report.Pages)
	return f.Close()
}

func (a *app) labels(ctx context.Context, args []string) error {
	fs := a.flags("labels")
	kind := fs.String("kind", string(export.BarcodeLabel), "barcode or label")
	copies := fs.Int("copies", 1, "copies per product")
	out := fs.String("o", "labels.html", "output file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	k, err := export.ParseLabelKind(*kind)
	if err != nil {
		return err
	}

	products, err := a.load(ctx, fs.Args())
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := a.pipeline().LabelDocument(products, k, *copies, f)
	if err != nil {
		os.Remove(*out)
		return err
	}
	fmt.Fprintf(a.stdout, "%s: %d label(s)\n", *out, n)
	return f.Close()
}

func (a *app) archive(ctx context.Context, args []string) error {
	fs := a.flags("archive")
	kind := fs.String("kind", string(export.BarcodeImage), "barcode, barcode-info or price-label")
	batch := fs.Int("batch", 1, "batch number used in the archive name")
	dir := fs.String("dir", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	k, err := export.ParseImageKind(*kind)
	if err != nil {
		return err
	}

	products, err := a.load(ctx, fs.Args())
	if err != nil {
		return err
	}
	path := filepath.Join(*dir, export.ArchiveName(k, *batch)+".zip")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := a.pipeline().Archive(products, k, *batch, f); err != nil {
		os.Remove(path)
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return f.Close()
}

func (a *app) image(ctx context.Context, args []string) error {
	fs := a.flags("image")
	kind := fs.String("kind", string(export.BarcodeImage), "barcode, barcode-info or price-label")
	dir := fs.String("dir", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("image takes exactly one product id")
	}
	k, err := export.ParseImageKind(*kind)
	if err != nil {
		return err
	}

	store, err := catalog.Open(a.cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()
	prod, err := store.Product(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	path := filepath.Join(*dir, k.FileName(prod))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := a.pipeline().SingleImage(prod, k, f); err != nil {
		os.Remove(path)
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return f.Close()
}

// print sends thermal labels straight to a registered printer.
func (a *app) print(ctx context.Context, args []string) error {
	fs := a.flags("print")
	printerID := fs.String("printer", "", "registered printer id")
	kind := fs.String("kind", string(export.BarcodeLabel), "barcode or label")
	copies := fs.Int("copies", 1, "copies per product")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *printerID == "" {
		return fmt.Errorf("-printer is required")
	}
	k, err := export.ParseLabelKind(*kind)
	if err != nil {
		return err
	}

	reg, err := registry.New(a.cfg.RegistryPath)
	if err != nil {
		return err
	}
	entry, err := reg.Get(*printerID)
	if err != nil {
		return err
	}

	products, err := a.load(ctx, fs.Args())
	if err != nil {
		return err
	}
	imgs, err := a.pipeline().LabelRasters(products, k, *copies)
	if err != nil {
		return err
	}

	pool := printer.NewPool(a.dial)
	defer pool.DisconnectAll()
	if err := pool.Connect(entry); err != nil {
		return err
	}
	if err := pool.Print(entry.ID, imgs); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "sent %d label(s) to %s\n", len(imgs), entry.DisplayName())
	return nil
}

func (a *app) generate(ctx context.Context, args []string) error {
	fs := a.flags("generate")
	n := fs.Int("n", 1, "how many codes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	category := strings.Join(fs.Args(), " ")
	for range max(*n, 1) {
		fmt.Fprintln(a.stdout, a.codec.Generate(category))
	}
	return nil
}

func (a *app) convert(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("convert needs at least one code")
	}
	for _, code := range args {
		fmt.Fprintf(a.stdout, "%s\t%s\n", code, a.codec.ConvertLegacyToCompact(code))
	}
	return nil
}

func (a *app) migrate(ctx context.Context, args []string) error {
	store, err := catalog.Open(a.cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.MigrateLegacyBarcodes(ctx, a.codec)
	if err != nil {
		return err
	}
	notify.Send(notify.NewConsole(a.stderr), notify.Success, "Barcodes migrated", fmt.Sprintf("%d product(s) updated", n))
	fmt.Fprintln(a.stdout, n)
	return nil
}

func (a *app) printers(ctx context.Context, args []string) error {
	reg, err := registry.New(a.cfg.RegistryPath)
	if err != nil {
		return err
	}
	for _, e := range reg.List() {
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", e.ID, e.DisplayName(), e.Type)
	}
	return nil
}

func (a *app) ports(ctx context.Context, args []string) error {
	for _, p := range printer.SerialPorts() {
		fmt.Fprintln(a.stdout, p)
	}
	return nil
}
