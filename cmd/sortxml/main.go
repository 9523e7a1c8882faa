// Command sortxml sorts the children of selected elements in an XML document,
// using an attribute value or a subelement's text as the sort key.
//
// Example:
//
//	sortxml ARForm_orig.rdl "./DataSets/DataSet[@Name='ARForm']/Fields" Name -o ARForm.rdl
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/Kopachris/sortxml/core/errors"
	"github.com/Kopachris/sortxml/core/sorter"
	"github.com/Kopachris/sortxml/core/xml"
	"github.com/Kopachris/sortxml/internal/logging"
	"github.com/Kopachris/sortxml/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for sortxml.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug|info|warn|error)" enum:"debug,info,warn,error" default:"warn"`
	LogFormat string `name:"log-format" help:"Log format (text|json)" enum:"text,json" default:"text"`

	Sort    SortCmd    `cmd:"" default:"withargs" help:"Sort the children of selected elements"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// SortCmd sorts the children of every element matched by the path expression.
type SortCmd struct {
	Input string `arg:"" help:"File path to the source XML file" type:"existingfile"`
	Path  string `arg:"" name:"xpath" help:"XPath-style selector for the elements to sort the children of"`
	Key   string `arg:"" help:"Name of the attribute to use as the sort key"`

	Descending bool   `short:"r" name:"reverse" aliases:"descending" help:"Sort the child elements in reverse (descending) order"`
	UseText    bool   `short:"t" name:"text" aliases:"use-text" help:"Treat the sort key as the name of a subelement whose text is the sort key"`
	Datetime   bool   `name:"datetime" aliases:"as-datetime" xor:"mode" help:"Try to parse the sort key as a date/time value. Mutually exclusive with --decimal"`
	Decimal    bool   `name:"decimal" aliases:"as-decimal" xor:"mode" help:"Try to parse the sort key as a decimal number. Mutually exclusive with --datetime"`
	Output     string `short:"o" name:"output" type:"path" help:"File path to the destination file (default appends '_sorted' to the input name)"`
}

func (c *SortCmd) Run() error {
	spec, err := sorter.NewKeySpec(c.Key, c.UseText, c.Decimal, c.Datetime, c.Descending)
	if err != nil {
		return err
	}

	outputPath := c.Output
	if outputPath == "" {
		outputPath = defaultOutputPath(c.Input)
	}
	if err := validation.ValidatePath(outputPath); err != nil {
		return errors.Wrap(err, "invalid output path")
	}

	doc, err := xml.Load(c.Input)
	if err != nil {
		return err
	}
	logging.DocumentLoaded(c.Input, len(doc.Serialize()), len(doc.Namespaces))

	start := time.Now()
	parents, err := sorter.Sort(doc, c.Path, spec)
	if err != nil {
		return err
	}
	if parents == 0 {
		logging.Warn("path matched no elements", "xpath", c.Path)
	}
	logging.SortApplied(c.Path, parents, time.Since(start),
		"key", spec.Key,
		"mode", spec.Mode.String(),
		"descending", spec.Descending,
	)

	out := doc.Serialize()
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", outputPath)
	}
	logging.OutputWritten(outputPath, len(out))

	fmt.Printf("Output sorted file as `%s`\n", outputPath)
	return nil
}

// defaultOutputPath derives the destination path by appending "_sorted" to
// the input filename's stem: report.xml -> report_sorted.xml.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_sorted" + ext
}

// VersionCmd prints the tool version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("sortxml version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sortxml"),
		kong.Description("A simple XML element sorter. Will sort the children of selected elements using a given attribute's value or subelement's text as the sort key."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
