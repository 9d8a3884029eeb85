/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/errcode"
	"github.com/spf13/cobra"
)

// getLookupCmd returns the lookup command.
func getLookupCmd() *cobra.Command {
	var suggest int

	lookupCmd := &cobra.Command{
		Use:   "lookup NAME",
		Short: "Find a scientific name in the TAXREF name table",
		Long: `Find a scientific name in the TAXREF name table set by
registry.taxref_path in the config file.

A name is found by its normalized form, by its trigram key (three
first letters of genus, species and infraspecific epithets, for
example 'abialb' for 'Abies alba'), or by a unique prefix.

The result includes ecology, herbarium criteria, physiognomy and
phenology of the species when the corresponding registry.*_path
tables are configured.

Examples:
  gnflore lookup 'Abies alba'
  gnflore lookup abialb
  gnflore lookup carex -s 20`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runLookup(cmd, strings.Join(args, " "), suggest)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	lookupCmd.Flags().IntVarP(
		&suggest, "suggest", "s", 0,
		"return up to this number of names starting like the query",
	)

	return lookupCmd
}

func runLookup(cmd *cobra.Command, name string, suggest int) error {
	a, err := newApp(context.Background(), cfg, refNeeds{names: true})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if suggest > 0 {
		return writeJSON(out, a.flore.Suggest(name, suggest), false)
	}

	m, ok := a.flore.Lookup(name)
	if !ok {
		return &gn.Error{
			Code: errcode.NameNotFoundError,
			Msg:  "Name <em>%s</em> is not found, try <em>--suggest</em>",
			Vars: []any{name},
			Err:  fmt.Errorf("name %q not found", name),
		}
	}
	return writeJSON(out, m, false)
}
