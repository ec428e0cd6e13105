package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/odata"
)

func newURLCmd() *cobra.Command {
	var (
		reqFlags requestFlags
		baseURL  string
		dialect  string
		encode   bool
	)

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the OData URLs a request compiles to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = cfg.Source.URL
			}
			if baseURL == "" {
				return fmt.Errorf("no base URL: pass --url or set source.url")
			}
			if dialect == "" {
				dialect = cfg.Source.Dialect
			}
			d, err := odata.ParseDialect(dialect)
			if err != nil {
				return err
			}

			req, err := reqFlags.build(cmd, cfg)
			if err != nil {
				return err
			}
			urls, err := odata.BuildURL(d, baseURL, req)
			if err != nil {
				return err
			}

			data, page := urls.DataURL, urls.PageURL
			if encode {
				data, page = urls.EncodedDataURL(), urls.EncodedPageURL()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "data: %s\n", data)
			fmt.Fprintf(out, "page: %s\n", page)
			return nil
		},
	}

	reqFlags.register(cmd)
	cmd.Flags().StringVar(&baseURL, "url", "", "collection URL (default source.url)")
	cmd.Flags().StringVar(&dialect, "dialect", "", "OData dialect (default source.dialect)")
	cmd.Flags().BoolVar(&encode, "encode", false, "percent-encode the query values")
	return cmd
}
