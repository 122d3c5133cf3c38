package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/converters"
	"github.com/GabrielNunesIT/openapi-tryit/internal/catalog"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
	"github.com/GabrielNunesIT/openapi-tryit/internal/server"
	"github.com/GabrielNunesIT/openapi-tryit/internal/synth"
)

func (c *CLI) listCommand() *cobra.Command {
	var input, tag, method, search string
	var requests bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the operations of a specification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := c.open(cmd.Context(), input)
			if err != nil {
				return err
			}

			if requests {
				return writeJSON(cmd.OutOrStdout(), synth.BuildCollection(doc, c.cfg.SynthConfig()))
			}

			entries := filterEntries(catalog.New(doc), tag, method, search)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Method, e.Path, e.Summary)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Specification file, URL or store:<id> (required)")
	cmd.Flags().StringVar(&tag, "tag", "", "Only operations with this tag")
	cmd.Flags().StringVar(&method, "method", "", "Only operations with this method")
	cmd.Flags().StringVar(&search, "search", "", "Only operations matching this text")
	cmd.Flags().BoolVar(&requests, "requests", false, "Print the default request of every operation as JSON")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// filterEntries applies the tag and method filters, then the text search.
func filterEntries(cat *catalog.Catalog, tag, method, search string) []catalog.Entry {
	entries := cat.Filter(tag, method)
	if search == "" {
		return entries
	}

	matched := make(map[string]bool)
	for _, e := range cat.Search(search) {
		matched[e.Method+" "+e.Path] = true
	}

	var out []catalog.Entry
	for _, e := range entries {
		if matched[e.Method+" "+e.Path] {
			out = append(out, e)
		}
	}
	return out
}

func (c *CLI) requestCommand() *cobra.Command {
	var input, path, method, body string
	var serverIndex int
	var sets, headers []string
	var creds credentials
	var serialized, send, showSecrets bool

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Build the default request of an operation",
		Long: "Build the default request of an operation. The editable model is printed " +
			"unless --serialized or --send is given. Printed credentials are masked " +
			"unless --show-secrets is given.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := c.open(cmd.Context(), input)
			if err != nil {
				return err
			}

			op, item, err := catalog.New(doc).Find(path, method)
			if err != nil {
				return err
			}

			var srv *domain.Server
			if serverIndex >= 0 {
				if serverIndex >= len(doc.Servers) {
					return fmt.Errorf("%w: server %d not declared (%d servers)", domain.ErrInvalidRequest, serverIndex, len(doc.Servers))
				}
				srv = &doc.Servers[serverIndex]
			}

			model := synth.BuildRequestDefaults(op, item, srv, doc, c.cfg.SynthConfig())
			if err := applyEdits(&model, sets, headers); err != nil {
				return err
			}
			if cmd.Flags().Changed("body") {
				model.Body = body
			}
			if err := creds.apply(&model.Auth); err != nil {
				return err
			}

			if !serialized && !send {
				if !showSecrets {
					model.Auth = model.Auth.Masked()
				}
				return writeJSON(cmd.OutOrStdout(), model)
			}

			desc := synth.Serialize(model)
			if !send {
				if !showSecrets {
					desc.Auth = desc.Auth.Masked()
				}
				return writeJSON(cmd.OutOrStdout(), desc)
			}

			resp, err := c.executor().Execute(cmd.Context(), desc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Specification file, URL or store:<id> (required)")
	cmd.Flags().StringVar(&path, "path", "", "Operation path, e.g. /users/{id} (required)")
	cmd.Flags().StringVar(&method, "method", "get", "Operation method")
	cmd.Flags().IntVar(&serverIndex, "server", -1, "Index of the declared server to use")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a parameter value, key=value (repeatable)")
	cmd.Flags().StringArrayVar(&headers, "header", nil, "Set a header, key=value (repeatable)")
	cmd.Flags().StringVar(&body, "body", "", "Replace the request body")
	cmd.Flags().StringVar(&creds.token, "token", "", "Bearer token")
	cmd.Flags().StringVar(&creds.apiKey, "api-key", "", "API key, sent where the security scheme says")
	cmd.Flags().StringVar(&creds.user, "user", "", "Basic credentials, user:password")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print credentials in clear")
	cmd.Flags().BoolVar(&serialized, "serialized", false, "Print the dispatchable request instead of the model")
	cmd.Flags().BoolVar(&send, "send", false, "Send the request and print the response")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

// credentials are the auth values given on the command line.
type credentials struct {
	token, apiKey, user string
}

// apply fills auth from the flags. At most one kind may be given; it
// overrides the auth type detected from the document.
func (c credentials) apply(auth *domain.Auth) error {
	given := 0
	for _, v := range []string{c.token, c.apiKey, c.user} {
		if v != "" {
			given++
		}
	}
	if given > 1 {
		return fmt.Errorf("%w: --token, --api-key and --user are exclusive", domain.ErrInvalidRequest)
	}

	switch {
	case c.token != "":
		auth.Type = domain.AuthBearer
		auth.Token = c.token
	case c.apiKey != "":
		auth.Type = domain.AuthAPIKey
		auth.APIKey = c.apiKey
	case c.user != "":
		user, pass, ok := strings.Cut(c.user, ":")
		if !ok {
			return fmt.Errorf("%w: expected --user user:password", domain.ErrInvalidRequest)
		}
		auth.Type = domain.AuthBasic
		auth.Username = user
		auth.Password = pass
	}
	return nil
}

// applyEdits sets parameter and header rows from key=value pairs.
// Unknown parameters are added as query parameters.
func applyEdits(model *domain.RequestModel, sets, headers []string) error {
	for _, kv := range sets {
		key, value, err := splitPair(kv)
		if err != nil {
			return err
		}

		found := false
		for i := range model.Params {
			if model.Params[i].Key == key {
				model.Params[i].Value = value
				model.Params[i].Enabled = true
				found = true
			}
		}
		if !found {
			model.Params = append(model.Params, domain.ParamRow{Enabled: true, Key: key, Value: value, ParamIn: domain.InQuery})
		}
	}

	for _, kv := range headers {
		key, value, err := splitPair(kv)
		if err != nil {
			return err
		}

		found := false
		for i := range model.Headers {
			if strings.EqualFold(model.Headers[i].Key, key) {
				model.Headers[i].Value = value
				model.Headers[i].Enabled = true
				found = true
			}
		}
		if !found {
			model.Headers = append(model.Headers, domain.HeaderRow{Enabled: true, Key: key, Value: value})
		}
	}

	model.Normalize()
	return nil
}

func splitPair(kv string) (string, string, error) {
	key, value, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: expected key=value, got %q", domain.ErrInvalidRequest, kv)
	}
	return key, value, nil
}

func (c *CLI) exportCommand() *cobra.Command {
	var input, output, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the default requests of a specification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conv, err := converters.New(format)
			if err != nil {
				return err
			}

			doc, err := c.open(cmd.Context(), input)
			if err != nil {
				return err
			}

			c.log.Infof("Converting to %s format...", conv.Format())

			outputFile, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer outputFile.Close()

			if err := conv.Convert(synth.BuildCollection(doc, c.cfg.SynthConfig()), outputFile); err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}

			c.log.Infof("Successfully created: %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Specification file, URL or store:<id> (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Path for the output file (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Output format: "+strings.Join(converters.Formats, ", "))
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (c *CLI) fetchCommand() *cobra.Command {
	var ids []string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Download specifications, optionally storing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, urls []string) error {
			if len(ids) > 0 && len(ids) != len(urls) {
				return fmt.Errorf("%w: %d ids for %d urls", domain.ErrInvalidRequest, len(ids), len(urls))
			}

			if refresh {
				if err := c.fetcher.Refresh(urls...); err != nil {
					return err
				}
			}

			contents, err := c.fetcher.FetchAll(cmd.Context(), urls)
			if err != nil {
				return err
			}

			if len(urls) == 1 && len(ids) == 0 {
				if _, err := c.specs.Parse(cmd.Context(), contents[0]); err != nil {
					return err
				}
				_, err := fmt.Fprint(cmd.OutOrStdout(), contents[0])
				return err
			}

			var errs []error
			for i, content := range contents {
				if len(ids) == 0 {
					doc, err := c.specs.Parse(cmd.Context(), content)
					if err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", urls[i], err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (v%s)\n", urls[i], doc.Info.Title, doc.Info.Version)
					continue
				}

				if _, _, err := c.specs.Import(cmd.Context(), ids[i], content, urls[i]); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", urls[i], err))
				}
			}

			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "Store each fetched spec under this id, one per URL")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore cached copies and download again")

	return cmd
}

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(c.specs, c.executor(), c.log, server.Options{
				Addr:  c.cfg.Server.Addr,
				Pprof: c.cfg.Server.Pprof,
				Synth: c.cfg.SynthConfig(),
			})
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}
