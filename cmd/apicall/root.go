package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/samvad-hq/samvad-api-client/internal/app"
	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootOptions struct {
	v       *viper.Viper
	auth    bool
	headers []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:           "apicall",
		Short:         "Send JSON requests to an API host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("host", "", "API host, e.g. https://api.example.com (env API_HOST)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.String("storage", "", "token storage: bbolt, memory, none (env STORAGE_TYPE)")
	flags.String("bbolt-path", "", "bbolt token database path (env BBOLT_PATH)")
	_ = opts.v.BindPFlag("api_host", flags.Lookup("host"))
	_ = opts.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = opts.v.BindPFlag("storage_type", flags.Lookup("storage"))
	_ = opts.v.BindPFlag("bbolt_path", flags.Lookup("bbolt-path"))

	root.AddCommand(
		newRequestCmd(opts, http.MethodGet, false),
		newRequestCmd(opts, http.MethodDelete, false),
		newRequestCmd(opts, http.MethodPost, true),
		newRequestCmd(opts, http.MethodPatch, true),
		newTokenCmd(opts),
	)
	return root
}

func newRequestCmd(opts *rootOptions, method string, withBody bool) *cobra.Command {
	use := strings.ToLower(method) + " <path>"
	args := cobra.ExactArgs(1)
	if withBody {
		use += " [json]"
		args = cobra.RangeArgs(1, 2)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			headers, err := parseHeaderFlags(opts.headers)
			if err != nil {
				return err
			}

			call := app.Call{
				Method:        method,
				Path:          args[0],
				Headers:       headers,
				Authenticated: opts.auth,
			}
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("request body is not valid JSON")
				}
				call.Body = []byte(args[1])
			}

			return withCaller(opts, func(caller *app.Caller) error {
				res, err := caller.Call(cmd.Context(), call)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().BoolVarP(&opts.auth, "auth", "a", false, "send the stored bearer token")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "extra header as key:value (repeatable)")
	return cmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored bearer token",
	}

	token.AddCommand(
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store a bearer token",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return withCaller(opts, func(caller *app.Caller) error {
					return caller.SetToken(args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Remove the stored bearer token",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withCaller(opts, func(caller *app.Caller) error {
					return caller.RemoveToken()
				})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored bearer token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withCaller(opts, func(caller *app.Caller) error {
					value, ok, err := caller.Token()
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("no bearer token stored")
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
					return err
				})
			},
		},
	)
	return token
}

// withCaller loads config, builds a caller and closes it after fn.
func withCaller(opts *rootOptions, fn func(*app.Caller) error) error {
	cfg, err := config.LoadWith(opts.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	caller, err := app.NewCaller(cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize caller", "error", err)
		return err
	}
	defer caller.Close()

	return fn(caller)
}

func parseHeaderFlags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q (expected key:value)", h)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
