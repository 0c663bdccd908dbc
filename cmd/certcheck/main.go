package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"certcheck/internal/app"
	"certcheck/internal/certcheck"
	"certcheck/internal/config"
	"certcheck/internal/credentials"
	"certcheck/internal/digest"
)

// errInvalidVerdict makes the process exit non-zero without printing usage.
var errInvalidVerdict = errors.New("one or more certificates are invalid")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	paths, err := app.ResolvePaths()
	if err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(paths.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a CheckApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "verify", "serve").
func newApp(ctx context.Context, command string) (*app.CheckApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewCheckApp(ctx, cfg, command, os.Getenv(app.PassphraseEnv))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readSecret reads a line from the terminal without echo, or from stdin
// when it is not a terminal.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var s string
		if _, err := fmt.Fscanln(os.Stdin, &s); err != nil {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(prompt), err)
		}
		return s, nil
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(string(b)), nil
}

func passphrase() (string, error) {
	if p := os.Getenv(app.PassphraseEnv); p != "" {
		return p, nil
	}
	return readSecret("Passphrase")
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

var rootCmd = &cobra.Command{
	Use:          "certcheck",
	Short:        "Certificate authenticity checker",
	SilenceUsage: true,
}

// verify command
var verifyCmd = &cobra.Command{
	Use:   "verify PATH...",
	Short: "Verify certificate files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd.Context(), "verify")
		if err != nil {
			return err
		}
		defer a.Close()

		verdicts, err := a.VerifyPaths(cmd.Context(), args, recursive)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(verdicts); err != nil {
				return fmt.Errorf("encoding verdicts: %w", err)
			}
		} else {
			if len(verdicts) == 0 {
				fmt.Println("No files found.")
			}
			for _, v := range verdicts {
				fmt.Printf("%-7s  %-6s  %s\n", v.Status, v.Path, v.Metadata.FileName)
				for _, issue := range v.Issues {
					fmt.Printf("         - %s\n", issue)
				}
			}
		}

		if a.Run().Failed() {
			return errInvalidVerdict
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verification API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(ctx)
	},
}

// health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the verification backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := app.CheckBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Backend:      %s\n", st.BaseURL)
		fmt.Printf("Status:       %s\n", st.Health.Status)
		fmt.Printf("Version:      %s\n", st.Health.Version)
		fmt.Printf("Database:     %s\n", st.Health.Database)
		fmt.Printf("OCR:          %s\n", st.Health.Services.OCR)
		fmt.Printf("Verification: %s\n", st.Health.Services.Verification)
		fmt.Printf("AI module:    %s\n", st.Health.Services.AIModule)
		fmt.Printf("Sign-in:      %v\n", st.OAuthAvailable)
		return nil
	},
}

// registry command
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage known-good certificate records",
}

var registryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a certificate",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		number, _ := flags.GetString("number")
		hash, _ := flags.GetString("digest")
		file, _ := flags.GetString("file")
		name, _ := flags.GetString("name")
		institution, _ := flags.GetString("institution")
		course, _ := flags.GetString("course")
		year, _ := flags.GetInt("year")
		notes, _ := flags.GetString("notes")

		if (hash == "") == (file == "") {
			return errors.New("exactly one of --digest or --file is required")
		}
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening %s: %w", file, err)
			}
			hash, err = digest.SHA256{}.Sum(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("hashing %s: %w", file, err)
			}
		}

		a, err := newApp(cmd.Context(), "registry add")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.AddRecord(cmd.Context(), certcheck.Record{
			Identifier:  number,
			Digest:      hash,
			Name:        name,
			Institution: institution,
			Course:      course,
			Year:        year,
			Notes:       notes,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Registered %s (%s)\n", rec.Identifier, shortDigest(rec.Digest))
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered certificates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "registry list")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ListRecords(cmd.Context())
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No records registered.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%-20s  %s  %4d  %-30s  %s\n", r.Identifier, shortDigest(r.Digest), r.Year, r.Institution, r.Name)
		}
		return nil
	},
}

var registryImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import records from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()

		a, err := newApp(cmd.Context(), "registry import")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ImportRecords(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d record(s)\n", n)
		return nil
	},
}

var registryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all records to stdout as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "registry export")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ExportRecords(cmd.Context(), os.Stdout)
	},
}

var registrySeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register the demo records",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "registry seed")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.SeedDemo(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Added %d demo record(s)\n", n)
		return nil
	},
}

var registryMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply registry schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		migrated, err := app.MigrateRegistry(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if !migrated {
			fmt.Printf("Registry type %q has no schema to migrate.\n", cfg.Registry.Type)
			return nil
		}
		fmt.Println("Registry schema is up to date.")
		return nil
	},
}

var registryPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload a registry snapshot to S3",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "registry publish")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.PublishSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Published %d record(s)\n", n)
		return nil
	},
}

// auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage backend credentials",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a backend access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			fmt.Fprintf(os.Stderr, "Sign in at %s\n", app.SignInURL(cfg, "urn:ietf:wg:oauth:2.0:oob"))
			if token, err = readSecret("Access token"); err != nil {
				return err
			}
		}
		pass, err := passphrase()
		if err != nil {
			return err
		}

		s, err := app.Login(cfg, token, pass, time.Now())
		if err != nil {
			return err
		}
		if exp, ok := s.ExpiresAt(); ok {
			fmt.Printf("Logged in; token expires %s\n", exp.Local().Format("2006-01-02 15:04"))
		} else {
			fmt.Println("Logged in")
		}
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pass, err := passphrase()
		if err != nil {
			return err
		}
		s, err := app.LoadSession(cfg, pass)
		if errors.Is(err, credentials.ErrNotFound) {
			fmt.Println("Not logged in.")
			return nil
		}
		if err != nil {
			return err
		}

		exp, ok := s.ExpiresAt()
		switch {
		case !ok:
			fmt.Println("Logged in (token has no expiry)")
		case s.Expired(time.Now()):
			fmt.Printf("Token expired %s; run 'certcheck auth login'\n", exp.Local().Format("2006-01-02 15:04"))
		default:
			fmt.Printf("Logged in; token expires %s\n", exp.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.Logout(cfg); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.ResolvePaths()
		if err != nil {
			return err
		}

		cfg := paths.NewConfig()
		if err := config.Init(paths.ConfigFile, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if _, err := app.MigrateRegistry(cmd.Context(), cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigFile)
		fmt.Printf("Base Dir: %s\n", paths.Home)
		fmt.Printf("Registry: %s (%s)\n", cfg.Registry.Type, cfg.Registry.Path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.ResolvePaths()
		if err != nil {
			return err
		}

		cfg, err := config.ReadFromFile(paths.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", paths.ConfigFile)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Backend:   %s (enabled: %v, timeout: %s)\n", cfg.Remote.BaseURL, cfg.Remote.Enabled, cfg.Remote.Timeout())
		fmt.Printf("Registry:  %s\n", cfg.Registry.Type)
		fmt.Printf("Audit:     %s\n", cfg.Audit.Type)
		fmt.Printf("Server:    %s\n", cfg.Server.Addr)
		return nil
	},
}

func init() {
	// verify
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	verifyCmd.Flags().Bool("json", false, "Print verdicts as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)

	// registry subcommands
	registryCmd.AddCommand(registryAddCmd)
	registryAddCmd.Flags().String("number", "", "Certificate number (JH-XX-YYYY-NNNNNN)")
	registryAddCmd.Flags().String("digest", "", "SHA-256 of the genuine file")
	registryAddCmd.Flags().String("file", "", "Genuine file to hash instead of --digest")
	registryAddCmd.Flags().String("name", "", "Holder name")
	registryAddCmd.Flags().String("institution", "", "Issuing institution")
	registryAddCmd.Flags().String("course", "", "Course or degree")
	registryAddCmd.Flags().Int("year", 0, "Year of issue")
	registryAddCmd.Flags().String("notes", "", "Free-form notes")
	registryAddCmd.MarkFlagRequired("number")
	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryImportCmd)
	registryCmd.AddCommand(registryExportCmd)
	registryCmd.AddCommand(registrySeedCmd)
	registryCmd.AddCommand(registryMigrateCmd)
	registryCmd.AddCommand(registryPublishCmd)
	rootCmd.AddCommand(registryCmd)

	// auth subcommands
	authCmd.AddCommand(authLoginCmd)
	authLoginCmd.Flags().String("token", "", "Access token (prompted when omitted)")
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
