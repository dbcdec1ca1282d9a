package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/auth"
	"github.com/mbd888/resumeiq-web/pkg/config"
	"github.com/mbd888/resumeiq-web/pkg/jwt"
)

var buildVersion = "dev"

const apiBaseKey = "api_base_url"

// app carries everything a command needs, so commands can run against a
// test backend and a temporary token file.
type app struct {
	cfg          config.CLIConfig
	store        *auth.FileStore
	out          io.Writer
	readPassword func() (string, error)
	now          func() time.Time
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	a, err := newApp(config.LoadCLIConfig(), os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := a.run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp(cfg config.CLIConfig, out io.Writer) (*app, error) {
	path := strings.TrimSpace(cfg.TokenFile)
	if path == "" {
		var err error
		if path, err = auth.DefaultFilePath(); err != nil {
			return nil, fmt.Errorf("locate config file: %w", err)
		}
	}
	return &app{
		cfg:          cfg,
		store:        auth.NewFileStore(path),
		out:          out,
		readPassword: promptPassword,
		now:          time.Now,
	}, nil
}

var errUsage = errors.New("usage")

func (a *app) run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.commandLogin(rest)
	case "register":
		return a.commandRegister(rest)
	case "logout":
		return a.commandLogout()
	case "whoami":
		return a.commandWhoami()
	case "status":
		return a.commandStatus()
	case "resumes":
		return a.commandResumes(rest)
	case "jobs":
		return a.commandJobs(rest)
	case "version", "--version", "-v":
		fmt.Fprintln(a.out, strings.TrimSpace(buildVersion))
		return nil
	case "help", "-h", "--help":
		printUsage(a.out)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

// baseURL resolves the API location: an explicit flag, then the one saved at
// login, then the environment.
func (a *app) baseURL(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if saved, err := a.store.Get(apiBaseKey); err == nil && strings.TrimSpace(saved) != "" {
		return saved
	}
	return a.cfg.APIBaseURL
}

func (a *app) manager(apiBase string) (*auth.Manager, error) {
	client, err := apiclient.New(a.baseURL(apiBase),
		apiclient.WithTimeout(a.cfg.APITimeout),
		apiclient.WithUserAgent("resumeiq-cli/"+buildVersion),
	)
	if err != nil {
		return nil, err
	}
	return auth.NewManager(client, a.store), nil
}

// session returns a manager for commands that need a signed-in user.
func (a *app) session() (*auth.Manager, error) {
	mgr, err := a.manager("")
	if err != nil {
		return nil, err
	}
	if !mgr.IsAuthenticated() {
		return nil, errors.New("please login first using 'resumeiq login'")
	}
	return mgr, nil
}

func (a *app) context() (context.Context, context.CancelFunc) {
	timeout := a.cfg.APITimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	// uploads also wait for the analysis call
	return context.WithTimeout(context.Background(), 2*timeout)
}

func (a *app) commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "Username")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		return errors.New("--username is required")
	}
	secret := *password
	if secret == "" {
		var err error
		if secret, err = a.readPassword(); err != nil {
			return err
		}
	}

	mgr, err := a.manager(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	if _, err := mgr.Login(ctx, apiclient.Credentials{Username: strings.TrimSpace(*username), Password: secret}); err != nil {
		return errors.New(apiclient.Detail(err, "Login failed"))
	}
	if strings.TrimSpace(*apiBase) != "" {
		if err := a.store.Set(apiBaseKey, mgr.API().BaseURL()); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.out, "login successful")
	return nil
}

func (a *app) commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	username := fs.String("username", "", "Username")
	fullName := fs.String("name", "", "Full name")
	userType := fs.String("type", apiclient.RoleJobSeeker, "Account type (job_seeker|recruiter)")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	secret := *password
	if secret == "" {
		var err error
		if secret, err = a.readPassword(); err != nil {
			return err
		}
	}
	input := apiclient.RegisterInput{
		Email:    strings.TrimSpace(*email),
		Username: strings.TrimSpace(*username),
		Password: secret,
		FullName: strings.TrimSpace(*fullName),
		UserType: strings.TrimSpace(*userType),
	}

	mgr, err := a.manager(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	user, err := mgr.Register(ctx, input)
	if err != nil {
		return errors.New(apiclient.Detail(err, "Registration failed"))
	}
	fmt.Fprintf(a.out, "account created: %s (%s), run 'resumeiq login --username %s'\n", user.Username, user.UserType, user.Username)
	return nil
}

func (a *app) commandLogout() error {
	mgr, err := a.manager("")
	if err != nil {
		return err
	}
	if err := mgr.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) commandWhoami() error {
	mgr, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	user, err := mgr.CurrentUser(ctx)
	if err != nil {
		if auth.IsAuthFailure(err) {
			_ = mgr.Logout()
			return errors.New("session expired, please login again")
		}
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\n", user.Username, user.DisplayName(), user.Email, user.UserType)
	return nil
}

// commandStatus reports whether a token is stored without calling the API.
func (a *app) commandStatus() error {
	mgr, err := a.manager("")
	if err != nil {
		return err
	}
	if !mgr.IsAuthenticated() {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	token, _ := a.store.Load()
	exp, ok := jwt.ExpiresAt(token)
	switch {
	case !ok:
		fmt.Fprintln(a.out, "signed in")
	case a.now().After(exp):
		fmt.Fprintf(a.out, "signed in (token expired %s)\n", exp.Local().Format(time.RFC3339))
	default:
		fmt.Fprintf(a.out, "signed in (token expires %s)\n", exp.Local().Format(time.RFC3339))
	}
	return nil
}

func (a *app) commandJobs(args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return errors.New("usage: resumeiq jobs list [--mine]")
	}
	fs := flag.NewFlagSet("jobs list", flag.ContinueOnError)
	mine := fs.Bool("mine", false, "Only jobs posted by you (recruiters)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	mgr, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	jobs, err := mgr.API().ListJobs(ctx, apiclient.JobQuery{MyJobsOnly: *mine})
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(a.out, "no jobs")
		return nil
	}
	for _, job := range jobs {
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\n", job.ID, job.Title, job.CompanyName(), job.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "resumeiq CLI %s\n\n", buildVersion)
	fmt.Fprint(w, `Usage:
	resumeiq login --username <name> [--password secret] [--api http://localhost:8000/api/v1]
	resumeiq register --email <email> --username <name> --name <full name> [--type job_seeker|recruiter]
	resumeiq whoami
	resumeiq status
	resumeiq logout
	resumeiq resumes list [--limit N]
	resumeiq resumes show --id <resume-id>
	resumeiq resumes upload --file <path> [--position title]
	resumeiq resumes analyze --id <resume-id>
	resumeiq resumes delete --id <resume-id> --yes
	resumeiq jobs list [--mine]
	resumeiq version
`)
}
