// Package config reads the server configuration from BLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dfryer1193/peakblog/blog/visibility"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

const (
	envVarPrefix = "blog"

	usageListFormat = `The blog server is configured via environment vars only. A .env file in the working directory is read first. The following environment variables can be used:
{{range .}}
{{usage_key .}}
  description: {{usage_description .}}
  type:        {{usage_type .}}
  default:     {{usage_default .}}
  required:    {{usage_required .}}
{{end}}
`
)

// SourceType selects where post units are read from.
type SourceType string

const (
	SourceEmbedded SourceType = "embedded"
	SourceDir      SourceType = "dir"
	SourceGithub   SourceType = "github"
)

// StoreType selects what answers post queries.
type StoreType string

const (
	StoreMemory StoreType = "memory"
	StoreSQLite StoreType = "sqlite"
)

var (
	sourceNameToType = map[string]SourceType{
		"embedded": SourceEmbedded,
		"dir":      SourceDir,
		"github":   SourceGithub,
	}
	storeNameToType = map[string]StoreType{
		"memory": StoreMemory,
		"sqlite": StoreSQLite,
	}
)

// ServerConfig is the blog server configuration.
type ServerConfig struct {
	Port     int    `default:"8080" desc:"Port the HTTP server listens on"`
	Mode     string `default:"production" desc:"production gates future posts, development shows every post"`
	LogLevel string `split_words:"true" default:"info" desc:"zerolog level (trace, debug, info, warn, error)"`
	BaseURL  string `split_words:"true" default:"/" desc:"Path or URL the blog is mounted at, used for asset links"`

	ContentSource string `split_words:"true" default:"embedded" desc:"Where posts come from: embedded, dir or github"`
	ContentDir    string `split_words:"true" default:"./content" desc:"If content source is dir, the directory holding posts/ and images/"`
	GithubOwner   string `split_words:"true" desc:"If content source is github, the repository owner"`
	GithubRepo    string `split_words:"true" desc:"If content source is github, the repository name"`
	GithubRef     string `split_words:"true" desc:"If content source is github, the ref to read; empty means the default branch"`
	GithubToken   string `split_words:"true" desc:"Optional GitHub token for private repositories and higher rate limits"`

	Store        string `default:"sqlite" desc:"What serves post queries: sqlite (indexed copy) or memory"`
	SqliteDBPath string `split_words:"true" default:"./peakblog.db" desc:"If store is sqlite, the database file; :memory: for a throwaway index"`

	ResyncSchedule string `split_words:"true" desc:"Optional cron spec re-reading the content source, e.g. @every 15m"`
	SweepSchedule  string `split_words:"true" default:"@every 10m" desc:"Cron spec for dropping idle sessions and rate limiter entries"`

	SessionTTL      time.Duration `split_words:"true" default:"12h" desc:"How long an idle session keeps its unlocks"`
	UnlockClicks    int           `split_words:"true" default:"5" desc:"Activations of the hidden element that unlock every post"`
	WebhookSecret   string        `split_words:"true" desc:"GitHub webhook secret; the webhook route is disabled when empty"`
	CorsOrigin      string        `split_words:"true" default:"*" desc:"Allowed origin for the posts/v1 JSON API. With * browsers send no session cookie, so unlocks only persist same-origin"`
	CodeStyle       string        `split_words:"true" default:"github" desc:"Chroma style for code highlighting"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s" desc:"Grace period for in-flight requests on shutdown"`

	Visibility visibility.Mode `ignored:"true"`
	Level      zerolog.Level   `ignored:"true"`
	SourceType SourceType      `ignored:"true"`
	StoreType  StoreType       `ignored:"true"`
}

// OutputUsage prints every supported variable to stdout.
func (c *ServerConfig) OutputUsage() {
	c.WriteUsage(os.Stdout)
}

// WriteUsage prints every supported variable to w.
func (c *ServerConfig) WriteUsage(w io.Writer) {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	_ = envconfig.Usagef(envVarPrefix, c, tabs, usageListFormat)
	_ = tabs.Flush()
}

// PopulateFromEnv fills the config from the environment and validates it.
func (c *ServerConfig) PopulateFromEnv() error {
	err := envconfig.Process(envVarPrefix, c)
	if err != nil {
		return err
	}

	c.Visibility, err = visibility.ParseMode(c.Mode)
	if err != nil {
		return err
	}

	c.Level, err = zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: '%v'", c.LogLevel)
	}

	err = c.populateSourceType()
	if err != nil {
		return err
	}

	err = c.populateStoreType()
	if err != nil {
		return err
	}

	err = c.validateSchedules()
	if err != nil {
		return err
	}

	return c.validateLimits()
}

func (c *ServerConfig) populateSourceType() error {
	t, ok := sourceNameToType[c.ContentSource]
	if !ok {
		return fmt.Errorf("invalid content source: %v; valid types %v", c.ContentSource, names(sourceNameToType))
	}
	c.SourceType = t

	switch t {
	case SourceDir:
		if c.ContentDir == "" {
			return errors.New("content dir required")
		}
	case SourceGithub:
		if c.GithubOwner == "" || c.GithubRepo == "" {
			return errors.New("github owner and repo required")
		}
	}
	return nil
}

func (c *ServerConfig) populateStoreType() error {
	t, ok := storeNameToType[c.Store]
	if !ok {
		return fmt.Errorf("invalid store: %v; valid types %v", c.Store, names(storeNameToType))
	}
	c.StoreType = t

	if t == StoreSQLite && c.SqliteDBPath == "" {
		return errors.New("sqlite db path required")
	}
	return nil
}

func (c *ServerConfig) validateSchedules() error {
	for _, spec := range []string{c.ResyncSchedule, c.SweepSchedule} {
		if spec == "" {
			continue
		}
		if _, err := cron.Parse(spec); err != nil {
			return fmt.Errorf("invalid cron config: '%v'", spec)
		}
	}
	return nil
}

func (c *ServerConfig) validateLimits() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.UnlockClicks < 1 {
		return fmt.Errorf("unlock clicks must be at least 1, got %d", c.UnlockClicks)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %v", c.SessionTTL)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", c.ShutdownTimeout)
	}
	return nil
}

func names[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
