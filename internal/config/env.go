package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// envOverride binds a TESTORCH_ variable to the flags it stands in for.
type envOverride struct {
	key   string
	flags []string
	apply func(*AppConfig, string)
}

func durationEnv(set func(*AppConfig, time.Duration)) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if d, err := time.ParseDuration(v); err == nil {
			set(c, d)
		}
	}
}

func boolEnv(field func(*AppConfig) *bool) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		p := field(c)
		*p = parseBoolEnv(v, *p)
	}
}

var envOverrides = []envOverride{
	{"SUITE", []string{"suite", "f"}, func(c *AppConfig, v string) { c.SuitePath = v }},
	{"POOL_SIZE", []string{"pool-size", "p"}, func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.PoolSize = n
		}
	}},
	{"DRAIN_TIMEOUT", []string{"drain-timeout"}, durationEnv(func(c *AppConfig, d time.Duration) { c.DrainTimeout = d })},
	{"GRACE_PERIOD", []string{"grace-period"}, durationEnv(func(c *AppConfig, d time.Duration) { c.GracePeriod = d })},
	{"LOG_FORMAT", []string{"log-format"}, func(c *AppConfig, v string) { c.LogFormat = v }},
	{"METRICS_ADDR", []string{"metrics-addr"}, func(c *AppConfig, v string) { c.MetricsAddr = v }},
	{"REPORT", []string{"report"}, func(c *AppConfig, v string) { c.ReportFile = v }},
	{"VERBOSE", []string{"v", "verbose"}, boolEnv(func(c *AppConfig) *bool { return &c.Verbose })},
	{"QUIET", []string{"q", "quiet"}, boolEnv(func(c *AppConfig) *bool { return &c.Quiet })},
	{"NO_COLOR", []string{"no-color"}, boolEnv(func(c *AppConfig) *bool { return &c.NoColor })},
}

// parseBoolEnv accepts true/1/yes and false/0/no in any case. Anything else
// leaves def in place.
func parseBoolEnv(val string, def bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

// applyEnvOverrides fills in values from TESTORCH_ variables for every
// setting whose flag was not given. Flags win over the environment, which
// wins over defaults. Unparseable values are ignored.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	for _, o := range envOverrides {
		if anyGiven(given, o.flags) {
			continue
		}
		if val, ok := os.LookupEnv(EnvPrefix + o.key); ok && val != "" {
			o.apply(config, val)
		}
	}
}

func anyGiven(given map[string]bool, names []string) bool {
	for _, n := range names {
		if given[n] {
			return true
		}
	}
	return false
}
