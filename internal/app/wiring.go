package app

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"fim-go/internal/config"
	"fim-go/internal/filter"
	"fim-go/internal/fim"
)

// BuildWatches converts the configured watch roots into engine watches.
// A root with no attribute options gets check_all. The recursion level
// defaults to scan.max_depth.
func BuildWatches(cfg *config.Config) ([]fim.WatchConfig, error) {
	watches := make([]fim.WatchConfig, 0, len(cfg.Watches))
	for _, wc := range cfg.Watches {
		opts, err := fim.ParseOptions(wc.Options)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", wc.Path, err)
		}
		if opts&fim.OptCheckAll == 0 {
			opts |= fim.OptCheckAll
		}
		if wc.Realtime {
			opts |= fim.OptRealtime
		}
		if wc.Whodata {
			opts |= fim.OptWhodata
		}
		if wc.ReportChanges {
			opts |= fim.OptCaptureContent
		}

		path := filepath.Clean(wc.Path)
		if !filepath.IsAbs(path) {
			return nil, fmt.Errorf("watch path %q must be absolute", wc.Path)
		}

		depth := cfg.Scan.MaxDepth
		if wc.RecursionLevel != nil {
			depth = *wc.RecursionLevel
		}
		if depth < 0 {
			return nil, fmt.Errorf("watch %s: negative recursion level", path)
		}

		var restrict *regexp.Regexp
		if wc.Restrict != "" {
			if restrict, err = regexp.Compile(wc.Restrict); err != nil {
				return nil, fmt.Errorf("watch %s: compiling restrict: %w", path, err)
			}
		}

		watches = append(watches, fim.WatchConfig{
			Path:     path,
			Options:  opts,
			MaxDepth: depth,
			Restrict: restrict,
			Tag:      wc.Tag,
		})
	}
	return watches, nil
}

// BuildFilter compiles the global ignore rules, merging in the ignore file if one is set.
func BuildFilter(cfg *config.Config) (*filter.Rules, error) {
	literals := append([]string{}, cfg.Filter.Ignore...)
	globs := append([]string{}, cfg.Filter.IgnoreGlob...)
	if cfg.Filter.IgnoreFile != "" {
		f, err := filter.ParseIgnoreFile(cfg.Filter.IgnoreFile)
		if err != nil {
			return nil, err
		}
		literals = append(literals, f.Literals...)
		globs = append(globs, f.Globs...)
	}
	return filter.NewRules(literals, cfg.Filter.IgnoreRegex, globs)
}

// BuildOptions maps scan settings onto engine options.
func BuildOptions(cfg *config.Config, rules *filter.Rules) fim.GlobalOptions {
	return fim.GlobalOptions{
		SkipNFS:        cfg.Scan.SkipNFS,
		RemoveOldDiff:  cfg.Scan.RemoveOldDiff,
		SleepAfter:     cfg.Scan.SleepAfter,
		ScanSleep:      time.Duration(cfg.Scan.ScanSleep) * time.Second,
		AuditSizeLimit: cfg.Scan.AuditSizeLimit,
		SendDelay:      time.Duration(cfg.Sink.DelayUS) * time.Microsecond,
		Ignore:         rules,
	}
}

func capturesContent(watches []fim.WatchConfig) bool {
	for _, w := range watches {
		if w.Options.Has(fim.OptCaptureContent) {
			return true
		}
	}
	return false
}

func hasRealtime(watches []fim.WatchConfig) bool {
	for _, w := range watches {
		if w.Options.Realtime() {
			return true
		}
	}
	return false
}
