// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/backend"
	"github.com/staranto/hbsctl/internal/config"
	"github.com/staranto/hbsctl/internal/manifest"
)

const (
	defaultTemplatesDir = "site/templates"
	defaultPartialsDir  = "site/snippets"
)

var (
	// cfg is loaded by InitApp before any flag is built.
	cfg config.Type

	tldrFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
)

// configSources builds the value source chain shared by every configurable
// flag: environment variables first, then the namespaced and global keys of
// the config file.
func configSources(ns string, key string, envs ...string) cli.ValueSourceChain {
	chain := cli.NewValueSourceChain()
	for _, env := range envs {
		chain.Chain = append(chain.Chain, cli.EnvVar(env))
	}
	if ns != "" {
		chain.Chain = append(chain.Chain, yaml.YAML(ns+"."+key, altsrc.StringSourcer(cfg.Source)))
	}
	chain.Chain = append(chain.Chain, yaml.YAML(key, altsrc.StringSourcer(cfg.Source)))
	return chain
}

// NewGlobalFlags returns the output flags shared by the listing commands.
func NewGlobalFlags(ns string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: configSources(ns, "color"),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: configSources(ns, "output"),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: configSources(ns, "sort"),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: configSources(ns, "titles"),
			Value:   false,
		},
	}

	return
}

// NewManifestFlags returns the flags that map onto manifest.Options.
func NewManifestFlags(ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "templates",
			Usage:   "directory holding the templates",
			Sources: configSources(ns, "templates", "HBSCTL_TEMPLATES"),
			Value:   defaultTemplatesDir,
		},
		&cli.StringFlag{
			Name:    "partials",
			Usage:   "directory holding the partials",
			Sources: configSources(ns, "partials", "HBSCTL_PARTIALS"),
			Value:   defaultPartialsDir,
		},
		&cli.StringFlag{
			Name:    "ext-in",
			Usage:   "extension of template sources",
			Sources: configSources(ns, "ext-in", "HBSCTL_EXT_IN"),
			Value:   manifest.DefaultInputExt,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, ExtensionValidator)
			},
		},
		&cli.StringFlag{
			Name:    "ext-out",
			Usage:   "extension of compiled templates",
			Sources: configSources(ns, "ext-out", "HBSCTL_EXT_OUT"),
			Value:   manifest.DefaultOutputExt,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, ExtensionValidator)
			},
		},
		&cli.StringFlag{
			Name:    "cache-root",
			Usage:   "directory for compiled templates (default: <cache dir>/compiled)",
			Sources: configSources(ns, "cache-root", "HBSCTL_CACHE_ROOT"),
		},
		&cli.BoolWithInverseFlag{
			Name:    "manifest",
			Usage:   "persist the manifest between runs",
			Sources: configSources(ns, "manifest", "HBSCTL_MANIFEST"),
			Value:   true,
		},
		&cli.BoolWithInverseFlag{
			Name:    "incremental",
			Usage:   "reuse compiled templates from the cache root",
			Sources: configSources(ns, "incremental", "HBSCTL_INCREMENTAL"),
			Value:   true,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "ignore and flush every cache before running",
			Sources:     configSources(ns, "debug", "HBSCTL_DEBUG"),
			HideDefault: true,
		},
	}
}

// NewStoreFlags returns the flags selecting where manifests are persisted.
func NewStoreFlags(ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Usage:   "manifest store: file, sqlite, s3 or none",
			Sources: configSources(ns, "store", "HBSCTL_STORE"),
			Value:   backend.KindFile,
			Validator: func(value string) error {
				return FlagValidators(value, StoreValidator)
			},
		},
		&cli.StringFlag{
			Name:    "store-path",
			Usage:   "directory of a file store or database of a sqlite store",
			Sources: configSources(ns, "store-path", "HBSCTL_STORE_PATH"),
		},
		&cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "bucket of an s3 store",
			Sources: configSources(ns, "s3-bucket", "HBSCTL_S3_BUCKET"),
		},
		&cli.StringFlag{
			Name:    "s3-prefix",
			Usage:   "key prefix of an s3 store",
			Sources: configSources(ns, "s3-prefix", "HBSCTL_S3_PREFIX"),
			Value:   "hbsctl",
		},
		&cli.StringFlag{
			Name:    "s3-region",
			Usage:   "region of an s3 store",
			Sources: configSources(ns, "s3-region", "AWS_REGION"),
		},
		&cli.StringFlag{
			Name:    "s3-profile",
			Usage:   "AWS profile for an s3 store",
			Sources: configSources(ns, "s3-profile", "AWS_PROFILE"),
		},
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "endpoint of an S3 compatible service",
			Sources: configSources(ns, "s3-endpoint", "HBSCTL_S3_ENDPOINT"),
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas checks if the given executable is on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
