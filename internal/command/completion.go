// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/meta"
)

const bashCompletionScript = `# bash completion for hbsctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_hbsctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "build diff fingerprint flush ls render watch which completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local manifest="--templates --partials --ext-in --ext-out --cache-root --manifest --no-manifest --incremental --no-incremental --debug --tldr"
    local store="--store --store-path --s3-bucket --s3-prefix --s3-region --s3-profile --s3-endpoint"
    local listing="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t"

    case "$cmd" in
        build|ls)
            local opts="$manifest $store $listing"
            ;;
        render)
            local opts="$manifest $store --data -d --set --query -q"
            ;;
        which)
            local opts="$manifest $store --compiled"
            ;;
        fingerprint)
            local opts="$manifest"
            ;;
        flush)
            local opts="$manifest $store --older-than"
            ;;
        diff)
            local opts="$manifest $store --color -c"
            ;;
        watch)
            local opts="$manifest $store --debounce"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$manifest"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --store)
            COMPREPLY=( $(compgen -W "file sqlite s3 none" -- "$cur") )
            return 0
            ;;
        --templates|--partials|--cache-root|--store-path)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
        --data|-d)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _hbsctl hbsctl
`

const zshCompletionScript = `#compdef hbsctl

_hbsctl() {
  local -a cmds
  cmds=(
    'build:compile stale templates and persist the manifest'
    'diff:compare the persisted manifest with a fresh scan'
    'fingerprint:print the fingerprint of the current sources'
    'flush:clear the manifest store and compiled templates'
    'ls:list templates and partials with their staleness'
    'render:render a template'
    'watch:rebuild whenever templates or partials change'
    'which:show the file a template name resolves to'
    'completion:generate shell completion script'
  )

  local -a manifest
  manifest=(
  '--templates[template directory]:dir:_directories'
  '--partials[partial directory]:dir:_directories'
  '--ext-in[source extension]:ext'
  '--ext-out[compiled extension]:ext'
  '--cache-root[compiled template directory]:dir:_directories'
  '(--manifest --no-manifest)'{--manifest,--no-manifest}'[persist the manifest]'
  '(--incremental --no-incremental)'{--incremental,--no-incremental}'[reuse compiled templates]'
  '--debug[flush every cache first]'
  '--tldr[show tldr page]'
  )

  local -a store
  store=(
  '--store[manifest store]:store:(file sqlite s3 none)'
  '--store-path[store location]:path:_files'
  '--s3-bucket[bucket]:bucket'
  '--s3-prefix[key prefix]:prefix'
  '--s3-region[region]:region'
  '--s3-profile[AWS profile]:profile'
  '--s3-endpoint[endpoint]:url'
  )

  local -a listing
  listing=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'hbsctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    build|ls)
      _arguments -C $manifest $store $listing
      ;;
    render)
      _arguments -C $manifest $store \
        '(-d --data)'{-d,--data}'[JSON data file]:file:_files' \
        '*--set[model field]:key=value' \
        '*'{-q,--query}'[dotted query]:query' \
        '1:template name'
      ;;
    which)
      _arguments -C $manifest $store '--compiled[show compiled path]' '1:template name'
      ;;
    fingerprint)
      _arguments -C $manifest
      ;;
    flush)
      _arguments -C $manifest $store '--older-than[minimum age]:duration'
      ;;
    diff)
      _arguments -C $manifest $store '(-c --color)'{-c,--color}'[enable colored diff]'
      ;;
    watch)
      _arguments -C $manifest $store '--debounce[quiet period]:duration'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $manifest
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _hbsctl hbsctl
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := writer(cmd)

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		fmt.Fprintln(os.Stderr, "usage: hbsctl completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "hbsctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
