// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/cikit/internal/meta"
)

const bashCompletionScript = `# bash completion for cikit
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_cikit()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "tag plt notify completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--color -c --filter -f --output -o --sort -s --titles -t --tldr"

    case "$cmd" in
        tag)
            local opts="$common --working-directory -C --dry-run -n --prefix --sha --repository --api-url --make-latest --draft --prerelease --token --exclude -x"
            ;;
        plt)
            local opts="$common --working-directory -C --cmd-line --cache-key-version --elixir --restore-fallback --skip-restore --skip-restore-on-retry --lockfile --path --backend -b --bucket --cache-prefix --cache-dir --profile --region --endpoint --path-style --credentials-file --purge-hours"
            ;;
        notify)
            local opts="$common --dry-run -n --status --github-context --webhook --retries"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "table json yaml" -- "$cur") )
            return 0
            ;;
        --backend|-b)
            COMPREPLY=( $(compgen -W "local s3 gcs badger" -- "$cur") )
            return 0
            ;;
        --status)
            COMPREPLY=( $(compgen -W "success cancelled failure" -- "$cur") )
            return 0
            ;;
        --working-directory|-C|--cache-dir)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _cikit cikit
`

const zshCompletionScript = `#compdef cikit

_cikit() {
  local -a cmds
  cmds=(
    'tag:cut a GitHub release from conventional commits'
    'plt:run dialyzer with a cached PLT'
    'notify:post a deployment result to Slack'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(table json yaml)'
  '(-s --sort)'{-s,--sort}'[sort columns]:columns'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'cikit commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    tag)
      _arguments -C \
        $common \
        '(-C --working-directory)'{-C,--working-directory}'[directory to run in]:directory:_directories' \
        '(-n --dry-run)'{-n,--dry-run}'[change nothing]' \
        '--prefix[tag prefix]:prefix' \
        '--sha[release target]:sha' \
        '--repository[owner/repo]:repository' \
        '--api-url[GitHub API root]:url' \
        '--make-latest[mark latest]:value:(true false legacy)' \
        '--draft[draft release]' \
        '--prerelease[prerelease]' \
        '--token[GitHub token]:token' \
        '*'{-x,--exclude}'[excluded path]:path:_files'
      ;;
    plt)
      _arguments -C \
        $common \
        '(-C --working-directory)'{-C,--working-directory}'[directory to run in]:directory:_directories' \
        '--cmd-line[extra dialyzer arguments]:args' \
        '--cache-key-version[cache key prefix]:version' \
        '--elixir[elixir executable]:path:_files' \
        '--restore-fallback[restore closest older cache]' \
        '--skip-restore[always rebuild]' \
        '--skip-restore-on-retry[rebuild on re-runs]' \
        '*--lockfile[lockfile glob]:glob' \
        '*--path[cached path glob]:glob' \
        '(-b --backend)'{-b,--backend}'[cache backend]:backend:(local s3 gcs badger)' \
        '--bucket[bucket]:bucket' \
        '--cache-prefix[object prefix]:prefix' \
        '--cache-dir[cache directory]:directory:_directories' \
        '--profile[AWS profile]:profile' \
        '--region[AWS region]:region' \
        '--endpoint[S3 endpoint]:url' \
        '--path-style[path-style S3 addressing]' \
        '--credentials-file[GCS key file]:file:_files' \
        '--purge-hours[purge local entries older than]:hours'
      ;;
    notify)
      _arguments -C \
        $common \
        '(-n --dry-run)'{-n,--dry-run}'[print instead of posting]' \
        '--status[job status]:status:(success cancelled failure)' \
        '--github-context[github context JSON]:json' \
        '--webhook[Slack webhook]:url' \
        '--retries[retries]:count'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _cikit cikit
`

// WriteCompletion writes the script for shell, falling back to $SHELL.
func WriteCompletion(w io.Writer, shell string) error {
	if shell == "" {
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
		_, err := fmt.Fprint(w, bashCompletionScript)
		return err
	case "zsh":
		_, err := fmt.Fprint(w, zshCompletionScript)
		return err
	default:
		return fmt.Errorf("usage: cikit completion [bash|zsh]")
	}
}

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	return WriteCompletion(os.Stdout, cmd.Args().First())
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "cikit completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
