package cmd

import (
	"fmt"

	"github.com/nibzard/roadmap-go/internal/config"
)

// completionCommand prints a shell completion script.
func completionCommand(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: roadmap completion <bash|zsh|fish|powershell>")
	}
	switch args[0] {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	case "powershell", "pwsh":
		fmt.Print(powershellCompletion)
	default:
		return fmt.Errorf("unsupported shell %q (expected bash, zsh, fish, or powershell)", args[0])
	}
	return nil
}

const completionCommands = "generate validate ls status draft checklist runs export tui doctor init completion tail version help"

const bashCompletion = `# roadmap bash completion
# Install: source <(roadmap completion bash)
_roadmap_completions() {
    local cur="${COMP_WORDS[COMP_CWORD]}"
    local commands="` + completionCommands + `"
    if [ "$COMP_CWORD" -eq 1 ]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi
    case "${COMP_WORDS[1]}" in
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish powershell" -- "$cur"))
            ;;
        status)
            COMPREPLY=($(compgen -W "pending in_progress done blocked skipped -clear" -- "$cur"))
            ;;
        export)
            COMPREPLY=($(compgen -W "-out -format -sort -category -live -snapshot" -- "$cur"))
            ;;
        generate|gen)
            COMPREPLY=($(compgen -W "-anchor -policy -tie-break -clamp-anchor -out -format -sort -hook -dry-run" -- "$cur"))
            ;;
    esac
}
complete -F _roadmap_completions roadmap
`

const zshCompletion = `#compdef roadmap
# Install: roadmap completion zsh > "${fpath[1]}/_roadmap"
_roadmap() {
    local -a commands
    commands=(
        'generate:Generate the roadmap'
        'validate:Validate the template catalog'
        'ls:List scheduled tasks'
        'status:List, set, or clear status overrides'
        'draft:Draft a new task template with an agent'
        'checklist:Generate an execution checklist with an agent'
        'runs:List recent roadmap snapshots'
        'export:Export the roadmap as CSV or JSON'
        'tui:Launch the terminal roadmap browser'
        'doctor:Check config, catalog, anchors, and dependencies'
        'init:Write starter templates, schema, and config'
        'completion:Print a shell completion script'
        'tail:Tail the latest run log'
        'version:Show version information'
        'help:Show help'
    )
    if (( CURRENT == 2 )); then
        _describe 'command' commands
    elif [ "${words[2]}" = "completion" ]; then
        _values 'shell' bash zsh fish powershell
    elif [ "${words[2]}" = "status" ]; then
        _values 'status' pending in_progress done blocked skipped
    fi
}
_roadmap "$@"
`

const fishCompletion = `# roadmap fish completion
# Install: roadmap completion fish > ~/.config/fish/completions/roadmap.fish
complete -c roadmap -f
complete -c roadmap -n "__fish_use_subcommand" -a generate -d "Generate the roadmap"
complete -c roadmap -n "__fish_use_subcommand" -a validate -d "Validate the template catalog"
complete -c roadmap -n "__fish_use_subcommand" -a ls -d "List scheduled tasks"
complete -c roadmap -n "__fish_use_subcommand" -a status -d "List, set, or clear status overrides"
complete -c roadmap -n "__fish_use_subcommand" -a draft -d "Draft a new task template with an agent"
complete -c roadmap -n "__fish_use_subcommand" -a checklist -d "Generate an execution checklist with an agent"
complete -c roadmap -n "__fish_use_subcommand" -a runs -d "List recent roadmap snapshots"
complete -c roadmap -n "__fish_use_subcommand" -a export -d "Export the roadmap as CSV or JSON"
complete -c roadmap -n "__fish_use_subcommand" -a tui -d "Launch the terminal roadmap browser"
complete -c roadmap -n "__fish_use_subcommand" -a doctor -d "Check config, catalog, anchors, and dependencies"
complete -c roadmap -n "__fish_use_subcommand" -a init -d "Write starter templates, schema, and config"
complete -c roadmap -n "__fish_use_subcommand" -a completion -d "Print a shell completion script"
complete -c roadmap -n "__fish_use_subcommand" -a tail -d "Tail the latest run log"
complete -c roadmap -n "__fish_use_subcommand" -a version -d "Show version information"
complete -c roadmap -n "__fish_use_subcommand" -a help -d "Show help"
complete -c roadmap -n "__fish_seen_subcommand_from completion" -a "bash zsh fish powershell"
complete -c roadmap -n "__fish_seen_subcommand_from status" -a "pending in_progress done blocked skipped"
`

const powershellCompletion = `# roadmap PowerShell completion
# Install: roadmap completion powershell | Out-String | Invoke-Expression
Register-ArgumentCompleter -Native -CommandName roadmap -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)
    $commands = '` + completionCommands + `' -split ' '
    $commands | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
    }
}
`
