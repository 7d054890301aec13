package agents

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nibzard/roadmap-go/internal/config"
)

// genericAgent drives any CLI configured under [agents.<name>]. It has
// no event format; the whole of stdout becomes the reply.
type genericAgent struct {
	cfg  Config
	name string
}

// NewGenericAgent creates an agent for the named CLI. Binary must be
// set; unlike the built-in agents there is no default to fall back to.
func NewGenericAgent(name string, cfg Config) (Agent, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("agent %s: binary is required (set binary under [agents.%s])", name, name)
	}
	return &genericAgent{cfg: normalizeConfig(AgentType(name), cfg), name: name}, nil
}

func (a *genericAgent) Run(ctx context.Context, prompt string, out LogWriter) (*Reply, error) {
	return run(ctx, a.cfg, prompt, out, a)
}

func (a *genericAgent) label() string { return a.name }

func (a *genericAgent) args(cfg Config, prompt string) []string {
	if cfg.PromptFormat == config.PromptFormatArg {
		return append(append([]string(nil), cfg.Args...), prompt)
	}
	return cfg.Args
}

// stdin carries the prompt unless the agent takes it as an argument.
func (a *genericAgent) stdin(prompt string) io.Reader {
	if a.cfg.PromptFormat == config.PromptFormatArg {
		return nil
	}
	return strings.NewReader(terminated(prompt))
}

func (a *genericAgent) consume(ctx context.Context, stdout io.Reader, sink *eventSink) error {
	var buf strings.Builder
	sc := lineScanner(stdout)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		if err := sink.text(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdout: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil
	}
	return sink.setReply(&Reply{Text: text})
}

func (a *genericAgent) finish(_ Config, got *Reply, _ *eventSink) (*Reply, error) {
	return got, nil
}
