package docs_test

import (
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/yaman-yucel/lirashield/cmd"
	"github.com/yaman-yucel/lirashield/docs"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const prompt = "$ lirashield "

// consoleLines returns the command lines of the console blocks of a topic.
func consoleLines(t *testing.T, content string) []string {
	t.Helper()
	source := []byte(content)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var lines []string
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		if string(fcb.Info.Segment.Value(source)) != "console" {
			return ast.WalkContinue, nil
		}
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := strings.TrimSpace(string(fcb.Lines().At(i).Value(source)))
			if strings.HasPrefix(line, prompt) {
				lines = append(lines, strings.TrimPrefix(line, prompt))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return lines
}

// TestCommandExamples checks that every command shown in the documentation
// names an existing subcommand with valid flags.
func TestCommandExamples(t *testing.T) {
	topics, err := docs.GetAllTopics()
	if err != nil {
		t.Fatal(err)
	}
	topics = append(topics, "readme")

	global := flag.NewFlagSet("lirashield", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	global.String("db", "", "")
	global.Bool("v", false, "")
	commander := subcommands.NewCommander(global, "lirashield")
	cmd.Register(commander)
	commands := make(map[string]subcommands.Command)
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		commands[c.Name()] = c
	})

	count := 0
	for _, topic := range topics {
		content, err := docs.GetTopic(topic)
		if err != nil {
			t.Fatal(err)
		}
		for _, line := range consoleLines(t, content) {
			count++
			if err := global.Parse(strings.Fields(line)); err != nil {
				t.Errorf("%s: %q: invalid global flags: %v", topic, line, err)
				continue
			}
			if global.NArg() == 0 {
				t.Errorf("%s: %q: missing subcommand", topic, line)
				continue
			}
			c, ok := commands[global.Arg(0)]
			if !ok {
				t.Errorf("%s: %q: unknown subcommand %q", topic, line, global.Arg(0))
				continue
			}
			fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			c.SetFlags(fs)
			if err := fs.Parse(global.Args()[1:]); err != nil {
				t.Errorf("%s: %q: %v", topic, line, err)
			}
		}
	}
	if count == 0 {
		t.Errorf("no command example found")
	}
}
