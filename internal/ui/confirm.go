package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
)

// Prompter asks questions on a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

var stdPrompter = NewPrompter(os.Stdin, os.Stdout)

func (p *Prompter) readLine() string {
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// Confirm asks a yes/no question. Anything but y/yes is no.
func (p *Prompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleWarning.Render(prompt))
	line := strings.ToLower(p.readLine())
	return line == "y" || line == "yes"
}

// ConfirmDanger is Confirm styled for destructive actions.
func (p *Prompter) ConfirmDanger(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	line := strings.ToLower(p.readLine())
	return line == "y" || line == "yes"
}

// Input asks for a line of text, returning def when the answer is empty.
func (p *Prompter) Input(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s %s: ", StyleInfo.Render(prompt), StyleMeta.Render("("+def+")"))
	} else {
		fmt.Fprintf(p.out, "%s: ", StyleInfo.Render(prompt))
	}
	if line := p.readLine(); line != "" {
		return line
	}
	return def
}

// Confirm prompts on stdin/stdout.
func Confirm(prompt string) bool { return stdPrompter.Confirm(prompt) }

// ConfirmDanger prompts on stdin/stdout.
func ConfirmDanger(prompt string) bool { return stdPrompter.ConfirmDanger(prompt) }

// Approver turns wallet requests into terminal prompts.
func (p *Prompter) Approver() provider.ApproveFunc {
	return func(ctx context.Context, r provider.Request) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintln(p.out, DescribeRequest(r))
		return p.Confirm("Approve?"), nil
	}
}

// DescribeRequest renders what the wallet is about to do.
func DescribeRequest(r provider.Request) string {
	switch r.Kind {
	case provider.RequestConnect:
		return KeyValueBlock("Connection request", [][2]string{
			{"Account", r.Account},
		})
	case provider.RequestSwitchChain:
		return KeyValueBlock("Switch network", [][2]string{
			{"Network", r.Chain},
			{"Chain ID", r.ChainID},
		})
	case provider.RequestAddChain:
		return KeyValueBlock("Add network", [][2]string{
			{"Network", r.Chain},
			{"Chain ID", r.ChainID},
		})
	case provider.RequestTransaction:
		pairs := [][2]string{{"From", r.Account}, {"Network", r.Chain}}
		if r.Tx != nil {
			pairs = append(pairs,
				[2]string{"To", r.Tx.To},
				[2]string{"Gas limit", fmt.Sprintf("%d", r.Tx.Gas)},
				[2]string{"Data", fmt.Sprintf("%d bytes", len(r.Tx.Data))},
			)
			if r.Tx.Value != nil && r.Tx.Value.Sign() > 0 {
				pairs = append(pairs, [2]string{"Value", chain.WeiToETH(r.Tx.Value) + " ETH"})
			}
		}
		return KeyValueBlock("Transaction request", pairs)
	}
	return KeyValueBlock("Wallet request", nil)
}
