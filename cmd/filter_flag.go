package cmd

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/oakwood-commons/combo/internal/config"
)

var _ pflag.Value = (*filterList)(nil)

// filterList is a repeatable --filter flag.
type filterList []config.Filter

func (l *filterList) String() string {
	parts := make([]string, 0, len(*l))
	for _, f := range *l {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ",")
}

func (l *filterList) Set(s string) error {
	f, err := config.ParseFilter(s)
	if err != nil {
		return err
	}
	*l = append(*l, f)
	return nil
}

func (l *filterList) Type() string { return "filter" }
