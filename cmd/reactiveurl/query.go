package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactiveurl/internal/errors"
	"github.com/vango-dev/reactiveurl/pkg/query"
)

type queryOptions struct {
	filterKeys      []string
	fill            []string
	set             []string
	setFilter       []string
	forget          []string
	forgetFilter    []string
	exceptPaginator bool
}

func queryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <url>",
		Short: "Rewrite the query string of a URL",
		Long: `Rewrite the query string of a URL and print the result.

Operations run in this order: --fill, --set, --set-filter, --forget,
--forget-filter, --except-paginator. Keys listed in --filter-keys are
read and written as filter[key].`,
		Example: `  reactiveurl query '/issues?page=3' --filter-keys status --set status=open --except-paginator
  /issues?filter%5Bstatus%5D=open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := rewriteURL(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.filterKeys, "filter-keys", nil, "Keys namespaced as filter[key]")
	f.StringArrayVar(&opts.fill, "fill", nil, "Merge key=value; an empty value removes the key")
	f.StringArrayVar(&opts.set, "set", nil, "Set key=value")
	f.StringArrayVar(&opts.setFilter, "set-filter", nil, "Set filter[key]=value")
	f.StringArrayVar(&opts.forget, "forget", nil, "Remove key")
	f.StringArrayVar(&opts.forgetFilter, "forget-filter", nil, "Remove filter[key]")
	f.BoolVar(&opts.exceptPaginator, "except-paginator", false, "Remove limit and page")

	return cmd
}

func rewriteURL(raw string, opts queryOptions) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.New("R121").WithDetail(raw).Wrap(err)
	}
	params, err := query.ParseSearchParams(u.RawQuery)
	if err != nil {
		return "", errors.New("R120").WithDetail(u.RawQuery).Wrap(err)
	}
	qp := query.New(params, opts.filterKeys...)

	fill := query.RawQuery{}
	for _, a := range opts.fill {
		k, v, err := parseAssignment(a)
		if err != nil {
			return "", err
		}
		fill[k] = v
	}
	qp.Fill(fill)

	for _, a := range opts.set {
		k, v, err := parseAssignment(a)
		if err != nil {
			return "", err
		}
		qp.Set(k, v)
	}
	for _, a := range opts.setFilter {
		k, v, err := parseAssignment(a)
		if err != nil {
			return "", err
		}
		qp.SetFilter(k, v)
	}
	for _, k := range opts.forget {
		qp.Forget(k)
	}
	for _, k := range opts.forgetFilter {
		qp.ForgetFilter(k)
	}
	if opts.exceptPaginator {
		qp.ExceptPaginator()
	}

	fragment := u.EscapedFragment()
	base := *u
	base.RawQuery = ""
	base.ForceQuery = false
	base.Fragment = ""
	base.RawFragment = ""

	out := qp.AppendToURL(base.String())
	if fragment != "" {
		out += "#" + fragment
	}
	return out, nil
}

func parseAssignment(s string) (key, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", "", errors.New("R140").
			WithDetailf("got %q", s).
			WithSuggestion("Write assignments as key=value, e.g. --set status=open")
	}
	return key, value, nil
}
