package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samvad-hq/webdriver-transport/internal/app"
	"github.com/samvad-hq/webdriver-transport/pkg/httpclient"
	"github.com/urfave/cli/v2"
)

func execCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "execute a single request and print the response body",
		ArgsUsage: "METHOD URL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON parameters sent as the body of POST/PUT"},
			&cli.StringSliceFlag{Name: "header", Aliases: []string{"H"}, Usage: "extra header `Name: value` (repeatable)"},
			&cli.DurationFlag{Name: "connect-timeout", Usage: "connect timeout"},
			&cli.DurationFlag{Name: "timeout", Usage: "overall request timeout"},
			&cli.BoolFlag{Name: "insecure", Aliases: []string{"k"}, Usage: "skip TLS certificate verification"},
			&cli.StringFlag{Name: "proxy", Usage: "proxy URL"},
			&cli.BoolFlag{Name: "location", Aliases: []string{"L"}, Usage: "follow redirects"},
			&cli.StringFlag{Name: "user-agent", Aliases: []string{"A"}, Usage: "User-Agent header"},
			&cli.BoolFlag{Name: "strict", Usage: "reject methods other than GET, POST, PUT and DELETE"},
			&cli.BoolFlag{Name: "info", Aliases: []string{"i"}, Usage: "print response metadata after the body"},
		},
		Action: execAction,
	}
}

func execAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("exec expects METHOD and URL")
	}
	method, target := c.Args().Get(0), c.Args().Get(1)

	var params any
	if raw := strings.TrimSpace(c.String("data")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return fmt.Errorf("decode --data: %w", err)
		}
	}

	opts, err := execOptions(c)
	if err != nil {
		return err
	}

	runner, closeRunner, err := openRunner(c.Context)
	if err != nil {
		return err
	}
	defer closeRunner()

	res, err := runner.Execute(c.Context, app.Request{
		Method:  method,
		URL:     target,
		Params:  params,
		Options: opts,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, res.Body)
	if c.Bool("info") {
		raw, err := json.MarshalIndent(res.Info, "", "  ")
		if err != nil {
			return fmt.Errorf("encode info: %w", err)
		}
		fmt.Fprintln(c.App.Writer, string(raw))
	}
	return nil
}

// execOptions turns explicitly set flags into per-call overrides so config
// defaults stay in effect for everything else.
func execOptions(c *cli.Context) ([]httpclient.Option, error) {
	var opts []httpclient.Option
	if c.IsSet("connect-timeout") {
		opts = append(opts, httpclient.WithConnectTimeout(c.Duration("connect-timeout")))
	}
	if c.IsSet("timeout") {
		opts = append(opts, httpclient.WithTimeout(c.Duration("timeout")))
	}
	if c.IsSet("insecure") {
		opts = append(opts, httpclient.WithInsecureSkipVerify(c.Bool("insecure")))
	}
	if c.IsSet("proxy") {
		opts = append(opts, httpclient.WithProxy(c.String("proxy")))
	}
	if c.IsSet("location") {
		opts = append(opts, httpclient.WithFollowRedirects(c.Bool("location")))
	}
	if c.IsSet("user-agent") {
		opts = append(opts, httpclient.WithUserAgent(c.String("user-agent")))
	}
	if c.IsSet("strict") {
		opts = append(opts, httpclient.WithStrictMethods(c.Bool("strict")))
	}
	for _, h := range c.StringSlice("header") {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q (expected Name: value)", h)
		}
		opts = append(opts, httpclient.WithHeader(name, strings.TrimSpace(value)))
	}
	return opts, nil
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list recently executed requests from the journal",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "number of entries to show"},
		},
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	runner, closeRunner, err := openRunner(c.Context)
	if err != nil {
		return err
	}
	defer closeRunner()

	entries, err := runner.History(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"At", "Method", "Status", "Duration", "URL", "Result"})
	for _, ex := range entries {
		result := ex.Summary
		if ex.Failed() {
			result = "error: " + ex.Error
		} else if ex.EmptyReply {
			result = "empty reply"
		}
		t.AppendRow(table.Row{
			ex.At.Local().Format(time.DateTime),
			ex.Method,
			ex.StatusCode,
			(time.Duration(ex.DurationMs) * time.Millisecond).String(),
			ex.URL,
			result,
		})
	}
	t.Render()
	return nil
}
