// Package main is the ksearch CLI: a short-lived client of a running
// cmd/ksearchd, dialing its Unix-socket client channel (§4.1/§4.3) to issue
// one SEARCH or ADD command and print the result. Grounded on
// cmd/cli/cli/app.go's urfave/cli + fatih/color idiom, cut down to the
// single-command flag surface §6 "Client CLI" mandates.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/ksearch-project/ksearch/cmn/config"
	"github.com/ksearch-project/ksearch/framing"
	"github.com/ksearch-project/ksearch/hk"
	"github.com/ksearch-project/ksearch/overlay"
	"github.com/ksearch-project/ksearch/wire"
)

var (
	build string

	fgreen = color.New(color.FgHiGreen).SprintFunc()
	fred   = color.New(color.FgHiRed).SprintFunc()
	fcyan  = color.New(color.FgHiCyan).SprintFunc()
)

// §6 "Client CLI (minimum surface)": --action search|add (required),
// --keyword <string> (required when action=search), --urls <path>
// (required when action=add; one URL per line, trailing newline optional).
func main() {
	app := cli.NewApp()
	app.Name = "ksearch"
	app.Usage = "command-line client for a running ksearchd"
	app.Version = build
	app.HideHelp = false

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "action", Usage: "search or add (required)"},
		cli.StringFlag{Name: "keyword", Usage: "keyword to search for (required when --action=search)"},
		cli.StringFlag{Name: "urls", Usage: "path to a file of newline-separated URLs (required when --action=add)"},
		cli.StringFlag{Name: "socket", Value: "", Usage: "ksearchd's client socket (defaults to the built-in config)"},
	}
	app.Action = run

	// ConnTransport hands every inbound unit to the housekeeper's serving
	// goroutine, so it must be running before any response can arrive.
	go hk.DefaultHK.Run()
	hk.WaitStarted()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, fred(err.Error()))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	switch action := c.String("action"); action {
	case "search":
		return runSearch(c)
	case "add":
		return runAdd(c)
	case "":
		return cli.NewExitError("--action is required (search|add)", 1)
	default:
		return cli.NewExitError(fmt.Sprintf("--action must be search or add, got %q", action), 1)
	}
}

func runSearch(c *cli.Context) error {
	keyword := c.String("keyword")
	if keyword == "" {
		return cli.NewExitError("--keyword is required when --action=search", 1)
	}

	cl, err := dial(c)
	if err != nil {
		return cli.NewExitError(fred(err.Error()), 1)
	}
	defer cl.close()

	cmd := &wire.SearchCommand{Action: wire.ActionSearch, ID: 1, Body: []byte(keyword)}
	if err := cl.framer.Transmit(cmd.MarshalNew(), nil); err != nil {
		return cli.NewExitError(fred(fmt.Sprintf("send SEARCH: %v", err)), 1)
	}

	resp, err := cl.awaitResponse(5 * time.Second)
	if err != nil {
		return cli.NewExitError(fred(err.Error()), 1)
	}
	urls := wire.DecodeStrings(resp.Body)
	if len(urls) == 0 {
		fmt.Fprintln(os.Stdout, fcyan("no results"))
		return nil
	}
	for _, u := range urls {
		fmt.Fprintf(os.Stdout, "%s %s\n", fgreen("RESULT"), u)
	}
	return nil
}

func runAdd(c *cli.Context) error {
	path := c.String("urls")
	if path == "" {
		return cli.NewExitError("--urls <path> is required when --action=add", 1)
	}
	urls, err := readURLFile(path)
	if err != nil {
		return cli.NewExitError(fred(err.Error()), 1)
	}
	if len(urls) == 0 {
		return cli.NewExitError(fmt.Sprintf("--urls file %s contains no URLs", path), 1)
	}

	cl, err := dial(c)
	if err != nil {
		return cli.NewExitError(fred(err.Error()), 1)
	}
	defer cl.close()

	cmd := &wire.SearchCommand{Action: wire.ActionAdd, ID: 1, Body: wire.EncodeStrings(urls)}
	if err := cl.framer.Transmit(cmd.MarshalNew(), nil); err != nil {
		return cli.NewExitError(fred(fmt.Sprintf("send ADD: %v", err)), 1)
	}

	if _, err := cl.awaitResponse(5 * time.Second); err != nil {
		return cli.NewExitError(fred(err.Error()), 1)
	}
	fmt.Fprintf(os.Stdout, "%s %d url(s) announced\n", fgreen("DONE"), len(urls))
	return nil
}

// readURLFile reads one URL per line, `\n` separated, trailing `\n`
// optional, per §6.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls, sc.Err()
}

// client is a single dial-send-await-close round trip against ksearchd's
// client channel, built the same way cmd/ksearchd's serveClient builds the
// server-side half of the same pipeline (overlay.ConnTransport + framing.Framer).
type client struct {
	conn   net.Conn
	ct     *overlay.ConnTransport
	framer *framing.Framer
	respCh chan *wire.SearchResponse
}

func dial(c *cli.Context) (*client, error) {
	addr := c.String("socket")
	if addr == "" {
		addr = config.GCO.Get().Transport.ListenAddr
	}
	conn, err := net.Dial("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to ksearchd at %s: %w", addr, err)
	}

	maxMTU := config.GCO.Get().Transport.MaxMTU
	cl := &client{
		conn:   conn,
		ct:     overlay.NewConnTransport(conn, maxMTU, nil),
		respCh: make(chan *wire.SearchResponse, 1),
	}
	cl.framer = framing.New(cl.ct, nil)
	cl.framer.AddListener(cl.onMessage)
	return cl, nil
}

func (cl *client) onMessage(_ *overlay.PeerID, payload []byte) {
	resp, err := wire.UnmarshalSearchResponse(payload)
	if err != nil {
		return
	}
	select {
	case cl.respCh <- resp:
	default:
	}
}

func (cl *client) awaitResponse(timeout time.Duration) (*wire.SearchResponse, error) {
	select {
	case resp := <-cl.respCh:
		return resp, nil
	case <-cl.ct.Done():
		return nil, fmt.Errorf("ksearchd closed the connection before responding")
	case <-time.After(timeout):
		return nil, fmt.Errorf("timed out waiting for ksearchd's response")
	}
}

func (cl *client) close() {
	_ = cl.conn.Close()
}
