// Command inspector is a small ops client for poking a running
// slabgate instance: read the router config, set scores, mint
// mandates, fire signals, and watch bridge receipts.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "slabgate base URL")
	key := flag.String("key", os.Getenv("SLABGATE_KEY"), "gateway key")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cli := &client{base: *base, key: *key, http: &http.Client{Timeout: 30 * time.Second}}

	var err error
	switch args[0] {
	case "config":
		err = cli.do("GET", "/v1/router", nil)
	case "score":
		if len(args) != 3 {
			fatal("usage: inspector score <asset> <score_bps>")
		}
		err = cli.do("PUT", "/v1/oracle/scores/"+args[1], map[string]any{"score_bps": atoi(args[2])})
	case "mint":
		if len(args) != 4 {
			fatal("usage: inspector mint <asset> <strategy> <ttl_seconds>")
		}
		err = cli.do("POST", "/v1/mandates", map[string]any{
			"asset": args[1], "strategy": args[2], "ttl_seconds": atoi(args[3]),
		})
	case "mandate":
		if len(args) != 3 {
			fatal("usage: inspector mandate <asset> <strategy>")
		}
		err = cli.do("GET", fmt.Sprintf("/v1/mandates?asset=%s&strategy=%s", args[1], args[2]), nil)
	case "signal":
		if len(args) != 6 {
			fatal("usage: inspector signal <asset> <strategy> <side> <confidence_bps> <notional>")
		}
		err = cli.do("POST", "/v1/signals", map[string]any{
			"asset": args[1], "strategy": args[2], "side": args[3],
			"confidence_bps": atoi(args[4]), "notional": atoi(args[5]),
		})
	case "slab":
		if len(args) != 2 {
			fatal("usage: inspector slab <strategy>")
		}
		err = cli.do("GET", "/v1/slabs/"+args[1], nil)
	case "transfer":
		if len(args) != 7 {
			fatal("usage: inspector transfer <from> <to> <token> <amount> <sender> <recipient>")
		}
		err = cli.do("POST", "/v1/bridge/transfers", map[string]any{
			"from_chain": args[1], "to_chain": args[2], "token": args[3],
			"amount": atoi(args[4]), "sender": args[5], "recipient": args[6],
		})
	case "wait":
		if len(args) != 2 {
			fatal("usage: inspector wait <request_id>")
		}
		err = cli.do("POST", "/v1/bridge/transfers/"+args[1]+"/wait", map[string]any{})
	case "audit":
		err = cli.do("GET", "/v1/audit?limit=20", nil)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fatal(err.Error())
	}
}

type client struct {
	base string
	key  string
	http *http.Client
}

func (c *client) do(method, path string, body map[string]any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("X-Gateway-Key", c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Printf("%s %s\n%s\n", resp.Status, path, pretty.String())
	} else {
		fmt.Printf("%s %s\n%s\n", resp.Status, path, raw)
	}
	return nil
}

func atoi(s string) int64 {
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		fatal("not a number: " + s)
	}
	return n
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: inspector [-base URL] [-key KEY] <command>

commands:
  config
  score <asset> <score_bps>
  mint <asset> <strategy> <ttl_seconds>
  mandate <asset> <strategy>
  signal <asset> <strategy> <side> <confidence_bps> <notional>
  slab <strategy>
  transfer <from> <to> <token> <amount> <sender> <recipient>
  wait <request_id>
  audit`)
}
