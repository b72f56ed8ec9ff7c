package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/minhpq/microsql/server/microwire"
)

// ---- TCP client (sync) ----

type Client struct {
	conn net.Conn
	mu   sync.Mutex
	id   atomic.Uint64
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c}, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) roundTrip(req microwire.Request) (*microwire.Response, error) {
	req.ID = c.id.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := microwire.WriteFrame(c.conn, req); err != nil {
		return nil, err
	}
	var resp microwire.Response
	if err := microwire.ReadFrame(c.conn, &resp); err != nil {
		return nil, err
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("client: response id mismatch: got=%d want=%d", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return &resp, nil
}

func (c *Client) Exec(sql string) (*microwire.Response, error) {
	return c.roundTrip(microwire.Request{Op: microwire.OpExecute, SQL: sql})
}

func (c *Client) Tables() ([]microwire.TableInfo, error) {
	resp, err := c.roundTrip(microwire.Request{Op: microwire.OpTables})
	if err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

func (c *Client) Schema(table string) (*microwire.TableInfo, error) {
	resp, err := c.roundTrip(microwire.Request{Op: microwire.OpSchema, Table: table})
	if err != nil {
		return nil, err
	}
	if len(resp.Tables) == 0 {
		return nil, fmt.Errorf("client: empty schema response")
	}
	return &resp.Tables[0], nil
}

// ---- rendering ----

func printResult(resp *microwire.Response) {
	res := resp.Result
	if res == nil || len(res.Columns) == 0 {
		fmt.Printf("OK (%d affected)\n", resultAffected(resp))
		return
	}

	table := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		out := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			out[i] = row.Get(col).String()
		}
		table = append(table, out)
	}
	printTable(res.Columns, table)
	fmt.Printf("(%d rows)\n", len(res.Rows))
}

func resultAffected(resp *microwire.Response) int64 {
	if resp.Result == nil {
		return 0
	}
	return resp.Result.AffectedRows
}

func printTable(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := range header {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	printRow := func(values []string) {
		for i := range header {
			if i > 0 {
				fmt.Print(" | ")
			}
			fmt.Print(padRight(values[i], widths[i]))
		}
		fmt.Println()
	}

	printRow(header)
	for i := range header {
		if i > 0 {
			fmt.Print("-+-")
		}
		fmt.Print(strings.Repeat("-", widths[i]))
	}
	fmt.Println()
	for _, row := range rows {
		printRow(row)
	}
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func printTables(infos []microwire.TableInfo) {
	if len(infos) == 0 {
		fmt.Println("(no tables)")
		return
	}
	rows := make([][]string, 0, len(infos))
	for _, ti := range infos {
		rows = append(rows, []string{ti.Name, fmt.Sprintf("%d", ti.RowCount)})
	}
	printTable([]string{"table", "rows"}, rows)
}

func printSchema(ti *microwire.TableInfo) {
	rows := make([][]string, 0, len(ti.Columns))
	for _, c := range ti.Columns {
		var notes []string
		if c.Name == ti.PrimaryKey {
			notes = append(notes, "PRIMARY KEY")
		}
		for _, u := range ti.UniqueColumns {
			if u == c.Name {
				notes = append(notes, "UNIQUE")
			}
		}
		rows = append(rows, []string{c.Name, c.Type, strings.Join(notes, " ")})
	}
	printTable([]string{"column", "type", "constraints"}, rows)
}

const helpText = `meta commands:
  .help              show this help
  .tables            list all tables
  .schema <table>    show table schema
  .clear             clear screen
  .exit              quit (also: quit, exit)

statements (single line):
  CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(50) UNIQUE)
  INSERT INTO users (id, name) VALUES (1, 'Alice')
  SELECT * FROM users WHERE id = 1
  SELECT * FROM users ORDER BY name DESC LIMIT 10
  SELECT * FROM users JOIN posts ON users.id = posts.user_id
  UPDATE users SET name = 'Bob' WHERE id = 1
  DELETE FROM users WHERE id = 1`

func runMeta(cli *Client, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".exit", "quit", "exit":
		return true
	case ".help":
		fmt.Println(helpText)
	case ".clear":
		fmt.Print("\033[2J\033[H")
	case ".tables":
		infos, err := cli.Tables()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		printTables(infos)
	case ".schema":
		if len(fields) < 2 {
			fmt.Println("usage: .schema <table>")
			return false
		}
		ti, err := cli.Schema(fields[1])
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		printSchema(ti)
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}
	return false
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".microsql_history"
	}
	return filepath.Join(home, ".microsql_history")
}

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8877", "server address")
		timeout    = flag.Duration("timeout", 3*time.Second, "dial timeout")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
		oneShotSQL = flag.String("c", "", "execute one statement and exit")
	)
	flag.Parse()

	cli, err := Dial(*addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cli.Close() }()

	// one-shot mode
	if strings.TrimSpace(*oneShotSQL) != "" {
		resp, err := cli.Exec(*oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		printResult(resp)
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "microsql> ",
		HistoryFile:     *histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("connected to %s\n", *addr)
	fmt.Println("type .help for help")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println("^C")
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") || line == "quit" || line == "exit" {
			if runMeta(cli, line) {
				return
			}
			continue
		}

		resp, err := cli.Exec(line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(resp)
	}
}
